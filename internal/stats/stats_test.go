package stats

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregator_Empty(t *testing.T) {
	s := NewAggregator().Snapshot()
	assert.Equal(t, uint64(0), s.Sent)
	assert.Equal(t, uint64(0), s.Received)
	assert.Empty(t, s.PerPeer)
	assert.Equal(t, float64(0), s.SuccessRate())
	assert.Equal(t, float64(0), s.PeerShare("[::1]:4242"))
}

func TestAggregator_Counts(t *testing.T) {
	a := NewAggregator()
	for i := 0; i < 5; i++ {
		a.RecordSent()
	}
	a.RecordReceived("[::1]:4242")
	a.RecordReceived("[::1]:4242")
	a.RecordReceived("[fe80::1%eth0]:3000")

	s := a.Snapshot()
	assert.Equal(t, uint64(5), s.Sent)
	assert.Equal(t, uint64(3), s.Received)
	assert.Equal(t, uint64(2), s.PerPeer["[::1]:4242"])
	assert.Equal(t, uint64(1), s.PerPeer["[fe80::1%eth0]:3000"])

	assert.InDelta(t, 60.0, s.SuccessRate(), 1e-9)
	assert.InDelta(t, 40.0, s.PeerShare("[::1]:4242"), 1e-9)
	assert.InDelta(t, 20.0, s.PeerShare("[fe80::1%eth0]:3000"), 1e-9)
}

func TestAggregator_ReceivedEqualsPeerSum(t *testing.T) {
	a := NewAggregator()
	for i := 0; i < 17; i++ {
		a.RecordReceived(fmt.Sprintf("[::1]:%d", 4000+i%3))
	}

	s := a.Snapshot()
	var sum uint64
	for _, n := range s.PerPeer {
		sum += n
	}
	assert.Equal(t, s.Received, sum)
}

// TestAggregator_ConcurrentReceives drives 100 concurrent receive events
// and verifies no update is lost.
func TestAggregator_ConcurrentReceives(t *testing.T) {
	a := NewAggregator()

	const events = 100
	var wg sync.WaitGroup
	wg.Add(events)
	for i := 0; i < events; i++ {
		go func(i int) {
			defer wg.Done()
			a.RecordReceived(fmt.Sprintf("[::1]:%d", 5000+i%7))
		}(i)
	}
	wg.Wait()

	s := a.Snapshot()
	require.Equal(t, uint64(events), s.Received)

	var sum uint64
	for _, n := range s.PerPeer {
		sum += n
	}
	assert.Equal(t, uint64(events), sum)
}

// TestAggregator_ConcurrentMixed exercises sender, receiver, and reporter
// activities racing the way the prober loop does.
func TestAggregator_ConcurrentMixed(t *testing.T) {
	a := NewAggregator()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			a.RecordSent()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			a.RecordReceived("[::1]:6000")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			_ = a.Snapshot()
		}
	}()
	wg.Wait()

	s := a.Snapshot()
	assert.Equal(t, uint64(200), s.Sent)
	assert.Equal(t, uint64(200), s.Received)
	assert.Equal(t, uint64(200), s.PerPeer["[::1]:6000"])
}

func TestSnapshot_CopyIsDetached(t *testing.T) {
	a := NewAggregator()
	a.RecordReceived("[::1]:7000")

	s := a.Snapshot()
	a.RecordReceived("[::1]:7000")

	// The earlier snapshot is unaffected by later increments.
	assert.Equal(t, uint64(1), s.PerPeer["[::1]:7000"])
}

func TestSnapshot_Peers_Sorted(t *testing.T) {
	a := NewAggregator()
	a.RecordReceived("[::9]:1")
	a.RecordReceived("[::1]:1")
	a.RecordReceived("[::5]:1")

	assert.Equal(t, []string{"[::1]:1", "[::5]:1", "[::9]:1"}, a.Snapshot().Peers())
}

func TestSnapshot_SuccessRateAboveHundred(t *testing.T) {
	// Two peers answering one probe is legitimate for multicast.
	a := NewAggregator()
	a.RecordSent()
	a.RecordReceived("[::1]:1")
	a.RecordReceived("[::2]:1")

	assert.InDelta(t, 200.0, a.Snapshot().SuccessRate(), 1e-9)
}
