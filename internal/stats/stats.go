// Package stats aggregates probe counters under concurrent access.
//
// Three activities touch an Aggregator at once: the sender records sends,
// the receiver records receipts keyed by peer, and the reporter reads.
// Readers only ever see snapshot copies, so a report can never observe a
// torn update, and an in-flight increment missing from the final report
// after cancellation is acceptable by design.
package stats

import (
	"sort"
	"sync"
)

// Aggregator is the shared counter set for one prober or responder.
// All mutation happens under one mutex with increment-and-release
// critical sections; the lock is never held across I/O.
type Aggregator struct {
	mu       sync.Mutex
	sent     uint64
	received uint64
	perPeer  map[string]uint64
}

// NewAggregator returns an empty counter set.
func NewAggregator() *Aggregator {
	return &Aggregator{
		perPeer: make(map[string]uint64),
	}
}

// RecordSent counts one successfully sent probe. Callers must only invoke
// it after the send succeeded; a failed send is not a sent probe.
func (a *Aggregator) RecordSent() {
	a.mu.Lock()
	a.sent++
	a.mu.Unlock()
}

// RecordReceived counts one received reply attributed to peer, which is
// the source address of the datagram as observed. Peers are discovered,
// not declared; the first receipt from an address creates its entry.
func (a *Aggregator) RecordReceived(peer string) {
	a.mu.Lock()
	a.received++
	a.perPeer[peer]++
	a.mu.Unlock()
}

// Snapshot returns a consistent copy of the counters. The per-peer map is
// deep-copied so the caller can print at leisure while increments
// continue.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	peers := make(map[string]uint64, len(a.perPeer))
	for peer, n := range a.perPeer {
		peers[peer] = n
	}
	return Snapshot{
		Sent:     a.sent,
		Received: a.received,
		PerPeer:  peers,
	}
}

// Snapshot is a point-in-time copy of an Aggregator. Received always
// equals the sum of PerPeer values.
type Snapshot struct {
	Sent     uint64
	Received uint64
	PerPeer  map[string]uint64
}

// SuccessRate is the percentage of probes that drew at least a counted
// reply: received*100/sent, 0 when nothing was sent yet. Values above 100
// are possible when several peers answer the same probe; that is a
// feature of multicast, not an accounting bug.
func (s Snapshot) SuccessRate() float64 {
	if s.Sent == 0 {
		return 0
	}
	return float64(s.Received) * 100 / float64(s.Sent)
}

// PeerShare is the peer's replies as a percentage of all probes sent.
// Note this is the peer's share of sends, not a delivery probability:
// sends are multicast, so per-peer send counts do not exist.
func (s Snapshot) PeerShare(peer string) float64 {
	if s.Sent == 0 {
		return 0
	}
	return float64(s.PerPeer[peer]) * 100 / float64(s.Sent)
}

// Peers returns the discovered peer addresses in stable sorted order for
// deterministic report output.
func (s Snapshot) Peers() []string {
	peers := make([]string, 0, len(s.PerPeer))
	for peer := range s.PerPeer {
		peers = append(peers, peer)
	}
	sort.Strings(peers)
	return peers
}
