package transport

import (
	"net"
	"sync"
	"time"

	"github.com/joshuafuller/mping/internal/errors"
)

// SendRecord captures one Send call on a MockTransport.
type SendRecord struct {
	Payload []byte
	Dest    net.Addr
}

// datagram is one queued inbound packet.
type datagram struct {
	payload []byte
	src     net.Addr
}

// MockTransport is a Transport test double. Tests deliver inbound
// datagrams with Deliver and inspect outbound traffic with SendCalls; an
// optional send hook lets a test emulate a remote peer synchronously.
type MockTransport struct {
	mu       sync.Mutex
	sends    []SendRecord
	sendErr  error
	sendHook func(payload []byte, dest net.Addr)
	closed   bool

	inbox chan datagram
	done  chan struct{}
	local net.Addr
}

// NewMockTransport returns a mock with a generously buffered inbox.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		inbox: make(chan datagram, 256),
		done:  make(chan struct{}),
		local: &net.UDPAddr{IP: net.IPv6loopback, Port: 54321},
	}
}

// Deliver queues an inbound datagram as if it arrived from src.
func (m *MockTransport) Deliver(payload []byte, src net.Addr) {
	p := make([]byte, len(payload))
	copy(p, payload)
	m.inbox <- datagram{payload: p, src: src}
}

// SetSendError makes subsequent Send calls fail with err (nil restores
// success). The failed calls are still recorded.
func (m *MockTransport) SetSendError(err error) {
	m.mu.Lock()
	m.sendErr = err
	m.mu.Unlock()
}

// SetSendHook installs a function invoked synchronously on every
// successful Send, typically to echo a reply into the inbox.
func (m *MockTransport) SetSendHook(hook func(payload []byte, dest net.Addr)) {
	m.mu.Lock()
	m.sendHook = hook
	m.mu.Unlock()
}

// SendCalls returns a copy of all recorded Send calls.
func (m *MockTransport) SendCalls() []SendRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SendRecord, len(m.sends))
	copy(out, m.sends)
	return out
}

// Send records the call and runs the send hook.
func (m *MockTransport) Send(payload []byte, dest net.Addr) error {
	m.mu.Lock()
	p := make([]byte, len(payload))
	copy(p, payload)
	m.sends = append(m.sends, SendRecord{Payload: p, Dest: dest})
	err := m.sendErr
	hook := m.sendHook
	m.mu.Unlock()

	if err != nil {
		return &errors.NetworkError{Operation: "send", Err: err, Details: "mock send failure"}
	}
	if hook != nil {
		hook(p, dest)
	}
	return nil
}

// Receive returns the next queued datagram, honoring the timeout contract
// of the real transport.
func (m *MockTransport) Receive(timeout time.Duration) ([]byte, net.Addr, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case d := <-m.inbox:
		return d.payload, d.src, nil
	case <-expired:
		return nil, nil, &errors.NetworkError{
			Operation: "receive",
			Err:       &timeoutError{},
			Details:   "timeout",
		}
	case <-m.done:
		return nil, nil, &errors.NetworkError{
			Operation: "receive",
			Err:       net.ErrClosed,
			Details:   "transport closed",
		}
	}
}

// LocalAddr returns a fixed loopback address.
func (m *MockTransport) LocalAddr() net.Addr {
	return m.local
}

// Close unblocks pending receives. Idempotent.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

// timeoutError satisfies net.Error so mock timeouts classify exactly like
// kernel read deadline expiries.
type timeoutError struct{}

func (*timeoutError) Error() string   { return "i/o timeout" }
func (*timeoutError) Timeout() bool   { return true }
func (*timeoutError) Temporary() bool { return true }
