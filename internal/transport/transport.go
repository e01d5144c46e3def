// Package transport provides the bound UDP endpoint abstraction shared by
// the prober and responder roles.
//
// The hard requirement it encapsulates: one socket must receive multicast
// probes (responder) or unicast replies (prober) while concurrently being
// used to send. Send and Receive are disjoint operations and the
// underlying net.PacketConn is safe for concurrent use, so a transport
// may be shared between a sending goroutine and a receiving goroutine
// without additional locking.
package transport

import (
	"net"
	"time"
)

// Transport abstracts datagram operations so role loops can run against
// the real IPv6 multicast socket or a test double.
type Transport interface {
	// Send transmits payload to dest, best effort. Errors are
	// NetworkErrors and never fatal to a role loop.
	Send(payload []byte, dest net.Addr) error

	// Receive waits up to timeout for one datagram and returns its
	// payload and source address. A timeout of zero blocks indefinitely.
	// Expired waits return a NetworkError classified by errors.IsTimeout;
	// that outcome is frequent and expected, not a failure.
	Receive(timeout time.Duration) (payload []byte, src net.Addr, err error)

	// LocalAddr returns the bound local address.
	LocalAddr() net.Addr

	// Close releases the socket. Errors are propagated, not swallowed.
	Close() error
}
