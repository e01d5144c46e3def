package transport

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"syscall"
	"time"

	"golang.org/x/net/ipv6"

	"github.com/joshuafuller/mping/internal/errors"
	"github.com/joshuafuller/mping/internal/protocol"
)

// readBufferSize is the kernel receive buffer requested at bind time,
// sized so a burst of replies from many peers survives a slow reporter
// tick without drops.
const readBufferSize = 65536

// bufPool recycles receive buffers; Receive returns copies to callers so
// pooled buffers never escape.
var bufPool = sync.Pool{
	New: func() any {
		buf := make([]byte, protocol.MaxDatagramSize)
		return &buf
	},
}

// UDPv6Transport implements Transport on one IPv6 UDP socket.
//
// The same socket both sends and receives: the responder receives
// multicast probes and unicasts replies, the prober multicasts probes and
// receives unicast replies. The socket is created once at startup and
// lives for the process; UDP is connectionless so there is nothing to
// reconnect.
type UDPv6Transport struct {
	conn  net.PacketConn   // bound UDP socket, owned exclusively
	pconn *ipv6.PacketConn // wrapper for multicast group/interface control
}

// NewResponderTransport binds a wildcard socket on port and joins group on
// the interface with index ifIndex (zero lets the OS choose).
//
// Address and port reuse is enabled through the platform socket options so
// multiple responders can coexist on the same multicast port. Multicast
// loopback is enabled best-effort so a co-located prober can be answered.
// Bind or join failure is immediate and fatal to the responder role.
func NewResponderTransport(port int, group net.IP, ifIndex int) (*UDPv6Transport, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var optErr error
			if err := c.Control(func(fd uintptr) {
				optErr = setSocketOptions(fd)
			}); err != nil {
				return err
			}
			return optErr
		},
	}

	listenAddr := net.JoinHostPort("::", strconv.Itoa(port))
	conn, err := lc.ListenPacket(context.Background(), "udp6", listenAddr)
	if err != nil {
		return nil, &errors.NetworkError{
			Operation: "bind socket",
			Err:       err,
			Details:   fmt.Sprintf("failed to bind to %s", listenAddr),
		}
	}

	t, err := wrap(conn)
	if err != nil {
		return nil, err
	}

	var iface *net.Interface
	if ifIndex > 0 {
		iface = &net.Interface{Index: ifIndex}
	}
	if err := t.pconn.JoinGroup(iface, &net.UDPAddr{IP: group}); err != nil {
		_ = conn.Close()
		return nil, &errors.NetworkError{
			Operation: "join group",
			Err:       err,
			Details:   fmt.Sprintf("group %s on interface index %d", group, ifIndex),
		}
	}

	// Best effort: lets a prober on the same host hear itself answered.
	_ = t.pconn.SetMulticastLoopback(true)

	return t, nil
}

// NewProberTransport binds a wildcard socket on an ephemeral port for
// sending probes and receiving unicast replies. A non-zero ifIndex selects
// the outbound multicast interface so probes leave via the intended link.
func NewProberTransport(ifIndex int) (*UDPv6Transport, error) {
	conn, err := net.ListenPacket("udp6", "[::]:0")
	if err != nil {
		return nil, &errors.NetworkError{
			Operation: "bind socket",
			Err:       err,
			Details:   "failed to bind ephemeral IPv6 socket",
		}
	}

	t, err := wrap(conn)
	if err != nil {
		return nil, err
	}

	if ifIndex > 0 {
		if err := t.pconn.SetMulticastInterface(&net.Interface{Index: ifIndex}); err != nil {
			_ = conn.Close()
			return nil, &errors.NetworkError{
				Operation: "select outbound interface",
				Err:       err,
				Details:   fmt.Sprintf("interface index %d", ifIndex),
			}
		}
	}

	// Best effort: a responder on the same host should hear our probes.
	_ = t.pconn.SetMulticastLoopback(true)

	return t, nil
}

// wrap configures the kernel buffer and the ipv6 control wrapper.
func wrap(conn net.PacketConn) (*UDPv6Transport, error) {
	if udp, ok := conn.(*net.UDPConn); ok {
		if err := udp.SetReadBuffer(readBufferSize); err != nil {
			_ = conn.Close()
			return nil, &errors.NetworkError{
				Operation: "configure socket",
				Err:       err,
				Details:   "failed to set read buffer size",
			}
		}
	}
	return &UDPv6Transport{
		conn:  conn,
		pconn: ipv6.NewPacketConn(conn),
	}, nil
}

// Send transmits payload to dest. Partial writes are reported as errors;
// for UDP they indicate a payload larger than the path allows.
func (t *UDPv6Transport) Send(payload []byte, dest net.Addr) error {
	n, err := t.conn.WriteTo(payload, dest)
	if err != nil {
		return &errors.NetworkError{
			Operation: "send",
			Err:       err,
			Details:   fmt.Sprintf("failed to send %d bytes to %s", len(payload), dest),
		}
	}
	if n != len(payload) {
		return &errors.NetworkError{
			Operation: "send",
			Details:   fmt.Sprintf("partial write: %d/%d bytes to %s", n, len(payload), dest),
		}
	}
	return nil
}

// Receive waits up to timeout for one datagram. Zero timeout blocks until
// a datagram arrives. The returned payload is a copy owned by the caller.
func (t *UDPv6Transport) Receive(timeout time.Duration) ([]byte, net.Addr, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		return nil, nil, &errors.NetworkError{
			Operation: "set read timeout",
			Err:       err,
			Details:   fmt.Sprintf("failed to set deadline %v", deadline),
		}
	}

	bufPtr := bufPool.Get().(*[]byte)
	defer bufPool.Put(bufPtr)
	buf := *bufPtr

	n, src, err := t.conn.ReadFrom(buf)
	if err != nil {
		if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
			return nil, nil, &errors.NetworkError{
				Operation: "receive",
				Err:       err,
				Details:   "timeout",
			}
		}
		return nil, nil, &errors.NetworkError{
			Operation: "receive",
			Err:       err,
			Details:   "failed to read from socket",
		}
	}

	payload := make([]byte, n)
	copy(payload, buf[:n])
	return payload, src, nil
}

// LocalAddr returns the bound local address.
func (t *UDPv6Transport) LocalAddr() net.Addr {
	return t.conn.LocalAddr()
}

// Close releases the socket. The kernel drops multicast memberships with
// the socket, so no explicit group leave is needed.
func (t *UDPv6Transport) Close() error {
	if t.conn == nil {
		return nil
	}
	if err := t.conn.Close(); err != nil {
		return &errors.NetworkError{
			Operation: "close socket",
			Err:       err,
			Details:   "failed to close UDP connection",
		}
	}
	return nil
}
