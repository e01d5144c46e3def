package responder

import (
	"net"
	"strconv"
	"time"

	"github.com/joshuafuller/mping/internal/errors"
	"github.com/joshuafuller/mping/internal/protocol"
	"github.com/joshuafuller/mping/internal/transport"
)

// config collects the recognized responder options before the endpoint is
// bound.
type config struct {
	group       net.IP
	port        int
	ifIndex     int
	workers     int
	queueSize   int
	pollTimeout time.Duration
	transport   transport.Transport
}

func defaultConfig() config {
	return config{
		group:       net.ParseIP(protocol.DefaultGroup),
		port:        protocol.DefaultPort,
		workers:     4,
		queueSize:   128,
		pollTimeout: protocol.DefaultTimeoutMs * time.Millisecond,
	}
}

// Option is a functional option for configuring a Responder.
type Option func(*config) error

// WithGroup sets the multicast group to join. The address must already be
// parsed; see internal/addr for the operator-facing parse.
func WithGroup(group net.IP) Option {
	return func(c *config) error {
		if group == nil {
			return &errors.ValidationError{Field: "group", Value: "<nil>", Message: "group address cannot be nil"}
		}
		c.group = group
		return nil
	}
}

// WithPort sets the UDP port to bind and answer on.
func WithPort(port int) Option {
	return func(c *config) error {
		if port < 0 || port > 65535 {
			return &errors.ValidationError{Field: "port", Value: strconv.Itoa(port), Message: "port must be in 0..65535"}
		}
		c.port = port
		return nil
	}
}

// WithInterface sets the interface index for the group join; zero lets
// the OS choose.
func WithInterface(ifIndex int) Option {
	return func(c *config) error {
		if ifIndex < 0 {
			return &errors.ValidationError{Field: "interface", Value: strconv.Itoa(ifIndex), Message: "interface index cannot be negative"}
		}
		c.ifIndex = ifIndex
		return nil
	}
}

// WithWorkers sets the reply dispatch pool size.
func WithWorkers(n int) Option {
	return func(c *config) error {
		if n <= 0 {
			return &errors.ValidationError{Field: "workers", Value: strconv.Itoa(n), Message: "worker count must be greater than 0"}
		}
		c.workers = n
		return nil
	}
}

// WithQueueSize bounds the pending-reply queue. Replies beyond the bound
// are dropped so intake never blocks.
func WithQueueSize(n int) Option {
	return func(c *config) error {
		if n <= 0 {
			return &errors.ValidationError{Field: "queue size", Value: strconv.Itoa(n), Message: "queue size must be greater than 0"}
		}
		c.queueSize = n
		return nil
	}
}

// WithPollTimeout sets the receive poll granularity, which bounds how
// long cancellation can go unnoticed.
func WithPollTimeout(d time.Duration) Option {
	return func(c *config) error {
		if d <= 0 {
			return &errors.ValidationError{Field: "poll timeout", Value: d.String(), Message: "poll timeout must be greater than 0"}
		}
		c.pollTimeout = d
		return nil
	}
}

// WithTransport injects a pre-built endpoint, bypassing bind and join.
// Used by tests to run the loop against a mock.
func WithTransport(t transport.Transport) Option {
	return func(c *config) error {
		if t == nil {
			return &errors.ValidationError{Field: "transport", Value: "<nil>", Message: "transport cannot be nil"}
		}
		c.transport = t
		return nil
	}
}
