package prober

import (
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/joshuafuller/mping/internal/errors"
	"github.com/joshuafuller/mping/internal/protocol"
	"github.com/joshuafuller/mping/internal/transport"
)

// config collects the recognized prober options: group address, port,
// interval, timeout, and interface, plus the test seams.
type config struct {
	group       net.IP
	port        int
	ifIndex     int
	interval    time.Duration
	pollTimeout time.Duration
	reportEvery time.Duration
	out         io.Writer
	clk         clock.Clock
	transport   transport.Transport
}

func defaultConfig() config {
	return config{
		group:       net.ParseIP(protocol.DefaultGroup),
		port:        protocol.DefaultPort,
		interval:    protocol.DefaultIntervalMs * time.Millisecond,
		pollTimeout: protocol.DefaultTimeoutMs * time.Millisecond,
		reportEvery: protocol.DefaultReportSeconds * time.Second,
		out:         os.Stdout,
		clk:         clock.New(),
	}
}

// Option is a functional option for configuring a Prober.
type Option func(*config) error

// WithGroup sets the multicast group probes are sent to. The address must
// already be parsed; see internal/addr for the operator-facing parse.
func WithGroup(group net.IP) Option {
	return func(c *config) error {
		if group == nil {
			return &errors.ValidationError{Field: "group", Value: "<nil>", Message: "group address cannot be nil"}
		}
		c.group = group
		return nil
	}
}

// WithPort sets the destination UDP port.
func WithPort(port int) Option {
	return func(c *config) error {
		if port <= 0 || port > 65535 {
			return &errors.ValidationError{Field: "port", Value: strconv.Itoa(port), Message: "port must be in 1..65535"}
		}
		c.port = port
		return nil
	}
}

// WithInterface sets the outbound multicast interface index; zero lets
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

// WithInterval sets the probe send period.
func WithInterval(d time.Duration) Option {
	return func(c *config) error {
		if d <= 0 {
			return &errors.ValidationError{Field: "interval", Value: d.String(), Message: "interval must be greater than 0"}
		}
		c.interval = d
		return nil
	}
}

// WithTimeout sets the receive poll granularity. It bounds how quickly
// cancellation is noticed, not how long a probe has to be answered:
// replies are counted whenever they arrive.
func WithTimeout(d time.Duration) Option {
	return func(c *config) error {
		if d <= 0 {
			return &errors.ValidationError{Field: "timeout", Value: d.String(), Message: "timeout must be greater than 0"}
		}
		c.pollTimeout = d
		return nil
	}
}

// WithReportInterval sets the period of the running stats report,
// independent of the probe interval.
func WithReportInterval(d time.Duration) Option {
	return func(c *config) error {
		if d <= 0 {
			return &errors.ValidationError{Field: "report interval", Value: d.String(), Message: "report interval must be greater than 0"}
		}
		c.reportEvery = d
		return nil
	}
}

// WithOutput redirects the operator-facing report lines.
func WithOutput(w io.Writer) Option {
	return func(c *config) error {
		if w == nil {
			return &errors.ValidationError{Field: "output", Value: "<nil>", Message: "output writer cannot be nil"}
		}
		c.out = w
		return nil
	}
}

// WithClock injects the timer source. Tests use clock.NewMock to drive
// the sender and reporter deterministically.
func WithClock(clk clock.Clock) Option {
	return func(c *config) error {
		if clk == nil {
			return &errors.ValidationError{Field: "clock", Value: "<nil>", Message: "clock cannot be nil"}
		}
		c.clk = clk
		return nil
	}
}

// WithTransport injects a pre-built endpoint, bypassing the bind. Used by
// tests to run the loop against a mock.
func WithTransport(t transport.Transport) Option {
	return func(c *config) error {
		if t == nil {
			return &errors.ValidationError{Field: "transport", Value: "<nil>", Message: "transport cannot be nil"}
		}
		c.transport = t
		return nil
	}
}
