// Package prober implements the client role: multicast probes on a fixed
// period, count the unicast replies they draw, and report the running
// success rate.
//
// Three activities progress independently and never wait on each other
// except at shutdown:
//
//   - the sender emits one probe per interval tick,
//   - the receiver polls the endpoint and attributes every datagram it
//     hears to the replying peer,
//   - the reporter periodically prints a counter snapshot.
//
// Correlation is purely statistical: a reply is never matched to the
// probe that provoked it, and several peers answering one probe is
// expected multicast behavior. Cancellation stops the sender and prints a
// final summary from a snapshot copy; the receiver and reporter are
// signaled and abandoned without drain, which is safe because UDP holds
// no connection state and reporters only ever read copies.
package prober

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/projectdiscovery/gologger"

	"github.com/joshuafuller/mping/internal/errors"
	"github.com/joshuafuller/mping/internal/protocol"
	"github.com/joshuafuller/mping/internal/stats"
	"github.com/joshuafuller/mping/internal/transport"
)

// Prober owns one ephemeral-port endpoint and the shared counter set its
// three activities mutate.
type Prober struct {
	transport   transport.Transport
	dest        net.Addr
	interval    time.Duration
	pollTimeout time.Duration
	reportEvery time.Duration
	clk         clock.Clock
	agg         *stats.Aggregator
	out         io.Writer
}

// New creates a prober. Without WithTransport it binds a wildcard socket
// on an ephemeral port, selecting the configured outbound interface for
// multicast sends; a bind failure is fatal to the role.
func New(opts ...Option) (*Prober, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	t := cfg.transport
	if t == nil {
		var err error
		t, err = transport.NewProberTransport(cfg.ifIndex)
		if err != nil {
			return nil, err
		}
	}

	return &Prober{
		transport:   t,
		dest:        &net.UDPAddr{IP: cfg.group, Port: cfg.port},
		interval:    cfg.interval,
		pollTimeout: cfg.pollTimeout,
		reportEvery: cfg.reportEvery,
		clk:         cfg.clk,
		agg:         stats.NewAggregator(),
		out:         cfg.out,
	}, nil
}

// Run drives the sender loop until ctx is canceled, with the receiver and
// reporter on their own goroutines. It always prints a final summary
// before returning.
func (p *Prober) Run(ctx context.Context) error {
	gologger.Info().Msgf("probing %s every %s from %s", p.dest, p.interval, p.transport.LocalAddr())

	go p.receiveLoop(ctx)
	go p.reportLoop(ctx)

	ticker := p.clk.Ticker(p.interval)
	defer ticker.Stop()

	var seq uint64
	for {
		seq++
		payload := protocol.Probe(seq)
		if err := p.transport.Send(payload, p.dest); err != nil {
			// A lost probe is tolerated; it simply does not count as sent.
			gologger.Warning().Msgf("failed to send probe %d: %v", seq, err)
		} else {
			p.agg.RecordSent()
		}

		select {
		case <-ctx.Done():
			p.report(true)
			return nil
		case <-ticker.C:
		}
	}
}

// receiveLoop polls the endpoint and counts every datagram it hears,
// keyed by the source address. No parsing, no per-probe matching.
func (p *Prober) receiveLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		payload, src, err := p.transport.Receive(p.pollTimeout)
		if err != nil {
			if stderrors.Is(err, net.ErrClosed) {
				return
			}
			if errors.IsTimeout(err) || ctx.Err() != nil {
				continue
			}
			gologger.Debug().Msgf("receive failed: %v", err)
			continue
		}

		p.agg.RecordReceived(src.String())
		gologger.Debug().Msgf("received %d bytes from %s: %s", len(payload), src, payload)
	}
}

// reportLoop prints a running snapshot on its own fixed period,
// independent of the probe interval.
func (p *Prober) reportLoop(ctx context.Context) {
	ticker := p.clk.Ticker(p.reportEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.report(false)
		}
	}
}

// report prints one snapshot. Only the copy is read, so in-flight
// increments may legitimately be missing from a final report.
func (p *Prober) report(final bool) {
	s := p.agg.Snapshot()
	prefix := ""
	if final {
		prefix = "FINAL: "
	}
	fmt.Fprintf(p.out, "%ssent=%d recv=%d success=%.2f%%\n", prefix, s.Sent, s.Received, s.SuccessRate())
	for _, peer := range s.Peers() {
		fmt.Fprintf(p.out, "  peer %s: %d replies (%.2f%% of probes)\n", peer, s.PerPeer[peer], s.PeerShare(peer))
	}
}

// Stats returns a snapshot of the counters.
func (p *Prober) Stats() stats.Snapshot {
	return p.agg.Snapshot()
}

// Close releases the endpoint.
func (p *Prober) Close() error {
	return p.transport.Close()
}
