// Package responder implements the server role: join an IPv6 multicast
// group and unicast an acknowledgment to every sender heard.
//
// The loop is a two-state machine, Listening -> Replying -> Listening,
// with no terminal state short of process termination or a fatal bind
// error. Reply dispatch runs on a bounded worker pool so a slow or
// unreachable peer never gates intake of the next probe: the responder
// can receive probe N+1 before the reply to probe N has left. When the
// pool is saturated the reply is dropped with a warning rather than
// blocking the receive loop; a lost reply costs one count on the prober
// side, which the statistical protocol tolerates.
package responder

import (
	"context"
	stderrors "errors"
	"net"
	"sync"
	"time"

	"github.com/projectdiscovery/gologger"

	"github.com/joshuafuller/mping/internal/errors"
	"github.com/joshuafuller/mping/internal/protocol"
	"github.com/joshuafuller/mping/internal/stats"
	"github.com/joshuafuller/mping/internal/transport"
)

// replyJob is one pending acknowledgment: the probe bytes to echo and the
// exact source to unicast them to.
type replyJob struct {
	payload []byte
	src     net.Addr
}

// Responder owns one multicast-joined endpoint and answers every datagram
// it hears.
type Responder struct {
	transport   transport.Transport
	agg         *stats.Aggregator
	pollTimeout time.Duration
	workers     int
	jobs        chan replyJob

	closeOnce sync.Once
	closeErr  error
}

// New creates a responder. Without WithTransport it binds a wildcard
// socket on the configured port, enables address/port reuse, and joins
// the configured group on the configured interface; any failure there is
// fatal to the role and returned immediately.
func New(opts ...Option) (*Responder, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	t := cfg.transport
	if t == nil {
		var err error
		t, err = transport.NewResponderTransport(cfg.port, cfg.group, cfg.ifIndex)
		if err != nil {
			return nil, err
		}
	}

	return &Responder{
		transport:   t,
		agg:         stats.NewAggregator(),
		pollTimeout: cfg.pollTimeout,
		workers:     cfg.workers,
		jobs:        make(chan replyJob, cfg.queueSize),
	}, nil
}

// Run receives probes and dispatches replies until ctx is canceled.
//
// Receive failures that are not timeouts are logged and the loop
// continues; one bad packet must not halt service. Replies always target
// the observed source address, never the group.
func (r *Responder) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(r.workers)
	for i := 0; i < r.workers; i++ {
		go r.replyWorker(&wg)
	}
	defer func() {
		close(r.jobs)
		wg.Wait()
	}()

	gologger.Info().Msgf("responder listening on %s", r.transport.LocalAddr())

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		payload, src, err := r.transport.Receive(r.pollTimeout)
		if err != nil {
			if errors.IsTimeout(err) {
				continue
			}
			if ctx.Err() != nil || stderrors.Is(err, net.ErrClosed) {
				return nil
			}
			gologger.Warning().Msgf("receive failed: %v", err)
			continue
		}

		r.agg.RecordReceived(src.String())
		if seq, ok := protocol.ProbeSeq(payload); ok {
			gologger.Debug().Msgf("received probe %d (%d bytes) from %s", seq, len(payload), src)
		} else {
			gologger.Debug().Msgf("received %d bytes from %s", len(payload), src)
		}

		select {
		case r.jobs <- replyJob{payload: payload, src: src}:
		default:
			gologger.Warning().Msgf("reply queue full, dropping reply to %s", src)
		}
	}
}

// replyWorker drains the job queue, echoing each probe behind the ACK
// prefix to its sender. Send failures are logged and the worker moves on.
func (r *Responder) replyWorker(wg *sync.WaitGroup) {
	defer wg.Done()
	for job := range r.jobs {
		if err := r.transport.Send(protocol.Ack(job.payload), job.src); err != nil {
			gologger.Warning().Msgf("failed to send reply to %s: %v", job.src, err)
			continue
		}
		r.agg.RecordSent()
	}
}

// Stats returns a snapshot of the counters: Received is probes heard
// (per-peer keyed by prober address), Sent is replies delivered.
func (r *Responder) Stats() stats.Snapshot {
	return r.agg.Snapshot()
}

// Close releases the endpoint. Idempotent.
func (r *Responder) Close() error {
	r.closeOnce.Do(func() {
		r.closeErr = r.transport.Close()
	})
	return r.closeErr
}
