// Package protocol holds the wire conventions and operational defaults
// shared by the prober and responder roles.
//
// The wire format is deliberately schemaless: probes are "PING <seq>"
// text, replies are the probe echoed back behind an "ACK:" prefix, and a
// receiver counts any datagram it hears without interpreting the bytes.
// Payload contents exist for humans reading logs, not for correlation.
package protocol

import (
	"bytes"
	"strconv"
)

// Defaults recognized by both roles. The group address is any-source
// multicast (ff00::/8 with the transient flag set) so no rendezvous point
// configuration is needed.
const (
	// DefaultGroup is the IPv6 multicast group both roles use unless
	// overridden.
	DefaultGroup = "ff12:c909:3199:e8ba:6f6f:7d23:e6ae:d85d"

	// DefaultPort is the UDP port the responder binds and the prober
	// targets.
	DefaultPort = 3000

	// MaxDatagramSize bounds receive buffers. Probes and replies are far
	// smaller; anything larger than an unfragmented Ethernet payload is
	// not ours.
	MaxDatagramSize = 1500
)

// Default timings for the prober loop.
const (
	// DefaultIntervalMs is the probe send period in milliseconds.
	DefaultIntervalMs = 1000

	// DefaultTimeoutMs is the receive poll granularity in milliseconds.
	// It bounds how long cancellation can go unnoticed, not how long a
	// probe has to be answered.
	DefaultTimeoutMs = 500

	// DefaultReportSeconds is the period of the running stats report.
	DefaultReportSeconds = 5
)

var (
	probePrefix = []byte("PING ")
	ackPrefix   = []byte("ACK:")
)

// Probe builds the payload for probe number seq.
func Probe(seq uint64) []byte {
	buf := make([]byte, 0, len(probePrefix)+20)
	buf = append(buf, probePrefix...)
	return strconv.AppendUint(buf, seq, 10)
}

// Ack builds the reply payload for a received probe: the original bytes
// behind an "ACK:" prefix. The input is echoed verbatim whether or not it
// looks like a probe.
func Ack(payload []byte) []byte {
	out := make([]byte, 0, len(ackPrefix)+len(payload))
	out = append(out, ackPrefix...)
	return append(out, payload...)
}

// ProbeSeq extracts the sequence number from a probe payload.
// Best-effort only; the second return is false for anything that does not
// look like a probe. Used for log readability, never for correlation.
func ProbeSeq(payload []byte) (uint64, bool) {
	if !bytes.HasPrefix(payload, probePrefix) {
		return 0, false
	}
	seq, err := strconv.ParseUint(string(payload[len(probePrefix):]), 10, 64)
	if err != nil {
		return 0, false
	}
	return seq, true
}

// IsAck reports whether a payload carries the reply prefix. Informational
// only: receivers count every datagram regardless of shape.
func IsAck(payload []byte) bool {
	return bytes.HasPrefix(payload, ackPrefix)
}
