// Package tarmetrics exposes the optional Prometheus counters a Streamer
// updates as it runs: how many entries were queued and streamed, and how
// many payload bytes were emitted. Registering the default registry's
// handler is left to the embedding program, the way rclone's accounting
// package publishes counters without owning an HTTP server.
package tarmetrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// EntriesQueued counts Append*/appendSpecial calls.
	EntriesQueued = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tarstream",
		Name:      "entries_queued_total",
		Help:      "Number of entries queued onto a Streamer.",
	})

	// EntriesStreamed counts entries whose header, payload and padding
	// have been fully drained by Read.
	EntriesStreamed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tarstream",
		Name:      "entries_streamed_total",
		Help:      "Number of entries fully drained from a Streamer.",
	})

	// BytesStreamed counts payload bytes copied out of Read, excluding
	// header and padding bytes.
	BytesStreamed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tarstream",
		Name:      "payload_bytes_streamed_total",
		Help:      "Payload bytes copied out by Streamer.Read.",
	})
)

func init() {
	prometheus.MustRegister(EntriesQueued, EntriesStreamed, BytesStreamed)
}
