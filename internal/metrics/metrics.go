// Package metrics holds the Prometheus collectors updated by the capture
// pipeline. They are registered with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "alohacast"

var (
	FramesEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_emitted_total",
		Help:      "Converted frames handed to the consumer, by capture mode.",
	}, []string{"mode"})

	PacketsRead = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "packets_read_total",
		Help:      "Compressed packets read from the demuxer.",
	})

	BytesRead = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transport_bytes_read_total",
		Help:      "Bytes pulled from the device transport.",
	})

	Reconnects = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transport_reconnects_total",
		Help:      "Transport reconnect attempts, by outcome.",
	}, []string{"result"})

	Sessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_total",
		Help:      "Finished capture sessions, by result.",
	}, []string{"result"})

	DecodeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "decode_errors_total",
		Help:      "Hard demuxer or decoder errors that ended a session.",
	})

	Streaming = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "session_active",
		Help:      "1 while a capture session is live.",
	})
)

// Result labels a finished session or reconnect attempt.
func Result(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}
