// Package observability provides the Prometheus metrics of the assistant.
package observability

import "github.com/prometheus/client_golang/prometheus"

// TurnBuckets covers the typing delay plus storage time.
var TurnBuckets = []float64{0.05, 0.1, 0.5, 1, 1.5, 2, 3, 5, 10}

var (
	// TurnsTotal counts completed turns by the step they led to.
	TurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_turns_total",
			Help: "Completed dialogue turns",
		},
		[]string{"step"},
	)

	// EscalationsTotal counts turns that handed the conversation to a human.
	EscalationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "assistant_escalations_total",
			Help: "Turns escalated to a live agent",
		},
	)

	// TurnDuration records the time from receiving an utterance to recording
	// the reply, typing delay included.
	TurnDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assistant_turn_duration_seconds",
			Help:    "Turn duration",
			Buckets: TurnBuckets,
		},
	)

	// RateLimitRejectedTotal counts messages rejected by the per-conversation limiter.
	RateLimitRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "assistant_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
	)

	// ChannelErrorsTotal counts delivery or input failures per channel.
	ChannelErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_channel_errors_total",
			Help: "Channel errors",
		},
		[]string{"channel"},
	)

	// ActiveSockets tracks open WebSocket chat connections.
	ActiveSockets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "assistant_websocket_connections_active",
			Help: "Active WebSocket connections",
		},
	)
)

func init() {
	prometheus.MustRegister(
		TurnsTotal,
		EscalationsTotal,
		TurnDuration,
		RateLimitRejectedTotal,
		ChannelErrorsTotal,
		ActiveSockets,
	)
}
