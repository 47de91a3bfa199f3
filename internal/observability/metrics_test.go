package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRegistered(t *testing.T) {
	TurnsTotal.WithLabelValues("greeting").Inc()
	EscalationsTotal.Inc()
	TurnDuration.Observe(0.2)
	RateLimitRejectedTotal.Inc()
	ChannelErrorsTotal.WithLabelValues("whatsapp").Inc()
	ActiveSockets.Set(0)

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("unexpected gather error: %v", err)
	}

	expected := map[string]bool{
		"assistant_turns_total":                  false,
		"assistant_escalations_total":            false,
		"assistant_turn_duration_seconds":        false,
		"assistant_ratelimit_rejected_total":     false,
		"assistant_channel_errors_total":         false,
		"assistant_websocket_connections_active": false,
	}
	for _, mf := range families {
		if _, ok := expected[mf.GetName()]; ok {
			expected[mf.GetName()] = true
		}
	}
	for name, found := range expected {
		if !found {
			t.Errorf("metric %q not registered", name)
		}
	}
}

func TestTurnsTotalByStep(t *testing.T) {
	before := testutil.ToFloat64(TurnsTotal.WithLabelValues("completion"))
	TurnsTotal.WithLabelValues("completion").Inc()
	if got := testutil.ToFloat64(TurnsTotal.WithLabelValues("completion")); got != before+1 {
		t.Errorf("turns_total{completion} = %v, want %v", got, before+1)
	}
}
