package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("registers all collectors", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m := New(reg)

		m.HTTPRequests.WithLabelValues("POST", "/predict", "200").Inc()
		m.HTTPRequestDuration.WithLabelValues("POST", "/predict").Observe(0.1)
		m.ScorerRequests.WithLabelValues(OutcomeSuccess).Inc()
		m.ScorerDuration.Observe(0.05)
		m.ScorerRetries.Inc()
		m.Predictions.WithLabelValues("positive").Inc()

		families, err := reg.Gather()
		require.NoError(t, err)

		names := make([]string, 0, len(families))
		for _, f := range families {
			names = append(names, f.GetName())
		}
		assert.ElementsMatch(t, []string{
			"gateway_http_requests_total",
			"gateway_http_request_duration_seconds",
			"gateway_scorer_requests_total",
			"gateway_scorer_request_duration_seconds",
			"gateway_scorer_retries_total",
			"gateway_predictions_total",
		}, names)
	})

	t.Run("registering twice on one registry panics", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		New(reg)

		assert.Panics(t, func() { New(reg) })
	})

	t.Run("nop metrics are independent", func(t *testing.T) {
		a := NewNop()
		b := NewNop()

		a.Predictions.WithLabelValues("positive").Inc()

		assert.Equal(t, 1.0, testutil.ToFloat64(a.Predictions.WithLabelValues("positive")))
		assert.Equal(t, 0.0, testutil.ToFloat64(b.Predictions.WithLabelValues("positive")))
	})
}
