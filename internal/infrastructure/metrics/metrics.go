package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gateway"

// Scorer call outcomes
const (
	OutcomeSuccess           = "success"
	OutcomeUpstreamError     = "upstream_error"
	OutcomeMalformed         = "malformed_response"
	OutcomeTimeout           = "timeout"
	OutcomeConnectionRefused = "connection_refused"
	OutcomeCanceled          = "canceled"
	OutcomeTransportError    = "transport_error"
)

// Metrics holds the gateway's Prometheus collectors
type Metrics struct {
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ScorerRequests      *prometheus.CounterVec
	ScorerDuration      prometheus.Histogram
	ScorerRetries       prometheus.Counter
	Predictions         *prometheus.CounterVec
}

// New registers the gateway collectors with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ScorerRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scorer_requests_total",
			Help:      "Calls to the remote scorer, by outcome.",
		}, []string{"outcome"}),
		ScorerDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scorer_request_duration_seconds",
			Help:      "Latency of calls to the remote scorer.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		ScorerRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scorer_retries_total",
			Help:      "Retried calls to the remote scorer after a transport error.",
		}),
		Predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Successful classifications, by label.",
		}, []string{"label"}),
	}
}

// NewNop returns collectors registered nowhere, for tests and tools
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
