package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/SantiagoDeStefano/ml-ops/internal/domain/entity"
	"github.com/SantiagoDeStefano/ml-ops/internal/domain/service"
	"github.com/SantiagoDeStefano/ml-ops/internal/infrastructure/config"
	"github.com/SantiagoDeStefano/ml-ops/internal/infrastructure/metrics"
)

const tracerName = "github.com/SantiagoDeStefano/ml-ops/internal/adapter/client"

// maxResponseBytes caps how much of a scorer response is read
const maxResponseBytes = 10 << 20

// PredictRequest is the request body of the scorer's predict endpoint
type PredictRequest struct {
	InputIDs [][]int `json:"input_ids"`
}

// PredictResponse is the response body of the scorer's predict endpoint
type PredictResponse struct {
	Logits [][]float64 `json:"logits"`
}

// ScorerClient is an HTTP client for the remote model server
type ScorerClient struct {
	url          string
	healthURL    string
	maxRetries   int
	retryBackoff time.Duration
	httpClient   *http.Client
	tracer       trace.Tracer
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

// Option configures a ScorerClient
type Option func(*scorerOptions)

type scorerOptions struct {
	tracerProvider trace.TracerProvider
	metrics        *metrics.Metrics
	logger         *zap.Logger
	transport      http.RoundTripper
}

// WithTracerProvider sets the provider for the client's spans
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *scorerOptions) { o.tracerProvider = tp }
}

// WithMetrics sets the collectors the client reports to
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *scorerOptions) { o.metrics = m }
}

// WithLogger sets the client's logger
func WithLogger(l *zap.Logger) Option {
	return func(o *scorerOptions) { o.logger = l }
}

// WithTransport replaces the base round tripper
func WithTransport(rt http.RoundTripper) Option {
	return func(o *scorerOptions) { o.transport = rt }
}

// NewScorerClient creates a new scorer client
func NewScorerClient(cfg *config.ScorerConfig, opts ...Option) *ScorerClient {
	o := scorerOptions{
		tracerProvider: otel.GetTracerProvider(),
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = metrics.NewNop()
	}
	if o.transport == nil {
		o.transport = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        cfg.MaxIdleConns,
			MaxIdleConnsPerHost: cfg.MaxIdleConns,
			IdleConnTimeout:     90 * time.Second,
		}
	}

	return &ScorerClient{
		url:          cfg.URL,
		healthURL:    cfg.HealthURL,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(o.transport, otelhttp.WithTracerProvider(o.tracerProvider)),
		},
		tracer:  o.tracerProvider.Tracer(tracerName),
		metrics: o.metrics,
		logger:  o.logger,
	}
}

// Score sends payload to the scorer and returns the logits of its single row
func (c *ScorerClient) Score(ctx context.Context, payload entity.ScorePayload) (entity.LogitVector, error) {
	ctx, span := c.tracer.Start(ctx, "scorer.score",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("scorer.endpoint", c.url)),
	)
	defer span.End()

	var (
		logits entity.LogitVector
		err    error
	)
	if c.maxRetries > 0 {
		logits, err = c.scoreWithRetry(ctx, payload)
	} else {
		logits, err = c.predict(ctx, payload)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("scorer.classes", len(logits)))
	return logits, nil
}

func (c *ScorerClient) predict(ctx context.Context, payload entity.ScorePayload) (entity.LogitVector, error) {
	span := trace.SpanFromContext(ctx)
	start := time.Now()

	body, err := json.Marshal(PredictRequest{InputIDs: payload.InputIDs})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		tErr := &service.TransportError{Endpoint: c.url, Err: err}
		c.observe(span, transportOutcome(tErr), start)
		return nil, tErr
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		tErr := &service.TransportError{Endpoint: c.url, Err: fmt.Errorf("failed to read response: %w", err)}
		c.observe(span, transportOutcome(tErr), start)
		return nil, tErr
	}
	if len(respBody) > maxResponseBytes {
		c.observe(span, metrics.OutcomeMalformed, start)
		return nil, &service.UpstreamError{
			StatusCode: resp.StatusCode,
			Malformed:  true,
			Reason:     fmt.Sprintf("response body exceeds %d bytes", maxResponseBytes),
		}
	}

	if resp.StatusCode != http.StatusOK {
		c.observe(span, metrics.OutcomeUpstreamError, start)
		return nil, &service.UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	logits, err := parseLogits(respBody)
	if err != nil {
		c.observe(span, metrics.OutcomeMalformed, start)
		return nil, &service.UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
			Malformed:  true,
			Reason:     err.Error(),
		}
	}

	c.observe(span, metrics.OutcomeSuccess, start)
	return logits, nil
}

// parseLogits checks the response holds exactly one finite, non-empty row
func parseLogits(body []byte) (entity.LogitVector, error) {
	var resp PredictResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if resp.Logits == nil {
		return nil, errors.New("missing logits field")
	}
	if len(resp.Logits) != 1 {
		return nil, fmt.Errorf("expected 1 row of logits, got %d", len(resp.Logits))
	}

	logits := entity.LogitVector(resp.Logits[0])
	if err := logits.Validate(); err != nil {
		return nil, err
	}
	return logits, nil
}

func (c *ScorerClient) observe(span trace.Span, outcome string, start time.Time) {
	c.metrics.ScorerRequests.WithLabelValues(outcome).Inc()
	c.metrics.ScorerDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.String("scorer.outcome", outcome))
}

func transportOutcome(err *service.TransportError) string {
	switch {
	case err.Timeout():
		return metrics.OutcomeTimeout
	case errors.Is(err, context.Canceled):
		return metrics.OutcomeCanceled
	case errors.Is(err, syscall.ECONNREFUSED):
		return metrics.OutcomeConnectionRefused
	default:
		return metrics.OutcomeTransportError
	}
}

// Ready checks that the scorer answers its health endpoint
func (c *ScorerClient) Ready(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.healthURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &service.TransportError{Endpoint: c.healthURL, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("scorer not ready: status %d", resp.StatusCode)
	}
	return nil
}
