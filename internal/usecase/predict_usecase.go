package usecase

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/SantiagoDeStefano/ml-ops/internal/domain/decision"
	"github.com/SantiagoDeStefano/ml-ops/internal/domain/entity"
	"github.com/SantiagoDeStefano/ml-ops/internal/domain/service"
	"github.com/SantiagoDeStefano/ml-ops/internal/infrastructure/logger"
	"github.com/SantiagoDeStefano/ml-ops/internal/infrastructure/metrics"
)

const tracerName = "github.com/SantiagoDeStefano/ml-ops/internal/usecase"

// PredictInput represents the body of a prediction request
type PredictInput struct {
	Text *string `json:"text" binding:"required"`
}

// PredictOutput represents the classification returned to the caller
type PredictOutput = entity.ClassificationResult

// PredictUsecase defines the interface for prediction business logic
type PredictUsecase interface {
	Predict(ctx context.Context, input *PredictInput) (*PredictOutput, error)
}

type predictUsecase struct {
	tokenizer service.Tokenizer
	scorer    service.Scorer
	labels    service.LabelResolver
	tracer    trace.Tracer
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// PredictOption configures the prediction usecase
type PredictOption func(*predictUsecase)

// WithTracerProvider sets the provider for the request span
func WithTracerProvider(tp trace.TracerProvider) PredictOption {
	return func(u *predictUsecase) { u.tracer = tp.Tracer(tracerName) }
}

// WithMetrics sets the collectors predictions are counted in
func WithMetrics(m *metrics.Metrics) PredictOption {
	return func(u *predictUsecase) { u.metrics = m }
}

// WithLogger sets the usecase logger
func WithLogger(l *zap.Logger) PredictOption {
	return func(u *predictUsecase) { u.logger = l }
}

// NewPredictUsecase creates a new prediction usecase
func NewPredictUsecase(tokenizer service.Tokenizer, scorer service.Scorer, labels service.LabelResolver, opts ...PredictOption) PredictUsecase {
	u := &predictUsecase{
		tokenizer: tokenizer,
		scorer:    scorer,
		labels:    labels,
		tracer:    otel.GetTracerProvider().Tracer(tracerName),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.metrics == nil {
		u.metrics = metrics.NewNop()
	}
	return u
}

// pipeline tracks the stage a single request has reached
type pipeline struct {
	stage entity.Stage
	span  trace.Span
}

func (p *pipeline) advance(next entity.Stage) {
	p.stage = next
	p.span.AddEvent(next.String())
}

// fail moves the pipeline to StageErrored, recording the stage it failed in
func (p *pipeline) fail(err error) error {
	p.span.SetAttributes(attribute.String("gateway.failed_stage", p.stage.String()))
	p.stage = entity.StageErrored
	p.span.RecordError(err)
	p.span.SetStatus(codes.Error, err.Error())
	return err
}

func (u *predictUsecase) Predict(ctx context.Context, input *PredictInput) (*PredictOutput, error) {
	ctx, span := u.tracer.Start(ctx, "gateway.predict")
	defer span.End()

	p := &pipeline{stage: entity.StageReceived, span: span}
	defer func() {
		span.SetAttributes(attribute.String("gateway.stage", p.stage.String()))
	}()

	if input == nil || input.Text == nil {
		return nil, p.fail(&service.ValidationError{Field: "text", Reason: "field required"})
	}
	p.advance(entity.StageValidated)

	seq := u.tokenizer.Encode(*input.Text)
	span.SetAttributes(attribute.Int("gateway.tokens", len(seq)))
	p.advance(entity.StageTokenized)

	logits, err := u.scorer.Score(ctx, entity.NewScorePayload(seq))
	if err != nil {
		return nil, p.fail(err)
	}
	p.advance(entity.StageScored)

	// a mismatch means the label table is wrong for this model, not a bad answer
	if len(logits) != u.labels.Len() {
		err := &service.ConfigError{
			Reason: fmt.Sprintf("scorer returned %d classes but the label table has %d", len(logits), u.labels.Len()),
		}
		logger.WithTrace(ctx, u.logger).Error("Label table does not match scorer output",
			zap.Int("classes", len(logits)),
			zap.Int("labels", u.labels.Len()),
		)
		return nil, p.fail(err)
	}

	d, err := decision.Decide(logits)
	if err != nil {
		// the client rejects these first
		return nil, p.fail(&service.UpstreamError{StatusCode: http.StatusOK, Malformed: true, Reason: err.Error()})
	}
	p.advance(entity.StageDecided)

	label, err := u.labels.Resolve(d.Index)
	if err != nil {
		return nil, p.fail(err)
	}
	p.advance(entity.StageResolved)

	span.SetAttributes(
		attribute.String("gateway.label", label),
		attribute.Float64("gateway.confidence", d.Confidence),
	)
	u.metrics.Predictions.WithLabelValues(label).Inc()
	p.advance(entity.StageResponded)

	return &PredictOutput{
		Label:      label,
		Confidence: d.Confidence,
	}, nil
}
