package client

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/SantiagoDeStefano/ml-ops/internal/domain/entity"
	"github.com/SantiagoDeStefano/ml-ops/internal/domain/service"
)

const maxRetryInterval = 2 * time.Second

// scoreWithRetry repeats transport failures up to maxRetries times with
// exponential backoff. Upstream answers are never retried.
func (c *ScorerClient) scoreWithRetry(ctx context.Context, payload entity.ScorePayload) (entity.LogitVector, error) {
	var logits entity.LogitVector

	op := func() error {
		var err error
		logits, err = c.predict(ctx, payload)
		if err == nil {
			return nil
		}
		var tErr *service.TransportError
		if !errors.As(err, &tErr) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		c.metrics.ScorerRetries.Inc()
		c.logger.Warn("Retrying scorer call",
			zap.String("endpoint", c.url),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
	}

	err := backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), uint64(c.maxRetries)), ctx), notify)
	if err == nil {
		return logits, nil
	}

	// the backoff loop reports a bare context error when cancelled while waiting
	var tErr *service.TransportError
	var uErr *service.UpstreamError
	if !errors.As(err, &tErr) && !errors.As(err, &uErr) && ctx.Err() != nil {
		return nil, &service.TransportError{Endpoint: c.url, Err: err}
	}
	return nil, err
}

func (c *ScorerClient) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryBackoff
	b.MaxInterval = maxRetryInterval
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}
