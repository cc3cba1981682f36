package service

import (
	"context"

	"github.com/SantiagoDeStefano/ml-ops/internal/domain/entity"
)

// Tokenizer converts text into the token ids the scorer expects
type Tokenizer interface {
	// Encode never fails: long input is truncated and empty input still
	// yields a valid sequence
	Encode(text string) entity.TokenSequence
}

// Scorer sends a payload to the remote model server and returns its logits
type Scorer interface {
	Score(ctx context.Context, payload entity.ScorePayload) (entity.LogitVector, error)
}

// LabelResolver maps class indices to labels
type LabelResolver interface {
	Resolve(index int) (string, error)
	Len() int
}

// ReadinessChecker reports whether a dependency can serve traffic
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}
