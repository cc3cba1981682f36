package entity

import (
	"errors"
	"fmt"
	"math"
)

// TokenSequence is the token id sequence produced for a single request
type TokenSequence []int

// ScorePayload is the request body sent to the remote scorer
type ScorePayload struct {
	InputIDs [][]int `json:"input_ids"`
}

// NewScorePayload wraps seq as a batch of one. The sequence is copied so the
// payload does not alias tokenizer output.
func NewScorePayload(seq TokenSequence) ScorePayload {
	ids := make([]int, len(seq))
	copy(ids, seq)
	return ScorePayload{InputIDs: [][]int{ids}}
}

// LogitVector holds one raw score per class
type LogitVector []float64

// ErrEmptyLogits is returned for a zero-length logit vector
var ErrEmptyLogits = errors.New("logit vector is empty")

// Validate checks that the vector is non-empty and every entry is finite
func (l LogitVector) Validate() error {
	if len(l) == 0 {
		return ErrEmptyLogits
	}
	for i, v := range l {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("logit %d is not finite: %v", i, v)
		}
	}
	return nil
}

// ProbabilityDistribution is a softmax-normalised LogitVector
type ProbabilityDistribution []float64

// Sum returns the total probability mass
func (p ProbabilityDistribution) Sum() float64 {
	var sum float64
	for _, v := range p {
		sum += v
	}
	return sum
}

// ClassificationResult is the gateway's answer for one request
type ClassificationResult struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}
