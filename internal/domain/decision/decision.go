package decision

import (
	"fmt"
	"math"

	"github.com/SantiagoDeStefano/ml-ops/internal/domain/entity"
)

// Decision is the selected class and its probability mass
type Decision struct {
	Index         int
	Confidence    float64
	Probabilities entity.ProbabilityDistribution
}

// Softmax converts logits into a probability distribution. The maximum logit
// is subtracted before exponentiating so large logits do not overflow.
func Softmax(logits entity.LogitVector) entity.ProbabilityDistribution {
	if len(logits) == 0 {
		return nil
	}

	maxVal := logits[0]
	for _, v := range logits[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	probs := make(entity.ProbabilityDistribution, len(logits))
	var sum float64
	for i, v := range logits {
		e := math.Exp(v - maxVal)
		probs[i] = e
		sum += e
	}
	// sum >= 1 because the maximum contributes exp(0)
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// Argmax returns the index of the largest probability. Ties go to the lowest
// index. It returns -1 for an empty distribution.
func Argmax(probs entity.ProbabilityDistribution) int {
	if len(probs) == 0 {
		return -1
	}
	best := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}
	return best
}

// Decide picks the most probable class for logits
func Decide(logits entity.LogitVector) (Decision, error) {
	if err := logits.Validate(); err != nil {
		return Decision{}, fmt.Errorf("cannot decide: %w", err)
	}

	probs := Softmax(logits)
	idx := Argmax(probs)

	return Decision{
		Index:         idx,
		Confidence:    probs[idx],
		Probabilities: probs,
	}, nil
}
