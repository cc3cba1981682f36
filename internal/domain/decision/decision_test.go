package decision

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SantiagoDeStefano/ml-ops/internal/domain/entity"
)

func TestSoftmax(t *testing.T) {
	t.Run("sums to one for random logits", func(t *testing.T) {
		rng := rand.New(rand.NewSource(42))
		for i := 0; i < 500; i++ {
			n := 1 + rng.Intn(10)
			logits := make(entity.LogitVector, n)
			for j := range logits {
				logits[j] = (rng.Float64() - 0.5) * 200
			}

			probs := Softmax(logits)

			require.Len(t, probs, n)
			assert.InDelta(t, 1.0, probs.Sum(), 1e-6)
			for _, p := range probs {
				assert.GreaterOrEqual(t, p, 0.0)
				assert.LessOrEqual(t, p, 1.0)
			}
		}
	})

	t.Run("stable for very large logits", func(t *testing.T) {
		probs := Softmax(entity.LogitVector{1000, 1001})

		assert.False(t, math.IsNaN(probs[0]))
		assert.InDelta(t, 1.0, probs.Sum(), 1e-6)
		assert.Greater(t, probs[1], probs[0])
	})

	t.Run("stable for very negative logits", func(t *testing.T) {
		probs := Softmax(entity.LogitVector{-1000, -1001})

		assert.InDelta(t, 1.0, probs.Sum(), 1e-6)
		assert.Greater(t, probs[0], probs[1])
	})

	t.Run("equal logits are uniform", func(t *testing.T) {
		probs := Softmax(entity.LogitVector{3, 3, 3, 3})

		for _, p := range probs {
			assert.InDelta(t, 0.25, p, 1e-12)
		}
	})

	t.Run("known values", func(t *testing.T) {
		probs := Softmax(entity.LogitVector{-2.5, 3.1})

		want := 1 / (1 + math.Exp(-5.6))
		assert.InDelta(t, want, probs[1], 1e-12)
		assert.InDelta(t, 1-want, probs[0], 1e-12)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, Softmax(nil))
	})
}

func TestArgmax(t *testing.T) {
	tests := []struct {
		name  string
		probs entity.ProbabilityDistribution
		want  int
	}{
		{name: "single", probs: entity.ProbabilityDistribution{1}, want: 0},
		{name: "second wins", probs: entity.ProbabilityDistribution{0.2, 0.8}, want: 1},
		{name: "tie goes to lowest index", probs: entity.ProbabilityDistribution{0.5, 0.5}, want: 0},
		{name: "later tie with earlier max", probs: entity.ProbabilityDistribution{0.1, 0.45, 0.45}, want: 1},
		{name: "empty", probs: nil, want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Argmax(tt.probs))
		})
	}
}

func TestDecide(t *testing.T) {
	t.Run("positive logits select second class", func(t *testing.T) {
		d, err := Decide(entity.LogitVector{-2.5, 3.1})

		require.NoError(t, err)
		assert.Equal(t, 1, d.Index)
		assert.Greater(t, d.Confidence, 0.5)
		assert.Equal(t, d.Probabilities[1], d.Confidence)
	})

	t.Run("tie is broken by lowest index", func(t *testing.T) {
		d, err := Decide(entity.LogitVector{1.0, 1.0})

		require.NoError(t, err)
		assert.Equal(t, 0, d.Index)
		assert.InDelta(t, 0.5, d.Confidence, 1e-12)
	})

	t.Run("index and confidence within range for any class count", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		for n := 2; n <= 16; n++ {
			for i := 0; i < 50; i++ {
				logits := make(entity.LogitVector, n)
				for j := range logits {
					logits[j] = rng.NormFloat64() * 10
				}

				d, err := Decide(logits)

				require.NoError(t, err)
				assert.GreaterOrEqual(t, d.Index, 0)
				assert.Less(t, d.Index, n)
				assert.Greater(t, d.Confidence, 0.0)
				assert.LessOrEqual(t, d.Confidence, 1.0)
				assert.GreaterOrEqual(t, d.Confidence, 1/float64(n)-1e-12)
			}
		}
	})

	t.Run("single class has full confidence", func(t *testing.T) {
		d, err := Decide(entity.LogitVector{-7})

		require.NoError(t, err)
		assert.Equal(t, 0, d.Index)
		assert.Equal(t, 1.0, d.Confidence)
	})

	t.Run("rejects empty vector", func(t *testing.T) {
		_, err := Decide(entity.LogitVector{})

		assert.ErrorIs(t, err, entity.ErrEmptyLogits)
	})

	t.Run("rejects non-finite logits", func(t *testing.T) {
		_, err := Decide(entity.LogitVector{math.NaN(), 1})

		assert.Error(t, err)
	})
}
