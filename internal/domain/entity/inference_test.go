package entity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewScorePayload(t *testing.T) {
	t.Run("wraps sequence as a batch of one", func(t *testing.T) {
		payload := NewScorePayload(TokenSequence{101, 2023, 102})

		assert.Equal(t, [][]int{{101, 2023, 102}}, payload.InputIDs)
	})

	t.Run("copies the sequence", func(t *testing.T) {
		seq := TokenSequence{101, 102}
		payload := NewScorePayload(seq)

		seq[0] = 0

		assert.Equal(t, 101, payload.InputIDs[0][0])
	})

	t.Run("empty sequence stays a batch of one", func(t *testing.T) {
		payload := NewScorePayload(nil)

		assert.Len(t, payload.InputIDs, 1)
		assert.Empty(t, payload.InputIDs[0])
	})
}

func TestLogitVector_Validate(t *testing.T) {
	tests := []struct {
		name    string
		logits  LogitVector
		wantErr bool
	}{
		{name: "two classes", logits: LogitVector{-2.5, 3.1}},
		{name: "single class", logits: LogitVector{0}},
		{name: "empty", logits: LogitVector{}, wantErr: true},
		{name: "nil", logits: nil, wantErr: true},
		{name: "nan", logits: LogitVector{1, math.NaN()}, wantErr: true},
		{name: "infinity", logits: LogitVector{math.Inf(1), 0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.logits.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	assert.ErrorIs(t, LogitVector{}.Validate(), ErrEmptyLogits)
}

func TestProbabilityDistribution_Sum(t *testing.T) {
	assert.InDelta(t, 1.0, ProbabilityDistribution{0.25, 0.75}.Sum(), 1e-12)
	assert.Equal(t, 0.0, ProbabilityDistribution{}.Sum())
}

func TestStage(t *testing.T) {
	t.Run("names", func(t *testing.T) {
		assert.Equal(t, "received", StageReceived.String())
		assert.Equal(t, "tokenized", StageTokenized.String())
		assert.Equal(t, "responded", StageResponded.String())
		assert.Equal(t, "errored", StageErrored.String())
		assert.Equal(t, "unknown", Stage(42).String())
	})

	t.Run("terminal stages", func(t *testing.T) {
		assert.True(t, StageResponded.IsTerminal())
		assert.True(t, StageErrored.IsTerminal())
		assert.False(t, StageScored.IsTerminal())
	})
}
