package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "validation with field",
			err:  &ValidationError{Field: "text", Reason: "field required"},
			want: "text: field required",
		},
		{
			name: "validation without field",
			err:  &ValidationError{Reason: "malformed JSON body"},
			want: "malformed JSON body",
		},
		{
			name: "upstream status",
			err:  &UpstreamError{StatusCode: 500, Body: "Internal Server Error"},
			want: "scorer returned status 500: Internal Server Error",
		},
		{
			name: "upstream malformed",
			err:  &UpstreamError{StatusCode: 200, Malformed: true, Reason: "missing logits"},
			want: "scorer returned malformed response (status 200): missing logits",
		},
		{
			name: "config with cause",
			err:  &ConfigError{Reason: "failed to load vocabulary", Err: os.ErrNotExist},
			want: "failed to load vocabulary: file does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestTransportError(t *testing.T) {
	t.Run("unwraps cause", func(t *testing.T) {
		err := &TransportError{Endpoint: "http://scorer/predict", Err: context.Canceled}

		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, err.Timeout())
	})

	t.Run("deadline is a timeout", func(t *testing.T) {
		err := &TransportError{Err: fmt.Errorf("post: %w", context.DeadlineExceeded)}

		assert.True(t, err.Timeout())
	})

	t.Run("net timeout is a timeout", func(t *testing.T) {
		err := &TransportError{Err: fmt.Errorf("dial: %w", timeoutErr{})}

		assert.True(t, err.Timeout())
	})

	t.Run("found through wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("score: %w", &TransportError{Err: errors.New("connection refused")})

		var te *TransportError
		assert.True(t, errors.As(wrapped, &te))
	})
}
