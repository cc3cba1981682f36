package service

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ValidationError is a client error in the request body
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// UpstreamError is returned when the scorer answers with a non-success status
// or with a body that does not match the expected schema. Malformed is set
// for the latter.
type UpstreamError struct {
	StatusCode int
	Body       string
	Malformed  bool
	Reason     string
}

func (e *UpstreamError) Error() string {
	if e.Malformed {
		return fmt.Sprintf("scorer returned malformed response (status %d): %s", e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("scorer returned status %d: %s", e.StatusCode, e.Body)
}

// TransportError is returned when the scorer could not be reached
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to reach scorer at %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the call ran out of time
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// ConfigError signals missing or inconsistent startup resources, such as a
// label table that does not match the scorer's model
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
