package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SantiagoDeStefano/ml-ops/internal/domain/service"
)

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	StatusCode int
	Detail     string
}

// MapError maps pipeline errors to HTTP error responses.
// Upstream error statuses pass through with the scorer's body as detail;
// transport failures never expose their cause.
func MapError(err error) ErrorResponse {
	var (
		valErr *service.ValidationError
		upErr  *service.UpstreamError
		tErr   *service.TransportError
		cfgErr *service.ConfigError
	)

	switch {
	case errors.As(err, &valErr):
		return ErrorResponse{
			StatusCode: http.StatusUnprocessableEntity,
			Detail:     valErr.Error(),
		}
	case errors.As(err, &upErr):
		return mapUpstreamError(upErr)
	case errors.As(err, &tErr):
		if tErr.Timeout() {
			return ErrorResponse{
				StatusCode: http.StatusGatewayTimeout,
				Detail:     "scorer request timed out",
			}
		}
		return ErrorResponse{
			StatusCode: http.StatusServiceUnavailable,
			Detail:     "scorer unavailable",
		}
	case errors.As(err, &cfgErr):
		return ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Detail:     "label configuration mismatch: " + cfgErr.Reason,
		}
	default:
		return ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Detail:     "internal server error",
		}
	}
}

func mapUpstreamError(err *service.UpstreamError) ErrorResponse {
	if err.Malformed {
		return ErrorResponse{
			StatusCode: http.StatusBadGateway,
			Detail:     "invalid response from scorer: " + err.Reason,
		}
	}
	// only error statuses can be relayed as errors
	if err.StatusCode < http.StatusBadRequest || err.StatusCode > 599 {
		return ErrorResponse{
			StatusCode: http.StatusBadGateway,
			Detail:     fmt.Sprintf("invalid response from scorer: unexpected status %d", err.StatusCode),
		}
	}
	return ErrorResponse{
		StatusCode: err.StatusCode,
		Detail:     err.Body,
	}
}

// HandleError sends the response for err. The error is attached to the
// context so the access log records the full cause.
func HandleError(c *gin.Context, err error) {
	_ = c.Error(err)
	errResp := MapError(err)
	respondDetail(c, errResp.StatusCode, errResp.Detail)
}
