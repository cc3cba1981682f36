package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SantiagoDeStefano/ml-ops/internal/domain/service"
	"github.com/SantiagoDeStefano/ml-ops/internal/infrastructure/logger"
)

const readyTimeout = 5 * time.Second

// HealthHandler handles health check endpoints
type HealthHandler struct {
	scorer service.ReadinessChecker
	logger *zap.Logger
}

// NewHealthHandler creates a new health handler. scorer may be nil, in
// which case the gateway always reports ready.
func NewHealthHandler(scorer service.ReadinessChecker, log *zap.Logger) *HealthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &HealthHandler{
		scorer: scorer,
		logger: log,
	}
}

// Healthz handles GET /healthz. It never consults the scorer.
func (h *HealthHandler) Healthz(c *gin.Context) {
	respondJSON(c, http.StatusOK, StatusResponse{Status: "ok"})
}

// Readyz handles GET /readyz
func (h *HealthHandler) Readyz(c *gin.Context) {
	if h.scorer == nil {
		respondJSON(c, http.StatusOK, StatusResponse{Status: "ready"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	if err := h.scorer.Ready(ctx); err != nil {
		logger.WithTrace(ctx, h.logger).Warn("Scorer not ready", zap.Error(err))
		respondJSON(c, http.StatusServiceUnavailable, StatusResponse{Status: "not ready", Reason: "scorer unreachable"})
		return
	}

	respondJSON(c, http.StatusOK, StatusResponse{Status: "ready"})
}
