package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SantiagoDeStefano/ml-ops/internal/usecase"
)

// PredictHandler handles prediction endpoints
type PredictHandler struct {
	predictUC usecase.PredictUsecase
}

// NewPredictHandler creates a new prediction handler
func NewPredictHandler(predictUC usecase.PredictUsecase) *PredictHandler {
	RegisterJSONFieldNames()
	return &PredictHandler{
		predictUC: predictUC,
	}
}

// Predict handles POST /predict
func (h *PredictHandler) Predict(c *gin.Context) {
	var input usecase.PredictInput
	if err := c.ShouldBindJSON(&input); err != nil {
		HandleError(c, BindingError(err))
		return
	}

	output, err := h.predictUC.Predict(c.Request.Context(), &input)
	if err != nil {
		HandleError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, output)
}
