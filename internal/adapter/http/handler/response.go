package handler

import (
	"github.com/gin-gonic/gin"
)

// DetailResponse is the body of every error response
type DetailResponse struct {
	Detail string `json:"detail"`
}

// StatusResponse is the body of the health endpoints
type StatusResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func respondJSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

func respondDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, DetailResponse{Detail: detail})
}
