package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dropiq/dropiq-api/internal/utils"
)

// HealthHandler reports API liveness.
type HealthHandler struct{}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// GetHealth handles GET /api/health.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	utils.OK(c, http.StatusOK, gin.H{
		"message":   "DropIQ Product Search API is running",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
