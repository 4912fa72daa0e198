package handlers

import (
	"net/http"

	"github.com/estatehub/marketplace-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// HealthHandler reports service and backend health
type HealthHandler struct {
	health  *services.HealthService
	version string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(health *services.HealthService, version string) *HealthHandler {
	return &HealthHandler{health: health, version: version}
}

// Live handles GET /health. It does not touch any backend.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.version})
}

// Ready handles GET /health/ready and returns 503 when any backend check fails
func (h *HealthHandler) Ready(c *gin.Context) {
	report := h.health.Check(c.Request.Context())
	status := http.StatusOK
	if report.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}
