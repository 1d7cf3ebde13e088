package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/rbx-asset-downloader/internal/app"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// HealthHandler handles health check requests
type HealthHandler struct {
	jobMgr *app.JobManager
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(jobMgr *app.JobManager) *HealthHandler {
	return &HealthHandler{
		jobMgr: jobMgr,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Worker  struct {
		Running bool `json:"running"`
	} `json:"worker"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Version: Version,
	}
	response.Worker.Running = h.jobMgr.IsRunning()

	c.JSON(http.StatusOK, response)
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.jobMgr.IsRunning() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "job worker not running",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
