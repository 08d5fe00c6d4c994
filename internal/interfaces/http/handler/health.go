package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/erp/barcode/internal/infrastructure/persistence"
	"github.com/gin-gonic/gin"
)

// DatabaseProbe is the part of the database the health check needs
type DatabaseProbe interface {
	Ping() error
	Stats() (persistence.ConnectionStats, error)
}

// HealthHandler answers liveness probes
type HealthHandler struct {
	BaseHandler
	db        DatabaseProbe
	version   string
	startTime time.Time
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db DatabaseProbe, version string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		version:   version,
		startTime: time.Now(),
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string                       `json:"status"`
	Version   string                       `json:"version"`
	GoVersion string                       `json:"go_version"`
	Uptime    string                       `json:"uptime"`
	Database  string                       `json:"database"`
	Pool      *persistence.ConnectionStats `json:"pool,omitempty"`
	Error     string                       `json:"error,omitempty"`
}

// Health godoc
// @Summary      Health check
// @Description  Reports liveness and database reachability. Answers 503 when the database is down.
// @Tags         system
// @Produce      json
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Database:  "connected",
	}

	if err := h.db.Ping(); err != nil {
		resp.Status = "unhealthy"
		resp.Database = "disconnected"
		resp.Error = err.Error()
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	if stats, err := h.db.Stats(); err == nil {
		resp.Pool = &stats
	}

	c.JSON(http.StatusOK, resp)
}
