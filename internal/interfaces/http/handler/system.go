package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/erp/bullion/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping() error
}

// SystemHandler serves health and build information
type SystemHandler struct {
	BaseHandler
	db        Pinger
	version   string
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db Pinger, version string) *SystemHandler {
	return &SystemHandler{
		db:        db,
		version:   version,
		startTime: time.Now(),
	}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
	Time      string `json:"time"`
}

// Health answers 200 when the database is reachable, 503 otherwise
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Database:  "ok",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Time:      time.Now().UTC().Format(time.RFC3339),
	}
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			logger.L(c.Request.Context()).Warn("health check failed", zap.Error(err))
			resp.Status = "unhealthy"
			resp.Database = "error"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}
