package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/retailops/backend/internal/infrastructure/logger"
	"github.com/retailops/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Pinger is a dependency the health check pings
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves the health check
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	startTime time.Time
	checks    map[string]Pinger
	timeout   time.Duration
}

// NewSystemHandler creates a new SystemHandler. checks are pinged by name
// on every health request.
func NewSystemHandler(name, version string, checks map[string]Pinger) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		startTime: time.Now(),
		checks:    checks,
		timeout:   2 * time.Second,
	}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string            `json:"status"`
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	GoVersion string            `json:"goVersion"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]string `json:"checks"`
}

// Health handles GET /health. Any failing dependency turns the response
// into a 503.
//
// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response
// @Failure      503 {object} dto.Response
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{
		Status:    "ok",
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Checks:    make(map[string]string, len(h.checks)),
	}
	status := http.StatusOK
	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			logger.L(ctx).Warn("health check failed", zap.String("check", name), zap.Error(err))
			resp.Checks[name] = "down"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "up"
	}
	c.JSON(status, dto.Response{Success: status == http.StatusOK, Data: resp})
}
