package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/erp/treasury/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// HealthCheck reports whether one dependency is reachable
type HealthCheck func(ctx context.Context) error

// SystemHandler serves liveness, readiness and build information
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	startTime time.Time
	checks    map[string]HealthCheck
}

// NewSystemHandler creates a new SystemHandler. checks are run by Ready.
func NewSystemHandler(name, version string, checks map[string]HealthCheck) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		startTime: time.Now(),
		checks:    checks,
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// ReadinessResponse reports each dependency as "ok" or its error
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Live answers as soon as the process serves HTTP. GET /health
func (h *SystemHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready runs the dependency checks with a short deadline. GET /health/ready
func (h *SystemHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := ReadinessResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			resp.Status = "unavailable"
			resp.Checks[name] = err.Error()
			continue
		}
		resp.Checks[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

// Info returns build information. GET /api/v1/system/info
func (h *SystemHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}))
}
