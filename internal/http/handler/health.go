package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"board-service/pkg/profiling"
)

const (
	healthStatusOK       = "ok"
	healthStatusDegraded = "degraded"
	healthStatusDown     = "down"

	defaultHealthTimeout = 2 * time.Second
)

type HealthHandler struct {
	checks  map[string]Pinger
	timeout time.Duration
}

// NewHealthHandler checks each named dependency on every request.
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: defaultHealthTimeout}
}

type HealthResponse struct {
	Status       string                `json:"status"`
	Dependencies map[string]string     `json:"dependencies"`
	Memory       profiling.MemoryStats `json:"memory"`
}

// Check answers 503 when any dependency fails its ping.
func (h *HealthHandler) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{
		Status:       healthStatusOK,
		Dependencies: make(map[string]string, len(h.checks)),
		Memory:       profiling.GetMemoryStats(),
	}
	for name, pinger := range h.checks {
		if err := pinger.Ping(ctx); err != nil {
			resp.Dependencies[name] = healthStatusDown
			resp.Status = healthStatusDegraded
			continue
		}
		resp.Dependencies[name] = healthStatusOK
	}

	status := http.StatusOK
	if resp.Status != healthStatusOK {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, resp)
}
