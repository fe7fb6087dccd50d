package handlers

import (
	"context"
	"time"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/briggon/dataplane/internal/types"
)

// Pinger is a dependency whose connectivity gates readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness, readiness and banner endpoints.
type HealthHandler struct {
	appName    string
	appVersion string
	deps       []Pinger
}

// NewHealthHandler creates a new instance of HealthHandler. deps are the
// backends checked by the readiness probe.
func NewHealthHandler(appName, appVersion string, deps ...Pinger) *HealthHandler {
	return &HealthHandler{
		appName:    appName,
		appVersion: appVersion,
		deps:       deps,
	}
}

// Root serves the service banner
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(types.RootResponse{
		Service: h.appName,
		Version: h.appVersion,
		Status:  "running",
	})
}

// HealthCheck reports liveness only; it succeeds whenever the process is
// up, with no dependency checks.
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(types.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   h.appVersion,
	})
}

// ReadyCheck verifies connectivity to the record store, queue and object
// store before reporting ready.
func (h *HealthHandler) ReadyCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	for _, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(types.ReadyResponse{
				Status: "not ready",
				Error:  err.Error(),
			})
		}
	}

	return c.JSON(types.ReadyResponse{Status: "ready"})
}
