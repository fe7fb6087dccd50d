// Package routes defines the API routes and URL structure
package routes

import (
	"fmt"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/briggon/dataplane/internal/api/v1/handlers"
)

// API base configuration
const (
	// DefaultPort is the default port for the API
	DefaultPort = "8080"
	// APIv1Prefix is the prefix for all API endpoints
	APIv1Prefix = "/api/v1"
)

// DefaultBaseURL is the default base URL for the API
var DefaultBaseURL = fmt.Sprintf("http://localhost:%s", DefaultPort)

// Route names for lookup
const (
	// Root is the service banner
	Root = "Root"
	// HealthCheck is the liveness probe
	HealthCheck = "HealthCheck"
	// ReadyCheck is the readiness probe
	ReadyCheck = "ReadyCheck"

	// Job routes
	SubmitJob = "SubmitJob"
	GetJob    = "GetJob"
)

// Endpoint paths used by the client package.
const (
	SubmitJobPath = APIv1Prefix + "/process"
	JobPath       = APIv1Prefix + "/job"
)

// JobURL returns the status endpoint path for a job ID.
func JobURL(jobID string) string {
	return JobPath + "/" + jobID
}

// RegisterRoutes configures all the v1 routes
//
// NOTE: route ordering is important because routes will try and match in
// the order they are registered.
func RegisterRoutes(
	app *fiber.App,
	jobHandler *handlers.JobHandler,
	healthHandler *handlers.HealthHandler,
) {
	// Service banner and probes
	app.Get("/", healthHandler.Root).Name(Root)
	app.Get("/health", healthHandler.HealthCheck).Name(HealthCheck)
	app.Get("/ready", healthHandler.ReadyCheck).Name(ReadyCheck)

	// API v1 routes
	v1 := app.Group(APIv1Prefix)

	// Job endpoints
	v1.Post("/process", jobHandler.SubmitJob).Name(SubmitJob)
	v1.Get("/job/:id", jobHandler.GetJob).Name(GetJob)
}
