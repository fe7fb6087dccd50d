// Package app assembles the Fiber application from its handlers and
// middleware.
package app

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/briggon/dataplane/config"
	"github.com/briggon/dataplane/internal/api/middleware"
	"github.com/briggon/dataplane/internal/api/v1/handlers"
	v1 "github.com/briggon/dataplane/internal/api/v1/routes"
	"github.com/briggon/dataplane/internal/types"
)

// NewApp builds the HTTP application with middleware and versioned routes.
func NewApp(cfg *config.Settings, jobHandler *handlers.JobHandler, healthHandler *handlers.HealthHandler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ErrorHandler: errorHandler,
		BodyLimit:    bodyLimit(cfg.MaxPayloadBytes),
	})

	// Middleware (panic recovery first, then logging and CORS)
	app.Use(fiberrecover.New())
	app.Use(middleware.Logger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	// Register versioned routes
	v1.RegisterRoutes(app, jobHandler, healthHandler)

	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	if code == fiber.StatusNotFound {
		return c.Status(code).JSON(types.ErrNotFound(err.Error()))
	}
	return c.Status(code).JSON(types.ErrServer(err.Error()))
}

// bodyLimit leaves headroom above the payload cap so the JSON envelope
// around `data` never trips the transport limit first.
func bodyLimit(maxPayloadBytes int) int {
	if maxPayloadBytes <= 0 {
		return fiber.DefaultBodyLimit
	}
	return maxPayloadBytes + 64*1024
}
