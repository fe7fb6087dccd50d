// Package middleware provides HTTP middleware shared by the API surface.
package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/briggon/dataplane/internal/logger"
)

// Logger returns a middleware that logs HTTP requests
func Logger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Continue chain
		err := c.Next()

		latency := time.Since(start)

		logger.InfoWithFields("Request", map[string]interface{}{
			"status":  c.Response().StatusCode(),
			"latency": latency.String(),
			"ip":      c.IP(),
			"method":  c.Method(),
			"path":    c.Path(),
			"handler": c.Route().Name,
		})

		return err
	}
}
