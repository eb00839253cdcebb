// Package handlers contains the HTTP route handlers for the Prime Esports API.
// Each handler corresponds to one API endpoint and is responsible for reading the
// request, calling the store and writing a response.
//
// Handlers follow the "handler factory" pattern: an exported function takes the
// dependencies it needs (a repository, the validator, the notifier) and returns
// a fiber.Handler. No globals; routes.go wires everything together.
package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthCheck handles GET /health.
// It stays lightweight: no store queries and no authentication, so load
// balancer and container probes get an answer even when the backend is down.
// The announcement count shows whether the realtime feed has loaded.
func HealthCheck(started time.Time, feed AnnouncementSource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":        "ok",
			"uptime_s":      int64(time.Since(started).Seconds()),
			"announcements": len(feed.Items()),
		})
	}
}
