package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// Pinger is a dependency whose reachability is reported by /health.
type Pinger func(ctx context.Context) error

// HealthController reports the reachability of backing services
type HealthController struct {
	checks  map[string]Pinger
	timeout time.Duration
}

// NewHealthController creates a health controller for the named checks
func NewHealthController(checks map[string]Pinger) *HealthController {
	return &HealthController{
		checks:  checks,
		timeout: 2 * time.Second,
	}
}

// HandleHealth answers 200 when every check passes and 503 otherwise.
func (hc *HealthController) HandleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), hc.timeout)
	defer cancel()

	status := fiber.StatusOK
	services := make(fiber.Map, len(hc.checks))
	for name, ping := range hc.checks {
		if err := ping(ctx); err != nil {
			log.Warnf("[Health] %s check failed: %v", name, err)
			services[name] = "down"
			status = fiber.StatusServiceUnavailable
			continue
		}
		services[name] = "up"
	}

	state := "ok"
	if status != fiber.StatusOK {
		state = "degraded"
	}
	return c.Status(status).JSON(fiber.Map{
		"status":   state,
		"services": services,
	})
}
