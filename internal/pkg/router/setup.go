package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Router registers a group of routes on the app.
type Router interface {
	InstallRouter(app *fiber.App)
}

// Config carries the settings the routers need.
type Config struct {
	JWTSecret       []byte
	MonitorUser     string
	MonitorPassword string
	RateLimitMax    int
	RateLimitWindow time.Duration
}

func InstallRouter(app *fiber.App, cfg Config) {
	// HttpRouter first so /health and /metrics stay outside the API limiter
	setup(app, NewHttpRouter(cfg), NewApiRouter(cfg))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
