package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/propmodel/challenge-admin/app/controllers"
)

type HttpRouter struct {
	cfg Config
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Get("/health", controllers.HandleHealth)

	// prometheus scrape endpoint
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// fiber runtime monitor
	if h.cfg.MonitorUser != "" {
		app.Get("/monitor", basicauth.New(basicauth.Config{
			Users: map[string]string{
				h.cfg.MonitorUser: h.cfg.MonitorPassword,
			},
		}), monitor.New())
	}
}

func NewHttpRouter(cfg Config) *HttpRouter {
	return &HttpRouter{cfg: cfg}
}
