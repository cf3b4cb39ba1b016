package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/propmodel/challenge-admin/app/controllers"
	"github.com/propmodel/challenge-admin/internal/pkg/middleware"
)

type ApiRouter struct {
	cfg Config
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	limit, window := h.cfg.RateLimitMax, h.cfg.RateLimitWindow
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}

	api := app.Group("/api", middleware.NewRateLimiter(limit, window))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v2 routes
	v2 := api.Group("/v2", middleware.UserContextMiddleware(h.cfg.JWTSecret), middleware.RequireAuth)

	challenges := v2.Group("/challenges")
	challenges.Post("/award", middleware.RequireAdmin, controllers.HandleAwardChallenge)
	challenges.Post("/free-trial", controllers.HandleCreateFreeTrial)
	challenges.Get("/free-trial/:account_uuid/expiration", middleware.RequireAdmin, controllers.HandleGetFreeTrialExpiration)
	challenges.Delete("/free-trial/:account_uuid/expiration", middleware.RequireAdmin, controllers.HandleCancelFreeTrialExpiration)

	jobs := v2.Group("/jobs", middleware.RequireAdmin)
	jobs.Get("/stats", controllers.HandleJobQueueStats)
	jobs.Get("/:id", controllers.HandleGetJob)
}

func NewApiRouter(cfg Config) *ApiRouter {
	return &ApiRouter{cfg: cfg}
}
