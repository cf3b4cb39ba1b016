package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/propmodel/challenge-admin/app/controllers"
	"github.com/propmodel/challenge-admin/app/repository"
	"github.com/propmodel/challenge-admin/internal/pkg/activitylog"
	"github.com/propmodel/challenge-admin/internal/pkg/cache"
	"github.com/propmodel/challenge-admin/internal/pkg/challenge"
	"github.com/propmodel/challenge-admin/internal/pkg/database"
	"github.com/propmodel/challenge-admin/internal/pkg/env"
	"github.com/propmodel/challenge-admin/internal/pkg/jobqueue"
	"github.com/propmodel/challenge-admin/internal/pkg/mail"
	"github.com/propmodel/challenge-admin/internal/pkg/router"
	"github.com/propmodel/challenge-admin/internal/pkg/tradingengine"
	"github.com/propmodel/challenge-admin/internal/pkg/webhook"
)

func main() {
	app, manager := NewApplication()

	if err := manager.Start(); err != nil {
		log.Fatalf("failed to start job queue: %v", err)
	}

	go func() {
		addr := fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000"))
		if err := app.Listen(addr); err != nil {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	manager.Stop()
}

func NewApplication() (*fiber.App, *jobqueue.Manager) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	repository.InitializeFactory(database.GetDB())
	factory := repository.GetGlobalFactory()
	cfg := challenge.ConfigFromEnv()

	activity := newActivityLogger(factory)
	engine := tradingengine.NewClientFromEnv()

	expiration := jobqueue.NewExpirationProcessor(
		factory.GetPlatformAccountRepository(),
		engine,
		webhook.NewSenderFromEnv(),
		activity,
	)
	manager := jobqueue.InitializeManager(jobqueue.ManagerConfig{
		Client:            cache.GetClient(),
		Workers:           env.GetEnvInt("JOBQUEUE_WORKERS", 3),
		ReconcileSchedule: env.GetEnv("RECONCILE_CRON", jobqueue.DefaultReconcileSchedule),
		TrialExpiry:       cfg.FreeTrialExpiry,
		Accounts:          factory.GetPlatformAccountRepository(),
		Expiration:        expiration,
	})
	queue := manager.GetQueue()

	service := challenge.NewService(cfg, challenge.Deps{
		Repos:      factory.GetRepositories(),
		Transactor: factory.GetTransactor(),
		Engine:     engine,
		Mailer:     mail.NewAPIMailerFromEnv(),
		Activity:   activity,
		Scheduler:  queue,
	})

	controllers.InitializeChallengeController(service, manager)
	controllers.InitializeJobQueueController(queue)
	controllers.InitializeHealthController(map[string]controllers.Pinger{
		"database": func(ctx context.Context) error {
			sqlDB, err := database.GetDB().DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"cache": func(ctx context.Context) error {
			return cache.GetClient().Ping(ctx).Err()
		},
	})

	app := fiber.New(fiber.Config{
		AppName:           "challenge-admin",
		BodyLimit:         1 << 20,
		EnablePrintRoutes: env.IsDev(),
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: "./public/docs/v2/openapi.yml",
		Path:     "v2",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app, router.Config{
		JWTSecret:       []byte(env.GetEnv("JWT_SECRET_KEY", "")),
		MonitorUser:     env.GetEnv("MONITOR_USER", ""),
		MonitorPassword: env.GetEnv("MONITOR_PASSWORD", ""),
		RateLimitMax:    env.GetEnvInt("API_RATE_LIMIT_MAX", 60),
		RateLimitWindow: env.GetEnvDuration("API_RATE_LIMIT_WINDOW", time.Minute),
	})

	return app, manager
}

// newActivityLogger writes to the database and, when configured, mirrors to SQS.
func newActivityLogger(factory *repository.Factory) *activitylog.Logger {
	dbSink := activitylog.NewDBSink(factory.GetActivityLogRepository())

	sqsSink, err := activitylog.NewSQSSinkFromEnv(context.Background())
	if err != nil {
		log.Printf("activity log SQS sink disabled: %v", err)
	}
	if sqsSink == nil {
		return activitylog.NewLogger(dbSink)
	}
	return activitylog.NewLogger(dbSink, sqsSink)
}
