package controllers

import (
	"github.com/gofiber/fiber/v2"
)

// Global controller instances
var (
	challengeController *ChallengeController
	jobQueueController  *JobQueueController
	healthController    *HealthController
)

// InitializeChallengeController initializes the global challenge controller
func InitializeChallengeController(service ChallengeService, canceller ExpirationCanceller) {
	challengeController = NewChallengeController(service, canceller)
}

// GetChallengeController returns the global challenge controller instance
func GetChallengeController() *ChallengeController {
	if challengeController == nil {
		panic("Challenge controller not initialized. Call InitializeChallengeController first.")
	}
	return challengeController
}

// InitializeJobQueueController initializes the global job queue controller
func InitializeJobQueueController(queue JobInspector) {
	jobQueueController = NewJobQueueController(queue)
}

// GetJobQueueController returns the global job queue controller instance
func GetJobQueueController() *JobQueueController {
	if jobQueueController == nil {
		panic("Job queue controller not initialized. Call InitializeJobQueueController first.")
	}
	return jobQueueController
}

// InitializeHealthController initializes the global health controller
func InitializeHealthController(checks map[string]Pinger) {
	healthController = NewHealthController(checks)
}

// GetHealthController returns the global health controller instance
func GetHealthController() *HealthController {
	if healthController == nil {
		InitializeHealthController(nil)
	}
	return healthController
}

// Adapter functions used by the router

// HandleAwardChallenge - Adapter for the award workflow
func HandleAwardChallenge(c *fiber.Ctx) error {
	return GetChallengeController().HandleAwardChallenge(c)
}

// HandleCreateFreeTrial - Adapter for the free-trial workflow
func HandleCreateFreeTrial(c *fiber.Ctx) error {
	return GetChallengeController().HandleCreateFreeTrial(c)
}

// HandleCancelFreeTrialExpiration - Adapter for cancelling a trial expiration
func HandleCancelFreeTrialExpiration(c *fiber.Ctx) error {
	return GetChallengeController().HandleCancelFreeTrialExpiration(c)
}

// HandleJobQueueStats - Adapter for job queue stats
func HandleJobQueueStats(c *fiber.Ctx) error {
	return GetJobQueueController().HandleStats(c)
}

// HandleGetJob - Adapter for job details
func HandleGetJob(c *fiber.Ctx) error {
	return GetJobQueueController().HandleGetJob(c)
}

// HandleGetFreeTrialExpiration - Adapter for a trial's expiration job
func HandleGetFreeTrialExpiration(c *fiber.Ctx) error {
	return GetJobQueueController().HandleGetFreeTrialExpiration(c)
}

// HandleHealth - Adapter for the health check
func HandleHealth(c *fiber.Ctx) error {
	return GetHealthController().HandleHealth(c)
}
