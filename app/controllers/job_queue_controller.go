package controllers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/propmodel/challenge-admin/internal/pkg/jobqueue"
)

// JobInspector reads job queue state.
type JobInspector interface {
	GetStats(ctx context.Context) (*jobqueue.Stats, error)
	GetJob(ctx context.Context, jobID string) (*jobqueue.Job, error)
}

// JobQueueController exposes the background job queue to admins
type JobQueueController struct {
	queue JobInspector
}

// NewJobQueueController creates a new job queue controller
func NewJobQueueController(queue JobInspector) *JobQueueController {
	return &JobQueueController{
		queue: queue,
	}
}

// HandleStats returns queue depths and lifetime counters.
func (jc *JobQueueController) HandleStats(c *fiber.Ctx) error {
	stats, err := jc.queue.GetStats(c.UserContext())
	if err != nil {
		log.Errorf("[JobQueue] Failed to read stats: %v", err)
		return errorResponse(c, fiber.StatusInternalServerError, "internal_error", "Failed to read job queue stats")
	}

	return c.JSON(fiber.Map{
		"data": stats,
	})
}

// HandleGetJob returns a single job by id.
func (jc *JobQueueController) HandleGetJob(c *fiber.Ctx) error {
	jobID := c.Params("id")
	job, err := jc.queue.GetJob(c.UserContext(), jobID)
	if errors.Is(err, redis.Nil) {
		return errorResponse(c, fiber.StatusNotFound, "not_found", "Job not found")
	}
	if err != nil {
		log.Errorf("[JobQueue] Failed to read job %s: %v", jobID, err)
		return errorResponse(c, fiber.StatusInternalServerError, "internal_error", "Failed to read job")
	}

	return c.JSON(fiber.Map{
		"data": job,
	})
}

// HandleGetFreeTrialExpiration returns the expiration job of a free-trial account.
func (jc *JobQueueController) HandleGetFreeTrialExpiration(c *fiber.Ctx) error {
	accountUUID := c.Params("account_uuid")
	if err := validate.Var(accountUUID, "required,uuid"); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "invalid_request", "account_uuid must be a UUID")
	}

	job, err := jc.queue.GetJob(c.UserContext(), jobqueue.FreeTrialExpirationJobID(accountUUID))
	if errors.Is(err, redis.Nil) {
		return errorResponse(c, fiber.StatusNotFound, "not_found", "No scheduled expiration for this account")
	}
	if err != nil {
		log.Errorf("[JobQueue] Failed to read expiration of %s: %v", accountUUID, err)
		return errorResponse(c, fiber.StatusInternalServerError, "internal_error", "Failed to read job")
	}

	return c.JSON(fiber.Map{
		"data": job,
	})
}
