package controllers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"

	"github.com/propmodel/challenge-admin/internal/pkg/challenge"
	"github.com/propmodel/challenge-admin/internal/pkg/usercontext"
)

// ChallengeService runs the provisioning workflows.
type ChallengeService interface {
	AwardChallenge(ctx context.Context, req challenge.AwardRequest, actorUUID string) (*challenge.AwardResult, error)
	CreateFreeTrialAccount(ctx context.Context, req challenge.FreeTrialRequest, userUUID string) (*challenge.AccountSummary, error)
}

// ExpirationCanceller removes pending free-trial expiration jobs.
type ExpirationCanceller interface {
	CancelFreeTrialExpiration(ctx context.Context, platformAccountUUID string) (bool, error)
}

// AwardChallengeRequest is the body of POST /api/v2/challenges/award.
type AwardChallengeRequest struct {
	PlatformName         string   `json:"platform_name" validate:"required,max=50"`
	InitialBalance       float64  `json:"initial_balance" validate:"required,gt=0"`
	AccountStage         string   `json:"account_stage" validate:"required,oneof=trial single double triple instant"`
	AccountType          string   `json:"account_type" validate:"required,oneof=standard aggressive"`
	AwardType            string   `json:"award_type" validate:"required,max=50"`
	UserEmails           []string `json:"user_emails" validate:"required,min=1,dive,required,email"`
	SubtagsUUIDs         []string `json:"subtags_uuids" validate:"omitempty,dive,uuid"`
	DiscountCode         string   `json:"discount_code" validate:"omitempty,max=100"`
	PaymentTransactionID string   `json:"payment_transaction_id" validate:"omitempty,max=191"`
}

// FreeTrialAccountRequest is the body of POST /api/v2/challenges/free-trial.
type FreeTrialAccountRequest struct {
	FreeTrialCode string `json:"free_trial_code" validate:"required,max=100"`
}

// ChallengeController handles challenge provisioning requests
type ChallengeController struct {
	service   ChallengeService
	canceller ExpirationCanceller
}

// NewChallengeController creates a new challenge controller
func NewChallengeController(service ChallengeService, canceller ExpirationCanceller) *ChallengeController {
	return &ChallengeController{
		service:   service,
		canceller: canceller,
	}
}

// HandleAwardChallenge awards a challenge account to every listed user.
func (cc *ChallengeController) HandleAwardChallenge(c *fiber.Ctx) error {
	var req AwardChallengeRequest
	if err := parseRequest(c, &req); err != nil {
		return err
	}

	userCtx := usercontext.GetUserContext(c)
	result, err := cc.service.AwardChallenge(c.UserContext(), challenge.AwardRequest{
		PlatformName:         req.PlatformName,
		InitialBalance:       decimal.NewFromFloat(req.InitialBalance),
		AccountStage:         req.AccountStage,
		AccountType:          req.AccountType,
		AwardType:            req.AwardType,
		UserEmails:           req.UserEmails,
		SubtagUUIDs:          req.SubtagsUUIDs,
		DiscountCode:         req.DiscountCode,
		PaymentTransactionID: req.PaymentTransactionID,
	}, userCtx.UserUUID)
	if err != nil {
		return cc.handleError(c, "challenge_award_failed", err)
	}

	return c.JSON(fiber.Map{
		"message": "challenge_awarded",
		"data":    result,
	})
}

// HandleCreateFreeTrial provisions a free-trial account for the caller.
func (cc *ChallengeController) HandleCreateFreeTrial(c *fiber.Ctx) error {
	var req FreeTrialAccountRequest
	if err := parseRequest(c, &req); err != nil {
		return err
	}

	userCtx := usercontext.GetUserContext(c)
	summary, err := cc.service.CreateFreeTrialAccount(c.UserContext(), challenge.FreeTrialRequest{
		FreeTrialCode: req.FreeTrialCode,
	}, userCtx.UserUUID)
	if err != nil {
		return cc.handleError(c, "free_trial_failed", err)
	}

	return c.JSON(fiber.Map{
		"message": "free_trial_created",
		"data":    summary,
	})
}

// HandleCancelFreeTrialExpiration removes the scheduled expiration of a free-trial account.
func (cc *ChallengeController) HandleCancelFreeTrialExpiration(c *fiber.Ctx) error {
	accountUUID := c.Params("account_uuid")
	if err := validate.Var(accountUUID, "required,uuid"); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "invalid_request", "account_uuid must be a UUID")
	}
	if cc.canceller == nil {
		return errorResponse(c, fiber.StatusServiceUnavailable, "job_queue_unavailable", "Job queue is not running")
	}

	cancelled, err := cc.canceller.CancelFreeTrialExpiration(c.UserContext(), accountUUID)
	if err != nil {
		log.Errorf("[Challenge] Failed to cancel expiration of %s: %v", accountUUID, err)
		return errorResponse(c, fiber.StatusInternalServerError, "internal_error", "Failed to cancel expiration")
	}
	if !cancelled {
		return errorResponse(c, fiber.StatusNotFound, "not_found", "No scheduled expiration for this account")
	}

	return c.JSON(fiber.Map{
		"message": "expiration_cancelled",
		"data": fiber.Map{
			"platform_account_uuid": accountUUID,
		},
	})
}

func (cc *ChallengeController) handleError(c *fiber.Ctx, code string, err error) error {
	switch {
	case challenge.IsPreconditionError(err):
		return errorResponse(c, fiber.StatusBadRequest, code, err.Error())
	case errors.Is(err, challenge.ErrAccountDeclined):
		return errorResponse(c, fiber.StatusBadGateway, code, err.Error())
	default:
		log.Errorf("[Challenge] %s: %v", code, err)
		return errorResponse(c, fiber.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
