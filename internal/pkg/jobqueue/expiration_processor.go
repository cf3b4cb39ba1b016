package jobqueue

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/propmodel/challenge-admin/app/models"
	"github.com/propmodel/challenge-admin/app/repository"
	"github.com/propmodel/challenge-admin/internal/pkg/activitylog"
	"github.com/propmodel/challenge-admin/internal/pkg/tradingengine"
	"github.com/propmodel/challenge-admin/internal/pkg/webhook"
)

const freeTrialExpiredReason = "Free trial expired"

// AccountDisabler closes positions and disables remote logins.
type AccountDisabler interface {
	DisableAccounts(ctx context.Context, logins []string) tradingengine.Result
}

// EventSender delivers webhook events; false means not delivered.
type EventSender interface {
	Send(ctx context.Context, event, login string, isFunded bool, reason string) bool
}

// ActivityStore records audit entries.
type ActivityStore interface {
	Store(ctx context.Context, entry activitylog.Entry) error
}

// ExpirationProcessor ends free trials when their expiration job fires.
type ExpirationProcessor struct {
	accounts repository.PlatformAccountRepository
	engine   AccountDisabler
	events   EventSender
	activity ActivityStore
}

func NewExpirationProcessor(accounts repository.PlatformAccountRepository, engine AccountDisabler, events EventSender, activity ActivityStore) *ExpirationProcessor {
	return &ExpirationProcessor{
		accounts: accounts,
		engine:   engine,
		events:   events,
		activity: activity,
	}
}

// Process is a Handler for JobTypeFreeTrialExpiration. Missing accounts,
// non-trial accounts and disabled accounts are left alone, as are trials
// whose expiry was cancelled.
func (p *ExpirationProcessor) Process(ctx context.Context, job *Job) error {
	payload, err := FreeTrialExpirationPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	if payload.PlatformAccountUUID == "" {
		return errors.New("payload has no platform_account_uuid")
	}

	account, err := p.accounts.GetByUUID(payload.PlatformAccountUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("[JobQueue] Platform account not found: %s", payload.PlatformAccountUUID)
			return nil
		}
		return fmt.Errorf("load platform account: %w", err)
	}
	if !account.IsFreeTrial() {
		log.Warnf("[JobQueue] Account %s is not a free trial", account.UUID)
		return nil
	}
	if !account.IsActive() {
		log.Infof("[JobQueue] Free trial account %s already disabled", account.UUID)
		return nil
	}
	if account.ExpirationCancelled() {
		log.Infof("[JobQueue] Expiration of free trial account %s was cancelled", account.UUID)
		return nil
	}

	if account.PlatformLoginID != "" {
		if res := p.engine.DisableAccounts(ctx, []string{account.PlatformLoginID}); !res.Success {
			log.Errorf("[JobQueue] Disabling login %s failed: %s", account.PlatformLoginID, res.Error)
		}
	}

	if !p.events.Send(ctx, webhook.EventChallengeFailed, account.PlatformLoginID, false, freeTrialExpiredReason) {
		log.Errorf("[JobQueue] Failed to send webhook for free trial expiration: %s", account.UUID)
	}

	if err := p.accounts.UpdateStatus(account.UUID, models.AccountStatusInactive); err != nil {
		return fmt.Errorf("disable platform account: %w", err)
	}

	if err := p.activity.Store(ctx, activitylog.Entry{
		UserUUID:  account.UserUUID,
		Action:    models.ActionFreeTrialExpired,
		Metadata:  "Free trial account expired and disabled - " + account.PlatformLoginID,
		UserType:  models.ActorTypeSystem,
		EventType: models.EventTypeFreeTrial,
		CreatedBy: models.ActorTypeSystem,
	}); err != nil {
		log.Errorf("[JobQueue] Activity log for expired trial %s failed: %v", account.UUID, err)
	}

	log.Infof("[JobQueue] Free trial account disabled: %s", account.UUID)
	return nil
}
