package challenge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/propmodel/challenge-admin/app/models"
	"github.com/propmodel/challenge-admin/app/repository"
	"github.com/propmodel/challenge-admin/internal/pkg/activitylog"
	"gorm.io/gorm"
)

// FreeTrialRequest redeems a trial code for the calling user.
type FreeTrialRequest struct {
	FreeTrialCode string
}

// CreateFreeTrialAccount provisions a free-trial account for userUUID. The
// caps are checked up front and again inside the transaction under a lock
// on the user row; the trial code is consumed in that same transaction.
func (s *Service) CreateFreeTrialAccount(ctx context.Context, req FreeTrialRequest, userUUID string) (*AccountSummary, error) {
	code, err := s.repos.FreeTrial.GetCode(strings.TrimSpace(req.FreeTrialCode))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTrialCodeInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("load free trial code: %w", err)
	}
	if !code.IsActive() {
		return nil, ErrTrialCodeInvalid
	}

	settings, err := s.repos.FreeTrial.GetSettings()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFreeTrialsDisabled
	}
	if err != nil {
		return nil, fmt.Errorf("load free trial settings: %w", err)
	}
	if !settings.EnableFreeTrials {
		return nil, ErrFreeTrialsDisabled
	}

	user, err := s.repos.User.GetByUUID(userUUID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := s.checkFreeTrialCaps(s.repos, user.UUID, settings); err != nil {
		return nil, err
	}

	if settings.PlatformGroupUUID == nil || *settings.PlatformGroupUUID == "" {
		return nil, ErrFreeTrialGroupMissing
	}
	group, err := s.repos.PlatformGroup.GetByUUID(*settings.PlatformGroupUUID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFreeTrialGroupMissing
	}
	if err != nil {
		return nil, fmt.Errorf("load free trial platform group: %w", err)
	}

	defaults, err := s.loadDefaults()
	if err != nil {
		return nil, err
	}

	out, err := s.provision(ctx, provisionRequest{
		workflow:  workflowFreeTrial,
		group:     group,
		user:      user,
		actorUUID: user.UUID,
		awardType: models.AwardTypeFreeTrial,
		defaults:  defaults,
		guard: func(repos *repository.Repositories) error {
			if _, err := repos.User.LockByUUID(user.UUID); err != nil {
				return fmt.Errorf("lock user: %w", err)
			}
			return s.checkFreeTrialCaps(repos, user.UUID, settings)
		},
		finalize: func(repos *repository.Repositories, account *models.PlatformAccount) error {
			ok, err := repos.FreeTrial.ConsumeCode(code.UUID, user.UUID, account.UUID, s.now())
			if err != nil {
				return fmt.Errorf("consume free trial code: %w", err)
			}
			if !ok {
				return ErrTrialCodeInvalid
			}
			return nil
		},
		activity: func(account *models.PlatformAccount) activitylog.Entry {
			return activitylog.Entry{
				UserUUID:  user.UUID,
				Action:    models.ActionFreeTrialCreated,
				Metadata:  fmt.Sprintf("Free trial account created - %s", account.PlatformLoginID),
				UserType:  models.ActorTypeUser,
				EventType: models.EventTypeFreeTrial,
				CreatedBy: user.UUID,
			}
		},
	})
	if err != nil {
		return nil, err
	}
	if out.Declined {
		return nil, fmt.Errorf("%w: %s", ErrAccountDeclined, out.Reason)
	}

	log.Infof("[Challenge] Free trial account %s (login %s) created for user %s", out.Account.UUID, out.Account.PlatformLoginID, user.UUID)
	summary := summarize(out.Account)
	expiresAt := s.now().Add(s.cfg.FreeTrialExpiry)
	summary.ExpiresAt = &expiresAt
	return summary, nil
}

// checkFreeTrialCaps enforces the global cap and, unless disabled, the
// per-user cap.
func (s *Service) checkFreeTrialCaps(repos *repository.Repositories, userUUID string, settings *models.FreeTrialSettings) error {
	total, err := repos.PlatformAccount.CountByAwardType(models.AwardTypeFreeTrial)
	if err != nil {
		return fmt.Errorf("count free trial accounts: %w", err)
	}
	if total >= s.cfg.globalFreeTrialCap() {
		return ErrFreeTrialCapReached
	}

	if s.cfg.AllowMultipleFreeTrials {
		return nil
	}
	mine, err := repos.PlatformAccount.CountByUserAndAwardType(userUUID, models.AwardTypeFreeTrial)
	if err != nil {
		return fmt.Errorf("count user free trial accounts: %w", err)
	}
	if mine >= int64(settings.PerUserCap()) {
		return ErrUserFreeTrialLimit
	}
	return nil
}
