package challenge

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/propmodel/challenge-admin/app/models"
	"github.com/propmodel/challenge-admin/app/repository"
	"github.com/propmodel/challenge-admin/internal/pkg/activitylog"
	"github.com/propmodel/challenge-admin/internal/pkg/mail"
	"github.com/propmodel/challenge-admin/internal/pkg/metrics"
	"github.com/propmodel/challenge-admin/internal/pkg/tradingengine"
)

const (
	workflowAward     = "award"
	workflowFreeTrial = "free_trial"
)

// provisionRequest is one account to provision for one user.
type provisionRequest struct {
	workflow     string
	group        *models.PlatformGroup
	user         *models.User
	actorUUID    string
	subtagUUIDs  []string
	awardType    string
	discount     *models.DiscountCode
	paymentTxnID string
	defaults     *models.DefaultChallengeSettings

	// guard runs first inside the transaction.
	guard func(repos *repository.Repositories) error
	// finalize runs last inside the transaction.
	finalize func(repos *repository.Repositories, account *models.PlatformAccount) error
	// activity builds the audit entry written after commit.
	activity func(account *models.PlatformAccount) activitylog.Entry
	// strictActivityLog turns an activity log failure into an error.
	strictActivityLog bool
}

// provisionOutcome is the result of one attempt. A decline by the trading
// engine is a normal outcome, not an error.
type provisionOutcome struct {
	Account  *models.PlatformAccount
	Declined bool
	Reason   string
}

// provision creates the remote account, persists the local records in one
// transaction and then runs the post-commit side effects.
func (s *Service) provision(ctx context.Context, req provisionRequest) (provisionOutcome, error) {
	layers, err := loadSettingsLayers(s.repos.Settings, req.group, models.PhaseOne, req.defaults)
	if err != nil {
		metrics.Provisioning.WithLabelValues(req.workflow, metrics.OutcomeError).Inc()
		return provisionOutcome{}, err
	}
	resolved := layers.resolve()

	res := s.engine.CreateAccount(ctx, tradingengine.CreateAccountRequest{
		Name:           req.user.FullName(),
		Email:          req.user.Email,
		Group:          req.group.Name,
		InitialBalance: req.group.InitialBalance.InexactFloat64(),
		InitialTarget:  resolved.ProfitTarget,
		Leverage:       resolved.AccountLeverage,
	})
	if !res.Success || res.Credentials == nil {
		log.Warnf("[Challenge] Trading engine declined account for %s (status %d): %s", req.user.Email, res.StatusCode, res.Error)
		metrics.Provisioning.WithLabelValues(req.workflow, metrics.OutcomeDeclined).Inc()
		return provisionOutcome{Declined: true, Reason: res.Error}, nil
	}

	account := s.newAccount(req, resolved, res.Credentials)
	err = s.tx.WithinTransaction(ctx, func(repos *repository.Repositories) error {
		if req.guard != nil {
			if err := req.guard(repos); err != nil {
				return err
			}
		}
		return s.persist(repos, req, layers, resolved, account)
	})
	if err != nil {
		// The remote account exists but nothing local points at it.
		log.Errorf("[Challenge] Orphaned remote account: login %s for %s (group %s) was created but local records failed: %v",
			account.PlatformLoginID, req.user.Email, req.group.Name, err)
		metrics.OrphanedRemoteAccounts.WithLabelValues(req.workflow).Inc()
		metrics.Provisioning.WithLabelValues(req.workflow, metrics.OutcomeError).Inc()
		return provisionOutcome{}, err
	}

	if err := s.afterCommit(ctx, req, account); err != nil {
		metrics.Provisioning.WithLabelValues(req.workflow, metrics.OutcomeError).Inc()
		return provisionOutcome{Account: account}, err
	}

	metrics.Provisioning.WithLabelValues(req.workflow, metrics.OutcomeProvisioned).Inc()
	return provisionOutcome{Account: account}, nil
}

func (s *Service) newAccount(req provisionRequest, resolved EffectiveSettings, creds *tradingengine.AccountCredentials) *models.PlatformAccount {
	actionType := models.ActionTypeChallenge
	if req.awardType == models.AwardTypeFreeTrial {
		actionType = models.ActionTypeFreeTrialChallenge
	}
	account := &models.PlatformAccount{
		UserUUID:          req.user.UUID,
		PlatformGroupUUID: req.group.UUID,
		RemoteGroupName:   req.group.Name,
		PlatformName:      req.group.PlatformName,
		PlatformLoginID:   creds.Login,
		MainPassword:      creds.MainPassword,
		InvestorPassword:  creds.InvestorPassword,
		InitialBalance:    req.group.InitialBalance,
		CurrentBalance:    req.group.InitialBalance,
		CurrentEquity:     req.group.InitialBalance,
		AccountStage:      req.group.AccountStage,
		AccountType:       req.group.AccountType,
		ActionType:        actionType,
		AwardType:         req.awardType,
		CurrentPhase:      1,
		ProfitTarget:      resolved.ProfitTarget,
		ProfitSplit:       resolved.ProfitSplit,
		MaxDrawdown:       resolved.MaxDrawdown,
		MaxDailyDrawdown:  resolved.MaxDailyDrawdown,
		ConsistencyScore:  resolved.ConsistencyScore,
		MinTradingDays:    resolved.MinTradingDays,
		AccountLeverage:   resolved.AccountLeverage,
		Status:            models.AccountStatusActive,
	}
	models.AssignUUID(&account.UUID)
	return account
}

// persist writes purchase, account, settings snapshot, tag and subtag
// attachments. Any error rolls all of them back.
func (s *Service) persist(repos *repository.Repositories, req provisionRequest, layers settingsLayers, resolved EffectiveSettings, account *models.PlatformAccount) error {
	purchase := &models.Purchase{
		UserUUID:             req.user.UUID,
		Amount:               req.discount.ApplyTo(req.group.Prices),
		AmountBeforeDiscount: req.group.Prices,
		Currency:             models.CurrencyUSD,
		PurchaseType:         models.PurchaseTypeChallenge,
		PaymentMethod:        models.PaymentMethodAward,
		PaymentStatus:        models.PaymentStatusPaid,
	}
	models.AssignUUID(&purchase.UUID)
	purchase.SetUserData(models.PurchaseUserData{FirstName: req.user.FirstName, LastName: req.user.LastName})
	if req.discount != nil {
		purchase.DiscountUUID = &req.discount.UUID
	}
	if txn := strings.TrimSpace(req.paymentTxnID); txn != "" {
		purchase.PaymentTransactionID = &txn
	}
	if err := repos.Purchase.Create(purchase); err != nil {
		return fmt.Errorf("create purchase: %w", err)
	}

	account.PurchaseUUID = purchase.UUID
	if err := repos.PlatformAccount.Create(account); err != nil {
		return fmt.Errorf("create platform account: %w", err)
	}

	if err := repos.Settings.CreateAdvanced(layers.accountSettings(account.UUID, resolved)); err != nil {
		return fmt.Errorf("create account settings: %w", err)
	}

	tag := &models.Tag{
		PlatformAccountUUID: account.UUID,
		ChallengeType:       models.ChallengeTypeChallenge,
		AcquisitionMethod:   models.AcquisitionAwarded,
	}
	if err := repos.Tag.Create(tag); err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	if len(req.subtagUUIDs) > 0 {
		if err := repos.Tag.AttachSubtags(account.UUID, req.subtagUUIDs); err != nil {
			return fmt.Errorf("attach subtags: %w", err)
		}
	}

	if req.finalize != nil {
		return req.finalize(repos, account)
	}
	return nil
}

// afterCommit runs email, activity log and expiration scheduling. Each step
// is isolated from the others; only a strict activity log failure is
// returned.
func (s *Service) afterCommit(ctx context.Context, req provisionRequest, account *models.PlatformAccount) error {
	if s.mailer != nil {
		err := s.mailer.SendChallengeCredentials(ctx, req.user.Email, mail.ChallengeCredentials{
			FirstName:        req.user.FirstName,
			AccountType:      account.AccountType,
			AccountBalance:   account.InitialBalance.StringFixed(2),
			AccountStages:    account.AccountStage,
			AccountNumber:    account.PlatformLoginID,
			AccountPassword:  account.MainPassword,
			InvestorPassword: account.InvestorPassword,
		})
		if err != nil {
			log.Errorf("[Challenge] Failed to send credentials email for account %s: %v", account.UUID, err)
			metrics.SideEffectFailures.WithLabelValues(metrics.EffectEmail).Inc()
		}
	}

	var activityErr error
	if s.activity != nil && req.activity != nil {
		if err := s.activity.Store(ctx, req.activity(account)); err != nil {
			metrics.SideEffectFailures.WithLabelValues(metrics.EffectActivityLog).Inc()
			if req.strictActivityLog {
				activityErr = err
			} else {
				log.Errorf("[Challenge] Failed to store activity log for account %s: %v", account.UUID, err)
			}
		}
	}

	if req.awardType == models.AwardTypeFreeTrial && s.scheduler != nil {
		if err := s.scheduler.ScheduleFreeTrialExpiration(ctx, account.UUID, s.cfg.FreeTrialExpiry); err != nil {
			log.Errorf("[Challenge] Failed to schedule expiration for account %s: %v", account.UUID, err)
			metrics.SideEffectFailures.WithLabelValues(metrics.EffectSchedule).Inc()
		}
	}

	return activityErr
}
