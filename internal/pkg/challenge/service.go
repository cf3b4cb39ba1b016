package challenge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/propmodel/challenge-admin/app/models"
	"github.com/propmodel/challenge-admin/app/repository"
	"github.com/propmodel/challenge-admin/internal/pkg/activitylog"
	"github.com/propmodel/challenge-admin/internal/pkg/mail"
	"github.com/propmodel/challenge-admin/internal/pkg/tradingengine"
	"gorm.io/gorm"
)

// AccountCreator creates accounts on the trading engine.
type AccountCreator interface {
	CreateAccount(ctx context.Context, req tradingengine.CreateAccountRequest) tradingengine.CreateAccountResult
}

// CredentialsMailer delivers the credentials of a new account.
type CredentialsMailer interface {
	SendChallengeCredentials(ctx context.Context, to string, data mail.ChallengeCredentials) error
}

// ActivityRecorder stores audit entries.
type ActivityRecorder interface {
	Store(ctx context.Context, entry activitylog.Entry) error
}

// ExpirationScheduler schedules the disabling of free-trial accounts.
type ExpirationScheduler interface {
	ScheduleFreeTrialExpiration(ctx context.Context, platformAccountUUID string, delay time.Duration) error
}

// Deps are the collaborators of a Service. Mailer, Activity and Scheduler
// are optional; a nil value skips that side effect.
type Deps struct {
	Repos      *repository.Repositories
	Transactor repository.Transactor
	Engine     AccountCreator
	Mailer     CredentialsMailer
	Activity   ActivityRecorder
	Scheduler  ExpirationScheduler
}

// Service runs the award and free-trial provisioning workflows.
type Service struct {
	cfg       Config
	repos     *repository.Repositories
	tx        repository.Transactor
	engine    AccountCreator
	mailer    CredentialsMailer
	activity  ActivityRecorder
	scheduler ExpirationScheduler
	now       func() time.Time
}

// NewService creates a provisioning service.
func NewService(cfg Config, deps Deps) *Service {
	return &Service{
		cfg:       cfg,
		repos:     deps.Repos,
		tx:        deps.Transactor,
		engine:    deps.Engine,
		mailer:    deps.Mailer,
		activity:  deps.Activity,
		scheduler: deps.Scheduler,
		now:       time.Now,
	}
}

// AccountSummary describes a provisioned account to the caller.
type AccountSummary struct {
	PlatformAccountUUID string     `json:"platform_account_uuid"`
	PlatformLoginID     string     `json:"platform_login_id"`
	AccountType         string     `json:"account_type"`
	AccountStage        string     `json:"account_stage"`
	InitialBalance      string     `json:"initial_balance"`
	ExpiresAt           *time.Time `json:"expires_at,omitempty"`
}

func summarize(account *models.PlatformAccount) *AccountSummary {
	return &AccountSummary{
		PlatformAccountUUID: account.UUID,
		PlatformLoginID:     account.PlatformLoginID,
		AccountType:         account.AccountType,
		AccountStage:        account.AccountStage,
		InitialBalance:      account.InitialBalance.StringFixed(2),
	}
}

// loadDefaults fetches the default settings row once per operation. A
// missing row is not an error.
func (s *Service) loadDefaults() (*models.DefaultChallengeSettings, error) {
	defaults, err := s.repos.Settings.GetDefaults()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load default settings: %w", err)
	}
	return defaults, nil
}
