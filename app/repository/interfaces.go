package repository

import (
	"context"
	"time"

	"github.com/propmodel/challenge-admin/app/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	GetByUUID(uuid string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByEmails(emails []string) ([]models.User, error)
	// LockByUUID loads the user with a row lock; only meaningful inside a transaction.
	LockByUUID(uuid string) (*models.User, error)
}

// ChallengeGroupQuery is the composite key an award request resolves a group by.
type ChallengeGroupQuery struct {
	InitialBalance decimal.Decimal
	AccountStage   string
	AccountType    string
	PlatformName   string
}

// PlatformGroupRepository defines the interface for platform group lookups
type PlatformGroupRepository interface {
	GetByUUID(uuid string) (*models.PlatformGroup, error)
	FindChallengeGroup(q ChallengeGroupQuery) (*models.PlatformGroup, error)
}

// ChallengeSettingsRepository covers the layered settings tables
type ChallengeSettingsRepository interface {
	GetPhaseSettings(groupUUID, phaseKey string) ([]models.PhaseWiseSetting, error)
	GetAdvancedForGroup(groupUUID string) (*models.AdvancedChallengeSettings, error)
	GetDefaults() (*models.DefaultChallengeSettings, error)
	CreateAdvanced(settings *models.AdvancedChallengeSettings) error
}

// PurchaseRepository defines the interface for purchase records
type PurchaseRepository interface {
	Create(purchase *models.Purchase) error
}

// PlatformAccountRepository defines the interface for provisioned accounts
type PlatformAccountRepository interface {
	Create(account *models.PlatformAccount) error
	GetByUUID(uuid string) (*models.PlatformAccount, error)
	CountByAwardType(awardType string) (int64, error)
	CountByUserAndAwardType(userUUID, awardType string) (int64, error)
	ListActiveByAwardType(awardType string) ([]models.PlatformAccount, error)
	UpdateStatus(uuid string, status int) error
	MarkExpirationCancelled(uuid string, at time.Time) error
}

// TagRepository defines the interface for tags and subtag attachments
type TagRepository interface {
	Create(tag *models.Tag) error
	FindSubtags(uuids []string) ([]models.Subtag, error)
	AttachSubtags(accountUUID string, subtagUUIDs []string) error
}

// DiscountCodeRepository defines the interface for discount code lookups
type DiscountCodeRepository interface {
	GetByName(name string) (*models.DiscountCode, error)
}

// FreeTrialRepository defines the interface for trial codes and settings
type FreeTrialRepository interface {
	GetCode(code string) (*models.FreeTrialCode, error)
	// ConsumeCode flips an active code to consumed. It reports false when the
	// code was no longer active.
	ConsumeCode(codeUUID, userUUID, accountUUID string, at time.Time) (bool, error)
	GetSettings() (*models.FreeTrialSettings, error)
}

// ActivityLogRepository defines the interface for activity log rows
type ActivityLogRepository interface {
	Create(entry *models.ActivityLog) error
}

// Transactor runs fn against repositories bound to a single transaction.
// Returning an error from fn rolls the transaction back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(repos *Repositories) error) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User            UserRepository
	PlatformGroup   PlatformGroupRepository
	Settings        ChallengeSettingsRepository
	Purchase        PurchaseRepository
	PlatformAccount PlatformAccountRepository
	Tag             TagRepository
	DiscountCode    DiscountCodeRepository
	FreeTrial       FreeTrialRepository
	ActivityLog     ActivityLogRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:            NewUserRepository(db),
		PlatformGroup:   NewPlatformGroupRepository(db),
		Settings:        NewChallengeSettingsRepository(db),
		Purchase:        NewPurchaseRepository(db),
		PlatformAccount: NewPlatformAccountRepository(db),
		Tag:             NewTagRepository(db),
		DiscountCode:    NewDiscountCodeRepository(db),
		FreeTrial:       NewFreeTrialRepository(db),
		ActivityLog:     NewActivityLogRepository(db),
	}
}
