package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ActionTypeChallenge          = "challenge"
	ActionTypeFreeTrialChallenge = "free_trial_challenge"

	AwardTypeFreeTrial = "FREE_TRIAL"

	AccountStatusInactive = 0
	AccountStatusActive   = 1
)

// PlatformAccount is a provisioned trading account. The rule columns are a
// snapshot of the settings resolved for phase 1 at provisioning time.
type PlatformAccount struct {
	UUID              string          `gorm:"type:char(36);primaryKey" json:"uuid"`
	UserUUID          string          `gorm:"type:char(36);not null;index" json:"user_uuid"`
	PurchaseUUID      string          `gorm:"type:char(36);not null;index" json:"purchase_uuid"`
	PlatformGroupUUID string          `gorm:"type:char(36);not null;index" json:"platform_group_uuid"`
	RemoteGroupName   string          `gorm:"type:varchar(191)" json:"remote_group_name"`
	PlatformName      string          `gorm:"type:varchar(50)" json:"platform_name"`
	PlatformLoginID   string          `gorm:"type:varchar(64);index" json:"platform_login_id"`
	MainPassword      string          `gorm:"type:varchar(191)" json:"-"`
	InvestorPassword  string          `gorm:"type:varchar(191)" json:"-"`
	InitialBalance    decimal.Decimal `gorm:"type:decimal(12,2)" json:"initial_balance"`
	CurrentBalance    decimal.Decimal `gorm:"type:decimal(12,2)" json:"current_balance"`
	CurrentEquity     decimal.Decimal `gorm:"type:decimal(12,2)" json:"current_equity"`
	AccountStage      string          `gorm:"type:varchar(20)" json:"account_stage"`
	AccountType       string          `gorm:"type:varchar(20)" json:"account_type"`
	ActionType        string          `gorm:"type:varchar(50)" json:"action_type"`
	AwardType         string          `gorm:"type:varchar(50);index" json:"award_type"`
	CurrentPhase      int             `gorm:"default:1" json:"current_phase"`
	ProfitTarget      float64         `json:"profit_target"`
	ProfitSplit       float64         `json:"profit_split"`
	MaxDrawdown       float64         `json:"max_drawdown"`
	MaxDailyDrawdown  float64         `json:"max_daily_drawdown"`
	ConsistencyScore  float64         `json:"consistency_score"`
	MinTradingDays    int             `json:"min_trading_days"`
	AccountLeverage   int             `json:"account_leverage"`
	Status            int             `gorm:"default:1;index" json:"status"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// ExpirationCancelledAt is set when an admin cancels the free-trial expiry.
	ExpirationCancelledAt *time.Time `gorm:"index" json:"expiration_cancelled_at,omitempty"`
}

func (a *PlatformAccount) BeforeCreate(tx *gorm.DB) error {
	AssignUUID(&a.UUID)
	return nil
}

// IsFreeTrial reports whether the account came from the free-trial path.
func (a *PlatformAccount) IsFreeTrial() bool {
	return a.AwardType == AwardTypeFreeTrial
}

// ExpirationCancelled reports whether the free-trial expiry was cancelled.
func (a *PlatformAccount) ExpirationCancelled() bool {
	return a.ExpirationCancelledAt != nil
}

// IsActive reports whether the account has not been disabled yet.
func (a *PlatformAccount) IsActive() bool {
	return a.Status == AccountStatusActive
}
