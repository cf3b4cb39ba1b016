package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	GroupTypeChallenge   = "challenge"
	GroupTypeCompetition = "competition"
)

// Account stages and types accepted by platform groups and accounts.
const (
	AccountStageTrial   = "trial"
	AccountStageSingle  = "single"
	AccountStageDouble  = "double"
	AccountStageTriple  = "triple"
	AccountStageInstant = "instant"

	AccountTypeStandard   = "standard"
	AccountTypeAggressive = "aggressive"
)

// PlatformGroup is a reusable account template on the trading engine. Nullable
// numeric columns are fallback layers during settings resolution; nil means
// "not set" and is never read as an explicit zero.
type PlatformGroup struct {
	UUID             string          `gorm:"type:char(36);primaryKey" json:"uuid"`
	Name             string          `gorm:"type:varchar(191);not null" json:"name"`
	Description      string          `gorm:"type:varchar(255);default:null" json:"description"`
	PlatformName     string          `gorm:"type:varchar(50);default:'mt5';index:idx_platform_groups_lookup,priority:4" json:"platform_name"`
	GroupType        string          `gorm:"type:varchar(20);default:'challenge';index:idx_platform_groups_lookup,priority:5" json:"group_type"`
	InitialBalance   decimal.Decimal `gorm:"type:decimal(12,2);default:0;index:idx_platform_groups_lookup,priority:1" json:"initial_balance"`
	AccountStage     string          `gorm:"type:varchar(20);default:'trial';index:idx_platform_groups_lookup,priority:2" json:"account_stage"`
	AccountType      string          `gorm:"type:varchar(20);default:'standard';index:idx_platform_groups_lookup,priority:3" json:"account_type"`
	ProfitTarget     *float64        `json:"profit_target"`
	ProfitSplit      *float64        `json:"profit_split"`
	MaxDrawdown      *float64        `json:"max_drawdown"`
	MaxDailyDrawdown *float64        `json:"max_daily_drawdown"`
	MaxTradingDays   *int            `json:"max_trading_days"`
	AccountLeverage  *int            `json:"account_leverage"`
	Prices           decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"prices"`
	Status           bool            `gorm:"default:true;index" json:"status"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (g *PlatformGroup) BeforeCreate(tx *gorm.DB) error {
	AssignUUID(&g.UUID)
	return nil
}

// Phase keys used by phase-wise settings.
const (
	PhaseOne    = "phase_1"
	PhaseTwo    = "phase_2"
	PhaseThree  = "phase_3"
	PhaseFunded = "funded"
)

// PhaseWiseSetting overrides one setting of a platform group for one phase.
type PhaseWiseSetting struct {
	UUID              string    `gorm:"type:char(36);primaryKey" json:"uuid"`
	PlatformGroupUUID string    `gorm:"type:char(36);not null;uniqueIndex:ux_phase_wise_settings_group_setting_phase,priority:1" json:"platform_group_uuid"`
	SettingName       string    `gorm:"type:varchar(100);not null;uniqueIndex:ux_phase_wise_settings_group_setting_phase,priority:2" json:"setting_name"`
	PhaseKey          string    `gorm:"type:varchar(20);not null;uniqueIndex:ux_phase_wise_settings_group_setting_phase,priority:3;index" json:"phase_key"`
	PhaseValue        *string   `gorm:"type:text" json:"phase_value"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *PhaseWiseSetting) BeforeCreate(tx *gorm.DB) error {
	AssignUUID(&s.UUID)
	return nil
}
