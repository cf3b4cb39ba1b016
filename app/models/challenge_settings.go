package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultSettingsKey names the single row of default_challenge_settings and
// free_trial_settings.
const DefaultSettingsKey = "default"

// ChallengeRules are the trading rules copied verbatim from a group (or the
// defaults) onto every newly provisioned account.
type ChallengeRules struct {
	HundredProfitSplit            bool    `gorm:"column:100_profit_split;default:false" json:"100_profit_split"`
	TwoPercentLowerTarget         bool    `gorm:"column:2_percent_lower_target;default:false" json:"2_percent_lower_target"`
	TwoPercentMoreDailyDrawdown   bool    `gorm:"column:2_percent_more_daily_drawdown;default:false" json:"2_percent_more_daily_drawdown"`
	TwoPercentMoreMaxDrawdown     bool    `gorm:"column:2_percent_more_max_drawdown;default:false" json:"2_percent_more_max_drawdown"`
	AllowExpertAdvisors           bool    `gorm:"default:false" json:"allow_expert_advisors"`
	BreachType                    *string `gorm:"type:varchar(191)" json:"breach_type"`
	CloseAllPositionsOnFriday     bool    `gorm:"default:false" json:"close_all_positions_on_friday"`
	DeleteAccountAfterFailure     *int    `json:"delete_account_after_failure"`
	DeleteAccountAfterFailureUnit *string `gorm:"type:varchar(50)" json:"delete_account_after_failure_unit"`
	DoubleLeverage                bool    `gorm:"default:false" json:"double_leverage"`
	HeldOverTheWeekend            bool    `gorm:"default:false" json:"held_over_the_weekend"`
	InactivityBreachTrigger       *int    `json:"inactivity_breach_trigger"`
	InactivityBreachTriggerUnit   *string `gorm:"type:varchar(50)" json:"inactivity_breach_trigger_unit"`
	MaxOpenLots                   *int    `json:"max_open_lots"`
	MaxRiskPerSymbol              *int    `json:"max_risk_per_symbol"`
	MaxTimePerEvaluationPhase     *int    `json:"max_time_per_evaluation_phase"`
	MaxTimePerEvaluationPhaseUnit *string `gorm:"type:varchar(50)" json:"max_time_per_evaluation_phase_unit"`
	MaxTimePerFundedPhase         *int    `json:"max_time_per_funded_phase"`
	MaxTimePerFundedPhaseUnit     *string `gorm:"type:varchar(50)" json:"max_time_per_funded_phase_unit"`
	MinTimePerPhase               *int    `json:"min_time_per_phase"`
	MinTimePerPhaseUnit           *string `gorm:"type:varchar(50)" json:"min_time_per_phase_unit"`
	NoSLRequired                  bool    `gorm:"column:no_sl_required;default:false" json:"no_sl_required"`
	RequiresStopLoss              bool    `gorm:"default:false" json:"requires_stop_loss"`
	RequiresTakeProfit            bool    `gorm:"default:false" json:"requires_take_profit"`
	TimeBetweenWithdrawals        *int    `json:"time_between_withdrawals"`
	TimeBetweenWithdrawalsUnit    *string `gorm:"type:varchar(50)" json:"time_between_withdrawals_unit"`
	VisibleOnLeaderboard          bool    `gorm:"default:false" json:"visible_on_leaderboard"`
	WithdrawWithin                *int    `json:"withdraw_within"`
	WithdrawWithinUnit            *string `gorm:"type:varchar(50)" json:"withdraw_within_unit"`
}

// AdvancedChallengeSettings belongs either to a platform group (template) or
// to a provisioned platform account (snapshot), never both.
type AdvancedChallengeSettings struct {
	UUID                string          `gorm:"type:char(36);primaryKey" json:"uuid"`
	PlatformGroupUUID   *string         `gorm:"type:char(36);uniqueIndex" json:"platform_group_uuid"`
	PlatformAccountUUID *string         `gorm:"type:char(36);uniqueIndex" json:"platform_account_uuid"`
	ChallengeRules      `gorm:"embedded"`
	ProfitTarget        *float64        `json:"profit_target"`
	ProfitSplit         *float64        `json:"profit_split"`
	MaxDrawdown         *float64        `json:"max_drawdown"`
	MaxDailyDrawdown    *float64        `json:"max_daily_drawdown"`
	ConsistencyScore    *float64        `json:"consistency_score"`
	MinTradingDays      *int            `json:"min_trading_days"`
	MaxTradingDays      *int            `json:"max_trading_days"`
	AccountLeverage     *int            `json:"account_leverage"`
	Prices              decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"prices"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AdvancedChallengeSettings) TableName() string {
	return "advanced_challenge_settings"
}

func (s *AdvancedChallengeSettings) BeforeCreate(tx *gorm.DB) error {
	AssignUUID(&s.UUID)
	return nil
}

// DefaultChallengeSettings is the tenant-wide fallback, stored as a single row
// keyed by DefaultSettingsKey.
type DefaultChallengeSettings struct {
	UUID             string    `gorm:"type:char(36);primaryKey" json:"uuid"`
	SettingsKey      string    `gorm:"type:varchar(32);not null;default:'default';uniqueIndex" json:"settings_key"`
	ChallengeRules   `gorm:"embedded"`
	AccountLeverage  *int      `json:"account_leverage"`
	ProfitSplit      *float64  `json:"profit_split"`
	ProfitTarget     *float64  `json:"profit_target"`
	MaxDrawdown      *float64  `json:"max_drawdown"`
	MaxDailyDrawdown *float64  `json:"max_daily_drawdown"`
	MaxTradingDays   *int      `json:"max_trading_days"`
	MinTradingDays   *int      `json:"min_trading_days"`
	UpdatedBy        *string   `gorm:"type:char(36)" json:"updated_by"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (DefaultChallengeSettings) TableName() string {
	return "default_challenge_settings"
}

func (s *DefaultChallengeSettings) BeforeCreate(tx *gorm.DB) error {
	AssignUUID(&s.UUID)
	if s.SettingsKey == "" {
		s.SettingsKey = DefaultSettingsKey
	}
	return nil
}
