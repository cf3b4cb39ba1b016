package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	FreeTrialCodeConsumed = 0
	FreeTrialCodeActive   = 1

	DefaultFreeTrialsPerUser = 1
)

// FreeTrialCode is a single-use token gating free-trial creation.
type FreeTrialCode struct {
	UUID                string     `gorm:"type:char(36);primaryKey" json:"uuid"`
	Code                string     `gorm:"type:varchar(64);uniqueIndex" json:"code"`
	Status              int        `gorm:"default:1;index" json:"status"`
	UsedByUserUUID      *string    `gorm:"type:char(36)" json:"used_by_user_uuid"`
	PlatformAccountUUID *string    `gorm:"type:char(36)" json:"platform_account_uuid"`
	UsedAt              *time.Time `json:"used_at"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *FreeTrialCode) BeforeCreate(tx *gorm.DB) error {
	AssignUUID(&c.UUID)
	return nil
}

func (c *FreeTrialCode) IsActive() bool {
	return c.Status == FreeTrialCodeActive
}

type FreeTrialSettings struct {
	UUID              string    `gorm:"type:char(36);primaryKey" json:"uuid"`
	SettingsKey       string    `gorm:"type:varchar(32);not null;default:'default';uniqueIndex" json:"settings_key"`
	EnableFreeTrials  bool      `gorm:"default:false" json:"enable_free_trials"`
	MaxTrialsPerUser  *int      `json:"max_trials_per_user"`
	PlatformGroupUUID *string   `gorm:"type:char(36)" json:"platform_group_uuid"`
	Status            bool      `gorm:"default:true" json:"status"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (FreeTrialSettings) TableName() string {
	return "free_trial_settings"
}

func (s *FreeTrialSettings) BeforeCreate(tx *gorm.DB) error {
	AssignUUID(&s.UUID)
	if s.SettingsKey == "" {
		s.SettingsKey = DefaultSettingsKey
	}
	return nil
}

// PerUserCap is the configured per-user limit, or DefaultFreeTrialsPerUser
// when unset.
func (s *FreeTrialSettings) PerUserCap() int {
	if s.MaxTrialsPerUser == nil {
		return DefaultFreeTrialsPerUser
	}
	return *s.MaxTrialsPerUser
}
