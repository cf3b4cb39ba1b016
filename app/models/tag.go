package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ChallengeTypeChallenge = "Challenge"

	AcquisitionAwarded   = "Awarded"
	AcquisitionPurchased = "Purchased"
	AcquisitionFree      = "Free"
)

// Tag classifies how a platform account was acquired.
type Tag struct {
	UUID                string    `gorm:"type:char(36);primaryKey" json:"uuid"`
	PlatformAccountUUID string    `gorm:"type:char(36);not null;index" json:"platform_account_uuid"`
	ChallengeType       string    `gorm:"type:varchar(50)" json:"challenge_type"`
	AcquisitionMethod   string    `gorm:"type:varchar(50)" json:"acquisition_method"`
	CreatedAt           time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	AssignUUID(&t.UUID)
	return nil
}

// Subtag is a free-form label that admins attach to accounts.
type Subtag struct {
	UUID      string    `gorm:"type:char(36);primaryKey" json:"uuid"`
	Name      string    `gorm:"type:varchar(100);uniqueIndex" json:"name" validate:"required,min=2,max=100"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *Subtag) BeforeCreate(tx *gorm.DB) error {
	AssignUUID(&s.UUID)
	return nil
}

type PlatformAccountSubtag struct {
	UUID                string    `gorm:"type:char(36);primaryKey" json:"uuid"`
	PlatformAccountUUID string    `gorm:"type:char(36);not null;uniqueIndex:ux_account_subtag,priority:1" json:"platform_account_uuid"`
	SubtagUUID          string    `gorm:"type:char(36);not null;uniqueIndex:ux_account_subtag,priority:2" json:"subtag_uuid"`
	CreatedAt           time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (s *PlatformAccountSubtag) BeforeCreate(tx *gorm.DB) error {
	AssignUUID(&s.UUID)
	return nil
}
