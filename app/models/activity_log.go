package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ActionAwardedChallenge = "AWARDED_CHALLENGE"
	ActionFreeTrialCreated = "FREE_TRIAL_CREATED"
	ActionFreeTrialExpired = "FREE_TRIAL_EXPIRED"

	ActorTypeAdmin  = "ADMIN_USER"
	ActorTypeUser   = "USER"
	ActorTypeSystem = "SYSTEM"

	EventTypeChallenge = "CHALLENGE"
	EventTypeFreeTrial = "FREE_TRIAL"
)

type ActivityLog struct {
	UUID      string    `gorm:"type:char(36);primaryKey" json:"uuid"`
	UserUUID  string    `gorm:"type:char(36);index" json:"user_uuid"`
	Action    string    `gorm:"type:varchar(100);index" json:"action"`
	Metadata  string    `gorm:"type:text" json:"metadata"`
	UserType  string    `gorm:"type:varchar(50)" json:"user_type"`
	EventType string    `gorm:"type:varchar(50)" json:"event_type"`
	CreatedBy string    `gorm:"type:varchar(64)" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (l *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	AssignUUID(&l.UUID)
	return nil
}
