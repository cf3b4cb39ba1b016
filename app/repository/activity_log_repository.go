package repository

import (
	"github.com/propmodel/challenge-admin/app/models"
	"gorm.io/gorm"
)

type activityLogRepository struct {
	db *gorm.DB
}

// NewActivityLogRepository creates a new activity log repository instance
func NewActivityLogRepository(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

func (r *activityLogRepository) Create(entry *models.ActivityLog) error {
	return r.db.Create(entry).Error
}
