package repository

import (
	"time"

	"github.com/propmodel/challenge-admin/app/models"
	"gorm.io/gorm"
)

type freeTrialRepository struct {
	db *gorm.DB
}

// NewFreeTrialRepository creates a new free trial repository instance
func NewFreeTrialRepository(db *gorm.DB) FreeTrialRepository {
	return &freeTrialRepository{db: db}
}

func (r *freeTrialRepository) GetCode(code string) (*models.FreeTrialCode, error) {
	var trial models.FreeTrialCode
	if err := r.db.Where("code = ?", code).First(&trial).Error; err != nil {
		return nil, err
	}
	return &trial, nil
}

// ConsumeCode only touches the row while it is still active, so two
// concurrent consumers cannot both succeed.
func (r *freeTrialRepository) ConsumeCode(codeUUID, userUUID, accountUUID string, at time.Time) (bool, error) {
	result := r.db.Model(&models.FreeTrialCode{}).
		Where("uuid = ? AND status = ?", codeUUID, models.FreeTrialCodeActive).
		Updates(map[string]interface{}{
			"status":                models.FreeTrialCodeConsumed,
			"used_by_user_uuid":     userUUID,
			"platform_account_uuid": accountUUID,
			"used_at":               at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// GetSettings loads the active singleton row by its key.
func (r *freeTrialRepository) GetSettings() (*models.FreeTrialSettings, error) {
	var settings models.FreeTrialSettings
	err := r.db.Where("settings_key = ? AND status = ?", models.DefaultSettingsKey, true).First(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}
