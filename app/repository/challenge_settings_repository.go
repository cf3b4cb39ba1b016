package repository

import (
	"github.com/propmodel/challenge-admin/app/models"
	"gorm.io/gorm"
)

type challengeSettingsRepository struct {
	db *gorm.DB
}

// NewChallengeSettingsRepository creates a new settings repository instance
func NewChallengeSettingsRepository(db *gorm.DB) ChallengeSettingsRepository {
	return &challengeSettingsRepository{db: db}
}

// GetPhaseSettings returns all overrides of one group for one phase.
func (r *challengeSettingsRepository) GetPhaseSettings(groupUUID, phaseKey string) ([]models.PhaseWiseSetting, error) {
	var rows []models.PhaseWiseSetting
	err := r.db.
		Where("platform_group_uuid = ? AND phase_key = ?", groupUUID, phaseKey).
		Find(&rows).Error
	return rows, err
}

// GetAdvancedForGroup returns gorm.ErrRecordNotFound when the group has no
// advanced settings row. Most groups have none, so the lookup uses Find to
// keep the miss out of the GORM error log.
func (r *challengeSettingsRepository) GetAdvancedForGroup(groupUUID string) (*models.AdvancedChallengeSettings, error) {
	var settings models.AdvancedChallengeSettings
	result := r.db.Where("platform_group_uuid = ?", groupUUID).Limit(1).Find(&settings)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &settings, nil
}

// GetDefaults loads the singleton row by its key.
func (r *challengeSettingsRepository) GetDefaults() (*models.DefaultChallengeSettings, error) {
	var settings models.DefaultChallengeSettings
	err := r.db.Where("settings_key = ?", models.DefaultSettingsKey).First(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *challengeSettingsRepository) CreateAdvanced(settings *models.AdvancedChallengeSettings) error {
	return r.db.Create(settings).Error
}
