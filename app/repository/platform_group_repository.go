package repository

import (
	"github.com/propmodel/challenge-admin/app/models"
	"gorm.io/gorm"
)

type platformGroupRepository struct {
	db *gorm.DB
}

// NewPlatformGroupRepository creates a new platform group repository instance
func NewPlatformGroupRepository(db *gorm.DB) PlatformGroupRepository {
	return &platformGroupRepository{db: db}
}

func (r *platformGroupRepository) GetByUUID(uuid string) (*models.PlatformGroup, error) {
	var group models.PlatformGroup
	if err := r.db.Where("uuid = ?", uuid).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// FindChallengeGroup matches the composite key exactly, restricted to
// challenge groups.
func (r *platformGroupRepository) FindChallengeGroup(q ChallengeGroupQuery) (*models.PlatformGroup, error) {
	var group models.PlatformGroup
	err := r.db.
		Where("initial_balance = ?", q.InitialBalance).
		Where("account_stage = ?", q.AccountStage).
		Where("account_type = ?", q.AccountType).
		Where("platform_name = ?", q.PlatformName).
		Where("group_type = ?", models.GroupTypeChallenge).
		First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}
