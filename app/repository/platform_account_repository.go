package repository

import (
	"time"

	"github.com/propmodel/challenge-admin/app/models"
	"gorm.io/gorm"
)

type platformAccountRepository struct {
	db *gorm.DB
}

// NewPlatformAccountRepository creates a new platform account repository instance
func NewPlatformAccountRepository(db *gorm.DB) PlatformAccountRepository {
	return &platformAccountRepository{db: db}
}

func (r *platformAccountRepository) Create(account *models.PlatformAccount) error {
	return r.db.Create(account).Error
}

func (r *platformAccountRepository) GetByUUID(uuid string) (*models.PlatformAccount, error) {
	var account models.PlatformAccount
	if err := r.db.Where("uuid = ?", uuid).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// CountByAwardType counts accounts of an award type across all users.
func (r *platformAccountRepository) CountByAwardType(awardType string) (int64, error) {
	var count int64
	err := r.db.Model(&models.PlatformAccount{}).Where("award_type = ?", awardType).Count(&count).Error
	return count, err
}

func (r *platformAccountRepository) CountByUserAndAwardType(userUUID, awardType string) (int64, error) {
	var count int64
	err := r.db.Model(&models.PlatformAccount{}).
		Where("user_uuid = ? AND award_type = ?", userUUID, awardType).
		Count(&count).Error
	return count, err
}

func (r *platformAccountRepository) ListActiveByAwardType(awardType string) ([]models.PlatformAccount, error) {
	var accounts []models.PlatformAccount
	err := r.db.
		Where("award_type = ? AND status = ?", awardType, models.AccountStatusActive).
		Order("created_at ASC").
		Find(&accounts).Error
	return accounts, err
}

func (r *platformAccountRepository) UpdateStatus(uuid string, status int) error {
	return r.db.Model(&models.PlatformAccount{}).Where("uuid = ?", uuid).Update("status", status).Error
}

// MarkExpirationCancelled keeps the first cancellation time when called twice.
func (r *platformAccountRepository) MarkExpirationCancelled(uuid string, at time.Time) error {
	return r.db.Model(&models.PlatformAccount{}).
		Where("uuid = ? AND expiration_cancelled_at IS NULL", uuid).
		Update("expiration_cancelled_at", at).Error
}
