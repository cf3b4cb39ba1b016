package repository

import (
	"github.com/propmodel/challenge-admin/app/models"
	"gorm.io/gorm"
)

type discountCodeRepository struct {
	db *gorm.DB
}

// NewDiscountCodeRepository creates a new discount code repository instance
func NewDiscountCodeRepository(db *gorm.DB) DiscountCodeRepository {
	return &discountCodeRepository{db: db}
}

func (r *discountCodeRepository) GetByName(name string) (*models.DiscountCode, error) {
	var code models.DiscountCode
	if err := r.db.Where("name = ?", name).First(&code).Error; err != nil {
		return nil, err
	}
	return &code, nil
}
