package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DiscountCode struct {
	UUID      string          `gorm:"type:char(36);primaryKey" json:"uuid"`
	Name      string          `gorm:"type:varchar(100);uniqueIndex" json:"name"`
	Discount  decimal.Decimal `gorm:"type:decimal(5,2);default:0" json:"discount"`
	Status    bool            `gorm:"default:true" json:"status"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (d *DiscountCode) BeforeCreate(tx *gorm.DB) error {
	AssignUUID(&d.UUID)
	return nil
}

// ApplyTo returns price reduced by the discount percentage, rounded to cents.
// A non-positive percentage leaves the price untouched.
func (d *DiscountCode) ApplyTo(price decimal.Decimal) decimal.Decimal {
	if d == nil || !d.Discount.IsPositive() {
		return price
	}
	pct := decimal.Min(d.Discount, decimal.NewFromInt(100))
	factor := decimal.NewFromInt(1).Sub(pct.Div(decimal.NewFromInt(100)))
	return price.Mul(factor).Round(2)
}
