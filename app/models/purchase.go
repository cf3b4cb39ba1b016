package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	PaymentMethodAward = "AWARD"

	PaymentStatusPending = 0
	PaymentStatusPaid    = 1

	PurchaseTypeChallenge = "challenge"

	CurrencyUSD = "USD"
)

// PurchaseUserData is stored as JSON in purchases.user_data.
type PurchaseUserData struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type Purchase struct {
	UUID                 string          `gorm:"type:char(36);primaryKey" json:"uuid"`
	UserUUID             string          `gorm:"type:char(36);not null;index" json:"user_uuid"`
	UserData             datatypes.JSON  `json:"user_data"`
	Amount               decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	AmountBeforeDiscount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount_before_discount"`
	Currency             string          `gorm:"type:varchar(10);default:'USD'" json:"currency"`
	PurchaseType         string          `gorm:"type:varchar(50);default:'challenge'" json:"purchase_type"`
	PaymentMethod        string          `gorm:"type:varchar(50);not null" json:"payment_method"`
	PaymentStatus        int             `gorm:"default:0" json:"payment_status"`
	PaymentTransactionID *string         `gorm:"type:varchar(191)" json:"payment_transaction_id"`
	DiscountUUID         *string         `gorm:"type:char(36);index" json:"discount_uuid"`
	CreatedAt            time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Purchase) BeforeCreate(tx *gorm.DB) error {
	AssignUUID(&p.UUID)
	return nil
}

// SetUserData encodes the payer's name into the JSON column.
func (p *Purchase) SetUserData(d PurchaseUserData) {
	p.UserData = datatypes.JSON(mustJSON(d))
}
