package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/dispensary-pos/pkg/enums"
	"github.com/angelmondragon/dispensary-pos/pkg/types"
)

// Transaction is a completed counter sale. Rows are never updated.
type Transaction struct {
	ID             uuid.UUID              `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	MemberUID      *uuid.UUID             `gorm:"column:member_uid;type:uuid;index" json:"memberUid"`
	Items          types.TransactionItems `gorm:"column:items;type:jsonb;not null" json:"items"`
	Subtotal       decimal.Decimal        `gorm:"column:subtotal;type:numeric(12,2);not null" json:"subtotal"`
	DiscountMode   enums.DiscountMode     `gorm:"column:discount_mode;type:text;not null;default:'none'" json:"discountMode"`
	DiscountRate   decimal.Decimal        `gorm:"column:discount_rate;type:numeric(7,4);not null;default:0" json:"discountRate"`
	DiscountAmount decimal.Decimal        `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0" json:"discountAmount"`
	TaxRate        decimal.Decimal        `gorm:"column:tax_rate;type:numeric(5,4);not null;default:0" json:"taxRate"`
	TaxAmount      decimal.Decimal        `gorm:"column:tax_amount;type:numeric(12,2);not null;default:0" json:"taxAmount"`
	FinalTotal     decimal.Decimal        `gorm:"column:final_total;type:numeric(12,2);not null" json:"finalTotal"`
	PaymentMethod  enums.PaymentMethod    `gorm:"column:payment_method;type:text;not null" json:"paymentMethod"`
	DealerID       uuid.UUID              `gorm:"column:dealer_id;type:uuid;not null" json:"dealerId"`
	Comment        *string                `gorm:"column:comment" json:"comment"`
	CreatedAt      time.Time              `gorm:"column:created_at;autoCreateTime;index" json:"createdAt"`
}

func (t *Transaction) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
