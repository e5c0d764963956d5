package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/dispensary-pos/pkg/enums"
	"github.com/angelmondragon/dispensary-pos/pkg/types"
)

// Invoice bills either a linked order or a free list of items.
type Invoice struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	InvoiceNumber string              `gorm:"column:invoice_number;not null;uniqueIndex" json:"invoiceNumber"`
	Items         types.InvoiceItems  `gorm:"column:items_json;type:jsonb;not null" json:"items"`
	Subtotal      decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null" json:"subtotal"`
	VATRate       decimal.Decimal     `gorm:"column:vat_rate;type:numeric(5,4);not null;default:0" json:"vatRate"`
	VAT           decimal.Decimal     `gorm:"column:vat;type:numeric(12,2);not null;default:0" json:"vat"`
	Total         decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null" json:"total"`
	OrderID       *uuid.UUID          `gorm:"column:order_id;type:uuid;index" json:"orderId"`
	MemberUID     *uuid.UUID          `gorm:"column:member_uid;type:uuid" json:"memberUid"`
	CustomerName  string              `gorm:"column:customer_name;not null" json:"customerName"`
	CustomerEmail *string             `gorm:"column:customer_email" json:"customerEmail"`
	Status        enums.InvoiceStatus `gorm:"column:status;type:text;not null;default:'issued'" json:"status"`
	SentAt        *time.Time          `gorm:"column:sent_at" json:"sentAt"`
	PaidAt        *time.Time          `gorm:"column:paid_at" json:"paidAt"`
	VoidedAt      *time.Time          `gorm:"column:voided_at" json:"voidedAt"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (i *Invoice) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
