package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/dispensary-pos/pkg/enums"
	"github.com/angelmondragon/dispensary-pos/pkg/types"
)

// Order is a pending reservation that ends fulfilled or cancelled.
type Order struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	MemberUID    uuid.UUID         `gorm:"column:member_uid;type:uuid;not null;index" json:"memberUid"`
	DealerID     uuid.UUID         `gorm:"column:dealer_id;type:uuid;not null" json:"dealerId"`
	Items        types.OrderItems  `gorm:"column:items;type:jsonb;not null" json:"items"`
	TotalPrice   decimal.Decimal   `gorm:"column:total_price;type:numeric(12,2);not null" json:"totalPrice"`
	Status       enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending';index" json:"status"`
	CancelReason *string           `gorm:"column:cancel_reason" json:"cancelReason"`
	FulfilledAt  *time.Time        `gorm:"column:fulfilled_at" json:"fulfilledAt"`
	CancelledAt  *time.Time        `gorm:"column:cancelled_at" json:"cancelledAt"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
