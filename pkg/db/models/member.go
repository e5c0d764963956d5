package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Member is a loyalty customer. TotalPurchases only ever grows.
type Member struct {
	UID            uuid.UUID       `gorm:"column:uid;type:uuid;primaryKey" json:"uid"`
	CardNumber     string          `gorm:"column:card_number;not null;uniqueIndex" json:"cardNumber"`
	Name           string          `gorm:"column:name;not null" json:"name"`
	Phone          *string         `gorm:"column:phone" json:"phone"`
	Email          *string         `gorm:"column:email" json:"email"`
	Tier           string          `gorm:"column:tier;not null;index" json:"tier"`
	TotalPurchases decimal.Decimal `gorm:"column:total_purchases;type:numeric(14,2);not null;default:0" json:"totalPurchases"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (m *Member) BeforeCreate(*gorm.DB) error {
	if m.UID == uuid.Nil {
		m.UID = uuid.New()
	}
	return nil
}
