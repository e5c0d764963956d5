package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MembershipTier maps a tier name to its discount fraction.
type MembershipTier struct {
	Name      string          `gorm:"column:name;primaryKey" json:"name"`
	Rate      decimal.Decimal `gorm:"column:rate;type:numeric(5,4);not null;default:0" json:"rate"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
