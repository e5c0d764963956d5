package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/dispensary-pos/pkg/types"
)

// InventoryItem tracks a sellable product with independent available and
// reserved counters.
type InventoryItem struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name              string               `gorm:"column:name;not null" json:"name"`
	Category          string               `gorm:"column:category;not null;index" json:"category"`
	PricingOptions    types.PricingOptions `gorm:"column:pricing_options;type:jsonb;not null" json:"pricingOptions"`
	AvailableStock    int                  `gorm:"column:available_stock;not null;default:0" json:"availableStock"`
	ReservedStock     int                  `gorm:"column:reserved_stock;not null;default:0" json:"reservedStock"`
	CostPrice         decimal.Decimal      `gorm:"column:cost_price;type:numeric(12,2);not null;default:0" json:"costPrice"`
	LowStockThreshold int                  `gorm:"column:low_stock_threshold;not null;default:0" json:"lowStockThreshold"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (InventoryItem) TableName() string { return "inventory_items" }

func (i *InventoryItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
