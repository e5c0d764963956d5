package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PricingOption is one sellable size/weight of an inventory item.
type PricingOption struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Unit  string          `json:"unit"`
}

// PricingOptions is stored as a jsonb array on inventory_items.
type PricingOptions []PricingOption

// Find returns the option with the given id.
func (p PricingOptions) Find(id string) (PricingOption, bool) {
	id = strings.TrimSpace(id)
	for _, opt := range p {
		if opt.ID == id {
			return opt, true
		}
	}
	return PricingOption{}, false
}

// Default returns the first option, which acts as the item's base price.
func (p PricingOptions) Default() (PricingOption, bool) {
	if len(p) == 0 {
		return PricingOption{}, false
	}
	return p[0], true
}
