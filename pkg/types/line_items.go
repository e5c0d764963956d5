package types

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is a reserved line on a pending order.
type OrderItem struct {
	ItemID           uuid.UUID       `json:"itemId"`
	Name             string          `json:"name,omitempty"`
	Quantity         int             `json:"quantity"`
	Price            decimal.Decimal `json:"price"`
	Unit             string          `json:"unit,omitempty"`
	SelectedOptionID string          `json:"selectedOptionId,omitempty"`
}

type OrderItems []OrderItem

// Total sums price × quantity across the lines.
func (o OrderItems) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// TransactionItem is a sold line. ItemCost is the unit cost at time of sale.
type TransactionItem struct {
	ItemID   uuid.UUID       `json:"itemId"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	ItemCost decimal.Decimal `json:"itemCost"`
	Unit     string          `json:"unit,omitempty"`
}

type TransactionItems []TransactionItem

// InvoiceItem is a billed line on an invoice.
type InvoiceItem struct {
	ItemID      uuid.UUID       `json:"itemId"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Unit        string          `json:"unit,omitempty"`
}

type InvoiceItems []InvoiceItem

// Amount returns unit price × quantity for the line.
func (i InvoiceItem) Amount() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
