package invoices

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/dispensary-pos/pkg/enums"
)

type ItemInput struct {
	ItemID           uuid.UUID
	Quantity         int
	SelectedOptionID string
	// Description overrides the item name on the printed line.
	Description string
}

// CreateInput bills either OrderID or Items, never both.
type CreateInput struct {
	OrderID       *uuid.UUID
	MemberUID     *uuid.UUID
	CustomerName  string
	CustomerEmail *string
	Items         []ItemInput
}

type ListFilters struct {
	Status    *enums.InvoiceStatus
	MemberUID *uuid.UUID
	OrderID   *uuid.UUID
}
