package transactions

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/dispensary-pos/internal/totals"
	"github.com/angelmondragon/dispensary-pos/pkg/enums"
	"github.com/angelmondragon/dispensary-pos/pkg/types"
)

type ItemInput struct {
	ItemID           uuid.UUID
	Quantity         int
	SelectedOptionID string
}

// DiscountInput is the cashier's discount selection. Amount is currency,
// Percentage is 0-100; the member rate is looked up from the member's tier.
type DiscountInput struct {
	Mode       enums.DiscountMode
	Amount     decimal.Decimal
	Percentage decimal.Decimal
}

type CreateInput struct {
	MemberUID     *uuid.UUID
	DealerID      uuid.UUID
	Items         []ItemInput
	Discount      DiscountInput
	PaymentMethod enums.PaymentMethod
	Comment       *string
}

// Quote is a priced cart that has not been persisted.
type Quote struct {
	Items  types.TransactionItems `json:"items"`
	Totals totals.Totals          `json:"totals"`
}

type ListFilters struct {
	MemberUID     *uuid.UUID
	DealerID      *uuid.UUID
	PaymentMethod *enums.PaymentMethod
	From          *time.Time
	To            *time.Time
}
