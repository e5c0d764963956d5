package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/dispensary-pos/pkg/enums"
)

// ItemInput is one requested line. The price comes from the item's pricing
// option, never from the client.
type ItemInput struct {
	ItemID           uuid.UUID
	Quantity         int
	SelectedOptionID string
}

type CreateInput struct {
	MemberUID uuid.UUID
	DealerID  uuid.UUID
	Items     []ItemInput
}

type ListFilters struct {
	Status    *enums.OrderStatus
	MemberUID *uuid.UUID
	DealerID  *uuid.UUID
	From      *time.Time
	To        *time.Time
}

// ExpireResult summarises an ExpireStale run.
type ExpireResult struct {
	Scanned   int `json:"scanned"`
	Cancelled int `json:"cancelled"`
	Failed    int `json:"failed"`
}

// CancelReasonExpired is stored on orders cancelled by the expiry job.
const CancelReasonExpired = "expired"
