package inventory

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/dispensary-pos/pkg/db/models"
	pkgerrors "github.com/angelmondragon/dispensary-pos/pkg/errors"
	"github.com/angelmondragon/dispensary-pos/pkg/types"
)

// LineRequest is a client line before pricing. OptionID may be empty, in
// which case the item's first pricing option is used.
type LineRequest struct {
	ItemID   uuid.UUID
	Quantity int
	OptionID string
}

// PricedLine is a LineRequest resolved against the catalog.
type PricedLine struct {
	Item     models.InventoryItem
	Option   types.PricingOption
	Quantity int
}

// ResolveLines prices every request from the catalog rows. Prices always come
// from the stored pricing options.
func ResolveLines(items map[uuid.UUID]models.InventoryItem, reqs []LineRequest) ([]PricedLine, error) {
	if len(reqs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	out := make([]PricedLine, 0, len(reqs))
	var missing []uuid.UUID
	for i, req := range reqs {
		if req.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
				WithDetails(map[string]any{"index": i, "itemId": req.ItemID})
		}
		item, ok := items[req.ItemID]
		if !ok {
			missing = append(missing, req.ItemID)
			continue
		}
		var (
			opt   types.PricingOption
			found bool
		)
		if req.OptionID == "" {
			opt, found = item.PricingOptions.Default()
		} else {
			opt, found = item.PricingOptions.Find(req.OptionID)
		}
		if !found {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown pricing option").
				WithDetails(map[string]any{"itemId": req.ItemID, "optionId": req.OptionID})
		}
		out = append(out, PricedLine{Item: item, Option: opt, Quantity: req.Quantity})
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found").
			WithDetails(map[string]any{"itemIds": missing})
	}
	return out, nil
}

// RequestedIDs returns the distinct item ids referenced by reqs.
func RequestedIDs(reqs []LineRequest) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(reqs))
	ids := make([]uuid.UUID, 0, len(reqs))
	for _, req := range reqs {
		if _, ok := seen[req.ItemID]; ok {
			continue
		}
		seen[req.ItemID] = struct{}{}
		ids = append(ids, req.ItemID)
	}
	return ids
}
