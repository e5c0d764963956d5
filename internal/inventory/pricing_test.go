package inventory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/dispensary-pos/pkg/db/models"
	pkgerrors "github.com/angelmondragon/dispensary-pos/pkg/errors"
	"github.com/angelmondragon/dispensary-pos/pkg/types"
)

func pricedItem() models.InventoryItem {
	return models.InventoryItem{
		ID:   uuid.New(),
		Name: "OG Kush",
		PricingOptions: types.PricingOptions{
			{ID: "1g", Name: "1 gram", Price: decimal.RequireFromString("12.50"), Unit: "g"},
			{ID: "3.5g", Name: "Eighth", Price: decimal.RequireFromString("40"), Unit: "g"},
		},
	}
}

func TestResolveLinesUsesSelectedOrDefaultOption(t *testing.T) {
	item := pricedItem()
	catalog := map[uuid.UUID]models.InventoryItem{item.ID: item}

	lines, err := ResolveLines(catalog, []LineRequest{
		{ItemID: item.ID, Quantity: 2},
		{ItemID: item.ID, Quantity: 1, OptionID: "3.5g"},
	})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "1g", lines[0].Option.ID)
	assert.True(t, lines[1].Option.Price.Equal(decimal.NewFromInt(40)))
}

func TestResolveLinesRejectsBadInput(t *testing.T) {
	item := pricedItem()
	catalog := map[uuid.UUID]models.InventoryItem{item.ID: item}

	_, err := ResolveLines(catalog, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = ResolveLines(catalog, []LineRequest{{ItemID: item.ID, Quantity: 0}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = ResolveLines(catalog, []LineRequest{{ItemID: item.ID, Quantity: 1, OptionID: "7g"}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = ResolveLines(catalog, []LineRequest{{ItemID: uuid.New(), Quantity: 1}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRequestedIDsDeduplicates(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	ids := RequestedIDs([]LineRequest{{ItemID: a}, {ItemID: b}, {ItemID: a}})
	assert.Equal(t, []uuid.UUID{a, b}, ids)
}
