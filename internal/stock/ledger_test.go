package stock

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/dispensary-pos/pkg/db/models"
	pkgerrors "github.com/angelmondragon/dispensary-pos/pkg/errors"
	"github.com/angelmondragon/dispensary-pos/pkg/types"
)

func setupStockTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:stock_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.InventoryItem{}))
	return db
}

func seedItem(t *testing.T, db *gorm.DB, name string, available, reserved int) models.InventoryItem {
	t.Helper()
	item := models.InventoryItem{
		Name:     name,
		Category: "flower",
		PricingOptions: types.PricingOptions{
			{ID: "g1", Name: "1g", Price: decimal.NewFromInt(10), Unit: "g"},
		},
		AvailableStock: available,
		ReservedStock:  reserved,
		CostPrice:      decimal.NewFromInt(4),
	}
	require.NoError(t, db.Create(&item).Error)
	return item
}

func reload(t *testing.T, db *gorm.DB, id uuid.UUID) models.InventoryItem {
	t.Helper()
	var item models.InventoryItem
	require.NoError(t, db.First(&item, "id = ?", id).Error)
	return item
}

func TestReserveThenReleaseRestoresCounters(t *testing.T) {
	db := setupStockTestDB(t)
	ledger := NewLedger(nil)
	ctx := context.Background()

	a := seedItem(t, db, "Blue Dream", 10, 1)
	b := seedItem(t, db, "OG Kush", 5, 0)
	lines := []Line{{ItemID: a.ID, Quantity: 3}, {ItemID: b.ID, Quantity: 5}, {ItemID: a.ID, Quantity: 2}}

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return ledger.Reserve(ctx, tx, lines)
	}))

	gotA := reload(t, db, a.ID)
	assert.Equal(t, 5, gotA.AvailableStock)
	assert.Equal(t, 6, gotA.ReservedStock)
	gotB := reload(t, db, b.ID)
	assert.Equal(t, 0, gotB.AvailableStock)
	assert.Equal(t, 5, gotB.ReservedStock)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return ledger.Release(ctx, tx, lines)
	}))

	gotA = reload(t, db, a.ID)
	assert.Equal(t, 10, gotA.AvailableStock)
	assert.Equal(t, 1, gotA.ReservedStock)
	gotB = reload(t, db, b.ID)
	assert.Equal(t, 5, gotB.AvailableStock)
	assert.Equal(t, 0, gotB.ReservedStock)
}

func TestReserveInsufficientStockWritesNothing(t *testing.T) {
	db := setupStockTestDB(t)
	ledger := NewLedger(nil)
	ctx := context.Background()

	a := seedItem(t, db, "Blue Dream", 10, 0)
	b := seedItem(t, db, "OG Kush", 2, 0)

	err := db.Transaction(func(tx *gorm.DB) error {
		return ledger.Reserve(ctx, tx, []Line{{ItemID: a.ID, Quantity: 4}, {ItemID: b.ID, Quantity: 3}})
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())

	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	shortages, ok := details["items"].([]Shortage)
	require.True(t, ok)
	require.Len(t, shortages, 1)
	assert.Equal(t, b.ID, shortages[0].ItemID)
	assert.Equal(t, 3, shortages[0].Requested)
	assert.Equal(t, 2, shortages[0].Available)

	assert.Equal(t, 10, reload(t, db, a.ID).AvailableStock)
	assert.Equal(t, 2, reload(t, db, b.ID).AvailableStock)
}

func TestReserveAggregatesDuplicateLines(t *testing.T) {
	db := setupStockTestDB(t)
	ledger := NewLedger(nil)

	a := seedItem(t, db, "Blue Dream", 6, 0)
	err := db.Transaction(func(tx *gorm.DB) error {
		return ledger.Reserve(context.Background(), tx, []Line{{ItemID: a.ID, Quantity: 3}, {ItemID: a.ID, Quantity: 4}})
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
	assert.Equal(t, 6, reload(t, db, a.ID).AvailableStock)
}

func TestFulfillConsumesReservedOnly(t *testing.T) {
	db := setupStockTestDB(t)
	ledger := NewLedger(nil)
	a := seedItem(t, db, "Blue Dream", 7, 3)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return ledger.Fulfill(context.Background(), tx, []Line{{ItemID: a.ID, Quantity: 3}})
	}))
	got := reload(t, db, a.ID)
	assert.Equal(t, 7, got.AvailableStock)
	assert.Equal(t, 0, got.ReservedStock)

	err := db.Transaction(func(tx *gorm.DB) error {
		return ledger.Fulfill(context.Background(), tx, []Line{{ItemID: a.ID, Quantity: 1}})
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
}

func TestConsumeTakesFromAvailableOnly(t *testing.T) {
	db := setupStockTestDB(t)
	ledger := NewLedger(nil)
	a := seedItem(t, db, "Blue Dream", 4, 2)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return ledger.Consume(context.Background(), tx, []Line{{ItemID: a.ID, Quantity: 4}})
	}))
	got := reload(t, db, a.ID)
	assert.Equal(t, 0, got.AvailableStock)
	assert.Equal(t, 2, got.ReservedStock)
}

func TestReleaseRequiresReservedUnits(t *testing.T) {
	db := setupStockTestDB(t)
	ledger := NewLedger(nil)
	a := seedItem(t, db, "Blue Dream", 4, 1)

	err := db.Transaction(func(tx *gorm.DB) error {
		return ledger.Release(context.Background(), tx, []Line{{ItemID: a.ID, Quantity: 2}})
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
	got := reload(t, db, a.ID)
	assert.Equal(t, 4, got.AvailableStock)
	assert.Equal(t, 1, got.ReservedStock)
}

func TestUnknownItemIsNotFound(t *testing.T) {
	db := setupStockTestDB(t)
	ledger := NewLedger(nil)

	err := db.Transaction(func(tx *gorm.DB) error {
		return ledger.Reserve(context.Background(), tx, []Line{{ItemID: uuid.New(), Quantity: 1}})
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestLedgerRejectsBadInput(t *testing.T) {
	db := setupStockTestDB(t)
	ledger := NewLedger(nil)
	ctx := context.Background()

	err := ledger.Reserve(ctx, nil, []Line{{ItemID: uuid.New(), Quantity: 1}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	err = db.Transaction(func(tx *gorm.DB) error {
		return ledger.Reserve(ctx, tx, []Line{{ItemID: uuid.New(), Quantity: 0}})
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return ledger.Reserve(ctx, tx, nil)
	}))
}

func TestAggregateSortsAndMerges(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	lines, err := Aggregate([]Line{{ItemID: a, Quantity: 1}, {ItemID: b, Quantity: 2}, {ItemID: a, Quantity: 4}})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.True(t, lines[0].ItemID.String() < lines[1].ItemID.String())
	for _, l := range lines {
		if l.ItemID == a {
			assert.Equal(t, 5, l.Quantity)
		} else {
			assert.Equal(t, 2, l.Quantity)
		}
	}
}
