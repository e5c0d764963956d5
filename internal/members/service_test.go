package members

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
	"github.com/angelmondragon/dispensary-pos/pkg/pagination"
)

func setupMembers(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:members_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.MembershipTier{}, &models.Member{}))

	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	return svc, conn
}

func TestCreateRequiresExistingTier(t *testing.T) {
	svc, _ := setupMembers(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{CardNumber: "C-1", Name: "Ann", Tier: "gold"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.UpsertTier(ctx, "gold", decimal.RequireFromString("0.2"))
	require.NoError(t, err)

	member, err := svc.Create(ctx, CreateInput{CardNumber: "C-1", Name: "Ann", Tier: "gold"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, member.UID)
	assert.True(t, member.TotalPurchases.IsZero())

	_, err = svc.Create(ctx, CreateInput{CardNumber: "C-1", Name: "Bob", Tier: "gold"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestCreateValidatesFields(t *testing.T) {
	svc, _ := setupMembers(t)
	bad := "not-an-email"
	_, err := svc.Create(context.Background(), CreateInput{CardNumber: "", Name: "", Tier: "gold", Email: &bad})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details := typed.Details().(map[string]string)
	assert.Contains(t, details, "cardNumber")
	assert.Contains(t, details, "name")
	assert.Contains(t, details, "email")
}

func TestRecordPurchaseIsMonotonic(t *testing.T) {
	svc, conn := setupMembers(t)
	ctx := context.Background()

	_, err := svc.UpsertTier(ctx, "silver", decimal.RequireFromString("0.1"))
	require.NoError(t, err)
	member, err := svc.Create(ctx, CreateInput{CardNumber: "C-2", Name: "Cy", Tier: "silver"})
	require.NoError(t, err)

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return svc.RecordPurchase(ctx, tx, member.UID, decimal.RequireFromString("856"))
	}))
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return svc.RecordPurchase(ctx, tx, member.UID, decimal.RequireFromString("44.5"))
	}))

	err = conn.Transaction(func(tx *gorm.DB) error {
		return svc.RecordPurchase(ctx, tx, member.UID, decimal.RequireFromString("-1"))
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	got, err := svc.Get(ctx, member.UID)
	require.NoError(t, err)
	assert.True(t, got.TotalPurchases.Equal(decimal.RequireFromString("900.5")), "got %s", got.TotalPurchases)

	err = conn.Transaction(func(tx *gorm.DB) error {
		return svc.RecordPurchase(ctx, tx, uuid.New(), decimal.NewFromInt(1))
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDiscountRateFollowsTier(t *testing.T) {
	svc, conn := setupMembers(t)
	ctx := context.Background()

	_, err := svc.UpsertTier(ctx, "gold", decimal.RequireFromString("0.2"))
	require.NoError(t, err)
	member, err := svc.Create(ctx, CreateInput{CardNumber: "C-3", Name: "Di", Tier: "gold"})
	require.NoError(t, err)

	rate, err := svc.DiscountRate(ctx, conn, member.UID)
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.2")))

	_, err = svc.UpsertTier(ctx, "gold", decimal.RequireFromString("0.25"))
	require.NoError(t, err)
	rate, err = svc.DiscountRate(ctx, conn, member.UID)
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.25")))
}

func TestDeleteTierRefusedWhileAssigned(t *testing.T) {
	svc, _ := setupMembers(t)
	ctx := context.Background()

	_, err := svc.UpsertTier(ctx, "bronze", decimal.RequireFromString("0.05"))
	require.NoError(t, err)
	member, err := svc.Create(ctx, CreateInput{CardNumber: "C-4", Name: "Ed", Tier: "bronze"})
	require.NoError(t, err)

	err = svc.DeleteTier(ctx, "bronze")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	require.NoError(t, svc.Delete(ctx, member.UID))
	require.NoError(t, svc.DeleteTier(ctx, "bronze"))

	_, err = svc.UpsertTier(ctx, "bad", decimal.RequireFromString("1.1"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListSearchAndLookup(t *testing.T) {
	svc, _ := setupMembers(t)
	ctx := context.Background()

	_, err := svc.UpsertTier(ctx, "gold", decimal.RequireFromString("0.2"))
	require.NoError(t, err)
	for _, in := range []CreateInput{
		{CardNumber: "A-100", Name: "Alice", Tier: "gold"},
		{CardNumber: "B-200", Name: "Bruno", Tier: "gold"},
		{CardNumber: "C-300", Name: "Alina", Tier: "gold"},
	} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, pagination.Params{Limit: 10}, ListFilters{Search: "ali"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Empty(t, page.NextCursor)

	first, err := svc.List(ctx, pagination.Params{Limit: 2}, ListFilters{})
	require.NoError(t, err)
	assert.Len(t, first.Items, 2)
	assert.NotEmpty(t, first.NextCursor)

	found, err := svc.GetByCardNumber(ctx, " B-200 ")
	require.NoError(t, err)
	assert.Equal(t, "Bruno", found.Name)

	_, err = svc.GetByCardNumber(ctx, "Z-999")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateKeepsPurchases(t *testing.T) {
	svc, conn := setupMembers(t)
	ctx := context.Background()

	_, err := svc.UpsertTier(ctx, "gold", decimal.RequireFromString("0.2"))
	require.NoError(t, err)
	member, err := svc.Create(ctx, CreateInput{CardNumber: "U-1", Name: "Fay", Tier: "gold"})
	require.NoError(t, err)
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return svc.RecordPurchase(ctx, tx, member.UID, decimal.NewFromInt(10))
	}))

	name := "Faye"
	updated, err := svc.Update(ctx, member.UID, UpdateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Faye", updated.Name)

	got, err := svc.Get(ctx, member.UID)
	require.NoError(t, err)
	assert.Equal(t, "Faye", got.Name)
	assert.True(t, got.TotalPurchases.Equal(decimal.NewFromInt(10)))

	missing := "platinum"
	_, err = svc.Update(ctx, member.UID, UpdateInput{Tier: &missing})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
