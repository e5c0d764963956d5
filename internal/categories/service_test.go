package categories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/dispensary-pos/pkg/db"
	"github.com/angelmondragon/dispensary-pos/pkg/db/models"
	pkgerrors "github.com/angelmondragon/dispensary-pos/pkg/errors"
	"github.com/angelmondragon/dispensary-pos/pkg/types"
)

func setupCategories(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:categories_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Category{}, &models.InventoryItem{}))

	svc, err := NewService(NewRepository(conn), db.FromConn(conn))
	require.NoError(t, err)
	return svc, conn
}

func TestCreateRejectsDuplicates(t *testing.T) {
	svc, _ := setupCategories(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "Flower")
	require.NoError(t, err)

	_, err = svc.Create(ctx, " Flower ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = svc.Create(ctx, "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestRenameRetagsItems(t *testing.T) {
	svc, conn := setupCategories(t)
	ctx := context.Background()

	cat, err := svc.Create(ctx, "Edible")
	require.NoError(t, err)
	item := models.InventoryItem{Name: "Gummy", Category: "Edible", PricingOptions: types.PricingOptions{{ID: "p"}}}
	require.NoError(t, conn.Create(&item).Error)

	renamed, err := svc.Rename(ctx, cat.ID, "Edibles")
	require.NoError(t, err)
	assert.Equal(t, "Edibles", renamed.Name)

	var reloaded models.InventoryItem
	require.NoError(t, conn.First(&reloaded, "id = ?", item.ID).Error)
	assert.Equal(t, "Edibles", reloaded.Category)
}

func TestDeleteRefusedWhileInUse(t *testing.T) {
	svc, conn := setupCategories(t)
	ctx := context.Background()

	cat, err := svc.Create(ctx, "Vape")
	require.NoError(t, err)
	item := models.InventoryItem{Name: "Cart", Category: "Vape", PricingOptions: types.PricingOptions{{ID: "p"}}}
	require.NoError(t, conn.Create(&item).Error)

	err = svc.Delete(ctx, cat.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	require.NoError(t, conn.Delete(&models.InventoryItem{}, "id = ?", item.ID).Error)
	require.NoError(t, svc.Delete(ctx, cat.ID))

	err = svc.Delete(ctx, cat.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
