package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/roorreach/marketplace-backend/internal/categories"
	"github.com/roorreach/marketplace-backend/pkg/db/dbtest"
	"github.com/roorreach/marketplace-backend/pkg/db/models"
	"github.com/roorreach/marketplace-backend/pkg/enums"
	pkgerrors "github.com/roorreach/marketplace-backend/pkg/errors"
	"github.com/roorreach/marketplace-backend/pkg/pagination"
)

func TestCreateValidatesListing(t *testing.T) {
	svc, conn := newManager(t)
	ctx := context.Background()
	seller := dbtest.SeedUser(t, conn, enums.UserRoleSeller)
	buyer := dbtest.SeedUser(t, conn, enums.UserRoleBuyer)
	category := seedCategory(t, conn, "Tea")
	unknown := uuid.New()
	discount := decimal.RequireFromString("100")

	_, err := svc.Create(ctx, buyer, CreateInput{Name: "Tea", Price: decimal.NewFromInt(10)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	invalid := []CreateInput{
		{Name: "Tea", Price: decimal.Zero},
		{Name: "Tea", Price: decimal.NewFromInt(100), DiscountedPrice: &discount},
		{Name: "Tea", Price: decimal.NewFromInt(10), Stock: -1},
		{Name: "Tea", Price: decimal.NewFromInt(10), CategoryID: &unknown},
		{Name: "   ", Price: decimal.NewFromInt(10)},
	}
	for i, in := range invalid {
		_, err := svc.Create(ctx, seller, in)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "case %d: %v", i, err)
	}

	cheaper := decimal.RequireFromString("80")
	created, err := svc.Create(ctx, seller, CreateInput{
		Name:            " Darjeeling ",
		Price:           decimal.NewFromInt(100),
		DiscountedPrice: &cheaper,
		Stock:           4,
		CategoryID:      &category,
	})
	require.NoError(t, err)
	assert.Equal(t, "Darjeeling", created.Name)
	assert.True(t, created.EffectivePrice.Equal(cheaper))
	assert.True(t, created.InStock)

	var count int64
	require.NoError(t, conn.Model(&models.Product{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUpdateAndDeleteRequireOwnership(t *testing.T) {
	svc, conn := newManager(t)
	ctx := context.Background()
	owner := dbtest.SeedUser(t, conn, enums.UserRoleSeller)
	other := dbtest.SeedUser(t, conn, enums.UserRoleSeller)
	product := dbtest.SeedProduct(t, conn, owner.UserID, "Tea", "10", 3)

	name := "Stolen"
	_, err := svc.Update(ctx, other, product.ID, UpdateInput{Name: &name})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	assert.True(t, pkgerrors.IsCode(svc.Delete(ctx, other, product.ID), pkgerrors.CodeForbidden))

	stock := 9
	price := decimal.NewFromInt(12)
	updated, err := svc.Update(ctx, owner, product.ID, UpdateInput{Stock: &stock, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, 9, updated.Stock)
	assert.Equal(t, "Tea", updated.Name)

	tooHigh := decimal.NewFromInt(12)
	_, err = svc.Update(ctx, owner, product.ID, UpdateInput{DiscountedPrice: &tooHigh})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	require.NoError(t, svc.Delete(ctx, owner, product.ID))
	var live int64
	require.NoError(t, conn.Model(&models.Product{}).Where("id = ?", product.ID).Count(&live).Error)
	assert.Zero(t, live)
	var kept int64
	require.NoError(t, conn.Unscoped().Model(&models.Product{}).Where("id = ?", product.ID).Count(&kept).Error)
	assert.Equal(t, int64(1), kept)

	_, err = svc.Update(ctx, owner, product.ID, UpdateInput{Name: &name})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListForSellerPages(t *testing.T) {
	svc, conn := newManager(t)
	ctx := context.Background()
	seller := dbtest.SeedUser(t, conn, enums.UserRoleSeller)
	other := dbtest.SeedUser(t, conn, enums.UserRoleSeller)
	for _, name := range []string{"A", "B", "C"} {
		dbtest.SeedProduct(t, conn, seller.UserID, name, "10", 1)
	}
	dbtest.SeedProduct(t, conn, other.UserID, "Other", "10", 1)

	first, err := svc.ListForSeller(ctx, seller, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.ListForSeller(ctx, seller, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Empty(t, second.NextCursor)

	seen := map[uuid.UUID]bool{}
	for _, item := range append(first.Items, second.Items...) {
		assert.Equal(t, seller.UserID, item.SellerID)
		seen[item.ID] = true
	}
	assert.Len(t, seen, 3)

	buyer := dbtest.SeedUser(t, conn, enums.UserRoleBuyer)
	_, err = svc.ListForSeller(ctx, buyer, pagination.Params{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestDecrementStockNeverOversells(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	seller := dbtest.SeedUser(t, conn, enums.UserRoleSeller)
	product := dbtest.SeedProduct(t, conn, seller.UserID, "Tea", "10", 3)

	ok, err := repo.DecrementStock(ctx, product.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.DecrementStock(ctx, product.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.DecrementStock(ctx, product.ID, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.DecrementStock(ctx, product.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Restock(ctx, product.ID, 2))
	reloaded, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Stock)
}

func newManager(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	cats, err := categories.NewService(categories.NewRepository(conn))
	require.NoError(t, err)
	svc, err := NewService(NewRepository(conn), cats)
	require.NoError(t, err)
	return svc, conn
}
