package orders

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/roorreach/marketplace-backend/pkg/db/dbtest"
	"github.com/roorreach/marketplace-backend/pkg/db/models"
	"github.com/roorreach/marketplace-backend/pkg/enums"
	pkgerrors "github.com/roorreach/marketplace-backend/pkg/errors"
	"github.com/roorreach/marketplace-backend/pkg/outbox"
	"github.com/roorreach/marketplace-backend/pkg/pagination"
	"github.com/roorreach/marketplace-backend/pkg/types"
)

var allStatuses = []enums.OrderStatus{
	enums.OrderStatusPending,
	enums.OrderStatusConfirmed,
	enums.OrderStatusShipped,
	enums.OrderStatusDelivered,
	enums.OrderStatusCancelled,
}

func TestUpdateStatusFollowsTransitionTable(t *testing.T) {
	allowed := map[string]bool{
		"pending>confirmed":   true,
		"pending>cancelled":   true,
		"confirmed>shipped":   true,
		"confirmed>cancelled": true,
		"shipped>delivered":   true,
		"shipped>cancelled":   true,
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			key := fmt.Sprintf("%s>%s", from, to)
			t.Run(key, func(t *testing.T) {
				svc, conn := newTestService(t)
				seller := dbtest.SeedUser(t, conn, enums.UserRoleSeller)
				buyer := dbtest.SeedUser(t, conn, enums.UserRoleBuyer)
				product := dbtest.SeedProduct(t, conn, seller.UserID, "Tea", "10", 5)
				order := dbtest.SeedOrder(t, conn, buyer.UserID, product, 1, from)

				_, err := svc.UpdateStatus(context.Background(), seller, order.ID, string(to))
				stored := reload(t, conn, order.ID)
				if allowed[key] {
					require.NoError(t, err)
					assert.Equal(t, to, stored.Status)
					return
				}
				assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "got %v", err)
				assert.Equal(t, from, stored.Status)
			})
		}
	}
}

func TestUpdateStatusGuards(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	seller := dbtest.SeedUser(t, conn, enums.UserRoleSeller)
	rival := dbtest.SeedUser(t, conn, enums.UserRoleSeller)
	buyer := dbtest.SeedUser(t, conn, enums.UserRoleBuyer)
	product := dbtest.SeedProduct(t, conn, seller.UserID, "Tea", "10", 5)
	order := dbtest.SeedOrder(t, conn, buyer.UserID, product, 1, enums.OrderStatusPending)

	_, err := svc.UpdateStatus(ctx, rival, order.ID, "confirmed")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = svc.UpdateStatus(ctx, buyer, order.ID, "confirmed")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = svc.UpdateStatus(ctx, seller, order.ID, "lost")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.UpdateStatus(ctx, seller, uuid.New(), "confirmed")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	updated, err := svc.UpdateStatus(ctx, seller, order.ID, " Confirmed ")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, updated.Status)
	assert.Equal(t, int64(1), countEvents(t, conn, enums.EventOrderStatusChanged))
}

func TestBuyerCancelOnlyFromEarlyStates(t *testing.T) {
	for _, from := range allStatuses {
		t.Run(string(from), func(t *testing.T) {
			svc, conn := newTestService(t)
			seller := dbtest.SeedUser(t, conn, enums.UserRoleSeller)
			buyer := dbtest.SeedUser(t, conn, enums.UserRoleBuyer)
			product := dbtest.SeedProduct(t, conn, seller.UserID, "Tea", "10", 5)
			order := dbtest.SeedOrder(t, conn, buyer.UserID, product, 2, from)

			_, err := svc.BuyerCancel(context.Background(), buyer, order.ID)
			stock := productStock(t, conn, product.ID)
			if from == enums.OrderStatusPending || from == enums.OrderStatusConfirmed {
				require.NoError(t, err)
				assert.Equal(t, enums.OrderStatusCancelled, reload(t, conn, order.ID).Status)
				assert.Equal(t, 7, stock)
				assert.Equal(t, int64(1), countEvents(t, conn, enums.EventOrderCancelled))
				return
			}
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "got %v", err)
			assert.Equal(t, from, reload(t, conn, order.ID).Status)
			assert.Equal(t, 5, stock)
			assert.Zero(t, countEvents(t, conn, enums.EventOrderCancelled))
		})
	}
}

func TestBuyerCancelRequiresOwnership(t *testing.T) {
	svc, conn := newTestService(t)
	seller := dbtest.SeedUser(t, conn, enums.UserRoleSeller)
	buyer := dbtest.SeedUser(t, conn, enums.UserRoleBuyer)
	stranger := dbtest.SeedUser(t, conn, enums.UserRoleBuyer)
	product := dbtest.SeedProduct(t, conn, seller.UserID, "Tea", "10", 5)
	order := dbtest.SeedOrder(t, conn, buyer.UserID, product, 1, enums.OrderStatusPending)

	_, err := svc.BuyerCancel(context.Background(), stranger, order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	assert.Equal(t, enums.OrderStatusPending, reload(t, conn, order.ID).Status)
}

func TestSellerCancelFromShippedRestocks(t *testing.T) {
	svc, conn := newTestService(t)
	seller := dbtest.SeedUser(t, conn, enums.UserRoleSeller)
	buyer := dbtest.SeedUser(t, conn, enums.UserRoleBuyer)
	product := dbtest.SeedProduct(t, conn, seller.UserID, "Tea", "10", 0)
	order := dbtest.SeedOrder(t, conn, buyer.UserID, product, 3, enums.OrderStatusShipped)

	cancelled, err := svc.SellerCancel(context.Background(), seller, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	assert.False(t, cancelled.Cancellable)
	assert.Equal(t, 3, productStock(t, conn, product.ID))

	_, err = svc.SellerCancel(context.Background(), seller, order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Equal(t, 3, productStock(t, conn, product.ID))
}

func TestListForSellerFiltersByStatus(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	seller := dbtest.SeedUser(t, conn, enums.UserRoleSeller)
	other := dbtest.SeedUser(t, conn, enums.UserRoleSeller)
	buyer := dbtest.SeedUser(t, conn, enums.UserRoleBuyer)
	mine := dbtest.SeedProduct(t, conn, seller.UserID, "Tea", "10", 5)
	theirs := dbtest.SeedProduct(t, conn, other.UserID, "Rug", "10", 5)

	dbtest.SeedOrder(t, conn, buyer.UserID, mine, 1, enums.OrderStatusPending)
	dbtest.SeedOrder(t, conn, buyer.UserID, mine, 1, enums.OrderStatusShipped)
	dbtest.SeedOrder(t, conn, buyer.UserID, mine, 1, enums.OrderStatusPending)
	dbtest.SeedOrder(t, conn, buyer.UserID, theirs, 1, enums.OrderStatusPending)

	all, err := svc.ListForSeller(ctx, seller, "", pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 3)

	pending, err := svc.ListForSeller(ctx, seller, "pending", pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, pending.Items, 2)
	for _, o := range pending.Items {
		assert.Equal(t, enums.OrderStatusPending, o.Status)
		assert.Equal(t, seller.UserID, o.SellerID)
	}

	unfiltered, err := svc.ListForSeller(ctx, seller, "bogus", pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, unfiltered.Items, 3)

	_, err = svc.ListForSeller(ctx, buyer, "", pagination.Params{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestListForBuyerPages(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	seller := dbtest.SeedUser(t, conn, enums.UserRoleSeller)
	buyer := dbtest.SeedUser(t, conn, enums.UserRoleBuyer)
	product := dbtest.SeedProduct(t, conn, seller.UserID, "Tea", "10", 5)
	for i := 0; i < 3; i++ {
		dbtest.SeedOrder(t, conn, buyer.UserID, product, 1, enums.OrderStatusPending)
	}

	first, err := svc.ListForBuyer(ctx, buyer, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.ListForBuyer(ctx, buyer, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.NotEqual(t, first.Items[0].ID, second.Items[0].ID)
	assert.NotEqual(t, first.Items[1].ID, second.Items[0].ID)

	_, err = svc.ListForBuyer(ctx, types.Actor{}, pagination.Params{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	client, conn := dbtest.Client(t)
	svc, err := NewService(ServiceParams{
		Repo:   NewRepository(conn),
		Tx:     client,
		Outbox: outbox.NewService(outbox.NewRepository(conn), nil),
	})
	require.NoError(t, err)
	return svc, conn
}

func reload(t *testing.T, conn *gorm.DB, id uuid.UUID) *models.Order {
	t.Helper()
	var order models.Order
	require.NoError(t, conn.First(&order, "id = ?", id).Error)
	return &order
}

func productStock(t *testing.T, conn *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var product models.Product
	require.NoError(t, conn.Unscoped().First(&product, "id = ?", id).Error)
	return product.Stock
}

func countEvents(t *testing.T, conn *gorm.DB, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&count).Error)
	return count
}
