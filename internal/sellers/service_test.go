package sellers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/roorreach/marketplace-backend/internal/categories"
	"github.com/roorreach/marketplace-backend/pkg/db/dbtest"
	"github.com/roorreach/marketplace-backend/pkg/db/models"
	"github.com/roorreach/marketplace-backend/pkg/enums"
	pkgerrors "github.com/roorreach/marketplace-backend/pkg/errors"
	"github.com/roorreach/marketplace-backend/pkg/outbox"
)

var application = ApplyRequest{
	ShopName:        "Sylhet Tea House",
	ShopAddress:     "Zindabazar",
	Location:        "Sylhet",
	Email:           "Shop@Example.com",
	TaxID:           "TIN-1",
	NIDNumber:       "1990123",
	ApplicationText: "Family tea garden.",
}

func TestApplyOnlyOnce(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	buyer := dbtest.SeedUser(t, conn, enums.UserRoleBuyer)

	app, err := svc.Apply(ctx, buyer, application)
	require.NoError(t, err)
	assert.Equal(t, "shop@example.com", app.Email)
	assert.False(t, app.Approved)

	_, err = svc.Apply(ctx, buyer, application)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	assert.Equal(t, "already applied", pkgerrors.As(err).Message())

	assert.Equal(t, int64(1), count(t, conn.Model(&models.SellerApplication{})))
	assert.Equal(t, int64(1), count(t, conn.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventSellerApplied)))

	mine, err := svc.MyApplication(ctx, buyer)
	require.NoError(t, err)
	assert.Equal(t, app.ID, mine.ID)
}

func TestApplyRejectsSellersAndUnknownCategory(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	seller := dbtest.SeedUser(t, conn, enums.UserRoleSeller)
	buyer := dbtest.SeedUser(t, conn, enums.UserRoleBuyer)

	_, err := svc.Apply(ctx, seller, application)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	req := application
	unknown := uuid.New()
	req.CategoryID = &unknown
	_, err = svc.Apply(ctx, buyer, req)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.MyApplication(ctx, buyer)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestApprovePromotesApplicant(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	admin := dbtest.SeedUser(t, conn, enums.UserRoleAdmin)
	buyer := dbtest.SeedUser(t, conn, enums.UserRoleBuyer)

	app, err := svc.Apply(ctx, buyer, application)
	require.NoError(t, err)

	_, err = svc.Approve(ctx, buyer, app.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	pending, err := svc.ListPending(ctx, admin)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Test buyer", pending[0].ApplicantName)

	approved, err := svc.Approve(ctx, admin, app.ID)
	require.NoError(t, err)
	assert.True(t, approved.Approved)

	var user models.User
	require.NoError(t, conn.First(&user, "id = ?", buyer.UserID).Error)
	assert.Equal(t, enums.UserRoleSeller, user.Role)
	assert.True(t, user.IsSellerApproved)

	pending, err = svc.ListPending(ctx, admin)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = svc.Approve(ctx, admin, app.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.True(t, pkgerrors.IsCode(svc.Reject(ctx, admin, app.ID), pkgerrors.CodeStateConflict))
}

func TestRejectDeletesAndKeepsSnapshot(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	admin := dbtest.SeedUser(t, conn, enums.UserRoleAdmin)
	buyer := dbtest.SeedUser(t, conn, enums.UserRoleBuyer)

	app, err := svc.Apply(ctx, buyer, application)
	require.NoError(t, err)
	require.NoError(t, svc.Reject(ctx, admin, app.ID))

	assert.Zero(t, count(t, conn.Model(&models.SellerApplication{})))
	var event models.OutboxEvent
	require.NoError(t, conn.Where("event_type = ?", enums.EventSellerRejected).First(&event).Error)
	var envelope struct {
		Data struct {
			ShopName  string `json:"shop_name"`
			NIDNumber string `json:"nid_number"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(event.Payload, &envelope))
	assert.Equal(t, "Sylhet Tea House", envelope.Data.ShopName)
	assert.Equal(t, "1990123", envelope.Data.NIDNumber)

	var user models.User
	require.NoError(t, conn.First(&user, "id = ?", buyer.UserID).Error)
	assert.Equal(t, enums.UserRoleBuyer, user.Role)

	// the applicant may apply again after a rejection
	_, err = svc.Apply(ctx, buyer, application)
	require.NoError(t, err)

	assert.True(t, pkgerrors.IsCode(svc.Reject(ctx, admin, uuid.New()), pkgerrors.CodeNotFound))
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	client, conn := dbtest.Client(t)
	cats, err := categories.NewService(categories.NewRepository(conn))
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Repo:       NewRepository(conn),
		Tx:         client,
		Outbox:     outbox.NewService(outbox.NewRepository(conn), nil),
		Categories: cats,
	})
	require.NoError(t, err)
	return svc, conn
}

func count(t *testing.T, qb *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, qb.Count(&n).Error)
	return n
}
