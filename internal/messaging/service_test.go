package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/roorreach/marketplace-backend/pkg/db/dbtest"
	"github.com/roorreach/marketplace-backend/pkg/db/models"
	"github.com/roorreach/marketplace-backend/pkg/enums"
	pkgerrors "github.com/roorreach/marketplace-backend/pkg/errors"
	"github.com/roorreach/marketplace-backend/pkg/metrics"
	"github.com/roorreach/marketplace-backend/pkg/pagination"
)

func TestContainsContactInfo(t *testing.T) {
	blocked := []string{"contact me at test@x.com", "my PHONE is 017", "Email me", "CONTACT", "a@b"}
	for _, body := range blocked {
		assert.True(t, ContainsContactInfo(body), body)
	}
	for _, body := range []string{"call me", "is this still available?", "ship to Sylhet"} {
		assert.False(t, ContainsContactInfo(body), body)
	}
}

func TestSendAsBuyerFiltersContactDetails(t *testing.T) {
	svc, conn, reg := newTestService(t)
	ctx := context.Background()
	seller := dbtest.SeedUser(t, conn, enums.UserRoleSeller)
	buyer := dbtest.SeedUser(t, conn, enums.UserRoleBuyer)
	product := dbtest.SeedProduct(t, conn, seller.UserID, "Tea", "10", 5)

	_, err := svc.SendAsBuyer(ctx, buyer, product.ID, "contact me at test@x.com")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Zero(t, count(t, conn.Model(&models.ChatMessage{})))
	assert.Zero(t, count(t, conn.Model(&models.ChatThread{})))

	msg, err := svc.SendAsBuyer(ctx, buyer, product.ID, "call me")
	require.NoError(t, err)
	assert.Equal(t, enums.SenderBuyer, msg.SenderRole)
	assert.Equal(t, int64(1), count(t, conn.Model(&models.ChatMessage{})))

	families, err := reg.Gather()
	require.NoError(t, err)
	var blocked float64
	for _, family := range families {
		if family.GetName() == "rr_chat_messages_blocked_total" {
			blocked = family.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, 1.0, blocked)
}

func TestSendAsBuyerReusesThread(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()
	seller := dbtest.SeedUser(t, conn, enums.UserRoleSeller)
	buyer := dbtest.SeedUser(t, conn, enums.UserRoleBuyer)
	product := dbtest.SeedProduct(t, conn, seller.UserID, "Tea", "10", 5)

	first, err := svc.SendAsBuyer(ctx, buyer, product.ID, "is this fresh?")
	require.NoError(t, err)
	second, err := svc.SendAsBuyer(ctx, buyer, product.ID, "and organic?")
	require.NoError(t, err)
	assert.Equal(t, first.ThreadID, second.ThreadID)
	assert.Equal(t, int64(1), count(t, conn.Model(&models.ChatThread{})))

	_, err = svc.SendAsBuyer(ctx, seller, product.ID, "hello me")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = svc.SendAsBuyer(ctx, buyer, uuid.New(), "hello")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestReplyIsParticipantOnly(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()
	seller := dbtest.SeedUser(t, conn, enums.UserRoleSeller)
	buyer := dbtest.SeedUser(t, conn, enums.UserRoleBuyer)
	stranger := dbtest.SeedUser(t, conn, enums.UserRoleBuyer)
	product := dbtest.SeedProduct(t, conn, seller.UserID, "Tea", "10", 5)

	opening, err := svc.SendAsBuyer(ctx, buyer, product.ID, "hello")
	require.NoError(t, err)

	reply, err := svc.Reply(ctx, seller, opening.ThreadID, "yes, harvested last week")
	require.NoError(t, err)
	assert.Equal(t, enums.SenderSeller, reply.SenderRole)

	_, err = svc.Reply(ctx, stranger, opening.ThreadID, "hi")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = svc.Messages(ctx, stranger, opening.ThreadID, pagination.Params{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	page, err := svc.Messages(ctx, buyer, opening.ThreadID, pagination.Params{Limit: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, reply.ID, page.Items[0].ID)
	assert.NotEmpty(t, page.NextCursor)

	view, err := svc.ThreadForBuyer(ctx, buyer, product.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Thread)
	require.Len(t, view.Messages, 2)
	assert.Equal(t, opening.ID, view.Messages[0].ID)
	assert.Equal(t, "yes, harvested last week", view.Thread.LastMessagePreview)
}

func TestThreadForBuyerWithoutMessages(t *testing.T) {
	svc, conn, _ := newTestService(t)
	seller := dbtest.SeedUser(t, conn, enums.UserRoleSeller)
	buyer := dbtest.SeedUser(t, conn, enums.UserRoleBuyer)
	product := dbtest.SeedProduct(t, conn, seller.UserID, "Tea", "10", 5)

	view, err := svc.ThreadForBuyer(context.Background(), buyer, product.ID)
	require.NoError(t, err)
	assert.Nil(t, view.Thread)
	assert.Empty(t, view.Messages)
	assert.Equal(t, "Tea", view.ProductName)
}

func TestInboxes(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()
	seller := dbtest.SeedUser(t, conn, enums.UserRoleSeller)
	alice := dbtest.SeedUser(t, conn, enums.UserRoleBuyer)
	bob := dbtest.SeedUser(t, conn, enums.UserRoleBuyer)
	tea := dbtest.SeedProduct(t, conn, seller.UserID, "Tea", "10", 5)
	rug := dbtest.SeedProduct(t, conn, seller.UserID, "Rug", "10", 5)
	dbtest.SeedOrder(t, conn, alice.UserID, tea, 1, enums.OrderStatusDelivered)

	_, err := svc.SendAsBuyer(ctx, alice, tea.ID, "first")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = svc.SendAsBuyer(ctx, alice, rug.ID, "second")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = svc.SendAsBuyer(ctx, bob, tea.ID, "third")
	require.NoError(t, err)

	groups, err := svc.SellerInbox(ctx, seller)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, tea.ID, groups[0].ProductID)
	assert.Len(t, groups[0].Threads, 2)
	assert.Equal(t, rug.ID, groups[1].ProductID)

	_, err = svc.SellerInbox(ctx, alice)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	inbox, err := svc.BuyerInbox(ctx, alice)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, rug.ID, inbox[0].ProductID)
	assert.False(t, inbox[0].HasOrdered)
	assert.Equal(t, tea.ID, inbox[1].ProductID)
	assert.True(t, inbox[1].HasOrdered)
	assert.Equal(t, "Test seller", inbox[1].SellerName)
}

func newTestService(t *testing.T) (Service, *gorm.DB, *prometheus.Registry) {
	t.Helper()
	client, conn := dbtest.Client(t)
	reg := prometheus.NewRegistry()
	svc, err := NewService(ServiceParams{
		Repo:    NewRepository(conn),
		Tx:      client,
		Metrics: metrics.NewMarketplace(reg),
	})
	require.NoError(t, err)
	return svc, conn, reg
}

func count(t *testing.T, qb *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, qb.Count(&n).Error)
	return n
}
