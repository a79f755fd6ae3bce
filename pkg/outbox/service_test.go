package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/roorreach/marketplace-backend/pkg/db/dbtest"
	"github.com/roorreach/marketplace-backend/pkg/db/models"
	"github.com/roorreach/marketplace-backend/pkg/enums"
	"github.com/roorreach/marketplace-backend/pkg/types"
)

func TestEmitWritesEnvelope(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	svc := NewService(repo, nil)

	actor := types.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	aggregateID := uuid.New()
	ctx := types.WithRequestID(context.Background(), "req-42")
	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(ctx, tx, DomainEvent{
			EventType:     enums.EventSellerApproved,
			AggregateType: enums.AggregateSellerApplication,
			AggregateID:   aggregateID,
			Actor:         ActorFrom(actor),
			Data:          map[string]string{"shop": "Tea House"},
		})
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, conn.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, aggregateID, rows[0].AggregateID)
	assert.Nil(t, rows[0].PublishedAt)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	assert.Equal(t, currentVersion, envelope.Version)
	assert.Equal(t, "req-42", envelope.CorrelationID)
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, actor.UserID, envelope.Actor.UserID)
	assert.Equal(t, "admin", envelope.Actor.Role)
	assert.JSONEq(t, `{"shop":"Tea House"}`, string(envelope.Data))

	var data map[string]string
	require.NoError(t, envelope.Decode(&data))
	assert.Equal(t, "Tea House", data["shop"])
	assert.Error(t, PayloadEnvelope{EventID: "e-1"}.Decode(&data))
}

func TestEmitRejectsUnknownTypesAndMissingTx(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), nil)

	assert.Error(t, svc.Emit(context.Background(), nil, DomainEvent{}))
	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     "bogus",
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
		})
	})
	assert.Error(t, err)
}

func TestEmitRollsBackWithTransaction(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), nil)

	_ = conn.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateCheckout,
			AggregateID:   uuid.New(),
			Data:          map[string]int{"orders": 1},
		}))
		return assert.AnError
	})

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)

	ids := make([]uuid.UUID, 3)
	for i := range ids {
		ids[i] = uuid.New()
		row := models.OutboxEvent{
			ID:            ids[i],
			EventType:     enums.EventReviewSubmitted,
			AggregateType: enums.AggregateReview,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage(`{"version":1,"data":{}}`),
		}
		require.NoError(t, repo.Insert(conn, row))
	}

	require.NoError(t, repo.MarkPublishedTx(conn, ids[0]))
	require.NoError(t, repo.MarkTerminalTx(conn, ids[1], assert.AnError))

	pending, err := repo.FetchUnpublishedForPublish(conn, 10, 5)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, ids[2], pending[0].ID)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.MarkFailedTx(conn, ids[2], assert.AnError))
	}
	pending, err = repo.FetchUnpublishedForPublish(conn, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, pending)

	deleted, err := repo.DeletePublishedBefore(context.Background(), time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}
