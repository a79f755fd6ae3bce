package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/roorreach/marketplace-backend/pkg/db/models"
	"github.com/roorreach/marketplace-backend/pkg/enums"
	"github.com/roorreach/marketplace-backend/pkg/logger"
	"github.com/roorreach/marketplace-backend/pkg/outbox"
	"github.com/roorreach/marketplace-backend/pkg/outbox/idempotency"
	"github.com/roorreach/marketplace-backend/pkg/outbox/payloads"
)

const consumerName = "user-notifications"

type writer interface {
	Create(ctx context.Context, notifications ...*models.Notification) error
}

// Consumer watches domain events and turns order and seller application
// changes into notifications for the affected users.
type Consumer struct {
	repo         writer
	subscription *pubsub.Subscriber
	ledger       *idempotency.Ledger
	logg         *logger.Logger
}

// NewConsumer builds a notification consumer on the domain subscription.
func NewConsumer(repo writer, subscription *pubsub.Subscriber, ledger *idempotency.Ledger, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("idempotency ledger required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		ledger:       ledger,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg.ID, msg.Attributes["event_type"], msg.Data)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

type builder func(data json.RawMessage) ([]*models.Notification, error)

var builders = map[enums.OutboxEventType]builder{
	enums.EventOrderPlaced:        orderPlaced,
	enums.EventOrderStatusChanged: orderStatusChanged,
	enums.EventOrderCancelled:     orderCancelled,
	enums.EventSellerApproved:     sellerApproved,
	enums.EventSellerRejected:     sellerRejected,
}

func (c *Consumer) process(ctx context.Context, messageID, eventType string, data []byte) processResult {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"event_type": eventType,
	})

	build, ok := builders[enums.OutboxEventType(eventType)]
	if !ok {
		c.logg.Debug(logCtx, "skipping event without notifications")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}
	logCtx = c.logg.WithField(logCtx, "event_id", eventID.String())
	if envelope.CorrelationID != "" {
		logCtx = c.logg.WithRequestID(logCtx, envelope.CorrelationID)
	}

	notifications, err := build(envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return processResult{ack: true}
	}

	claimed, err := c.ledger.Claim(ctx, consumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency claim failed", err)
		return processResult{nack: true}
	}
	if !claimed {
		if holder, err := c.ledger.Holder(ctx, consumerName, eventID); err == nil && holder != "" {
			logCtx = c.logg.WithField(logCtx, "claimed_by", holder)
		}
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.repo.Create(ctx, notifications...); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		if err := c.ledger.Release(ctx, consumerName, eventID); err != nil {
			c.logg.Warn(c.logg.WithField(logCtx, "release_error", err.Error()), "idempotency release failed")
		}
		return processResult{nack: true}
	}

	c.logg.Info(c.logg.WithField(logCtx, "recipients", len(notifications)), "notifications created")
	return processResult{ack: true}
}

func orderPlaced(data json.RawMessage) ([]*models.Notification, error) {
	var payload payloads.OrderPlacedEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	out := make([]*models.Notification, 0, len(payload.SellerIDs))
	seen := make(map[uuid.UUID]struct{}, len(payload.SellerIDs))
	for _, sellerID := range payload.SellerIDs {
		if sellerID == uuid.Nil {
			continue
		}
		if _, dup := seen[sellerID]; dup {
			continue
		}
		seen[sellerID] = struct{}{}
		out = append(out, &models.Notification{
			UserID:  sellerID,
			Type:    enums.NotificationTypeNewOrder,
			Title:   "New order received",
			Message: fmt.Sprintf("Checkout %s placed new orders for your products.", shortID(payload.CheckoutID)),
			Link:    stringPtr("/seller/orders"),
		})
	}
	return out, nil
}

func orderStatusChanged(data json.RawMessage) ([]*models.Notification, error) {
	var payload payloads.OrderStatusChangedEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	if payload.BuyerID == uuid.Nil {
		return nil, fmt.Errorf("buyer id missing")
	}
	return []*models.Notification{{
		UserID:  payload.BuyerID,
		Type:    enums.NotificationTypeOrderUpdate,
		Title:   "Order updated",
		Message: fmt.Sprintf("Order %s is now %s.", shortID(payload.OrderID), payload.To),
		Link:    stringPtr("/orders"),
	}}, nil
}

// orderCancelled notifies the party that did not cancel.
func orderCancelled(data json.RawMessage) ([]*models.Notification, error) {
	var payload payloads.OrderCancelledEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	recipient, link := payload.SellerID, "/seller/orders"
	message := fmt.Sprintf("The buyer cancelled order %s.", shortID(payload.OrderID))
	if payload.CancelledBy == enums.SenderSeller {
		recipient, link = payload.BuyerID, "/orders"
		message = fmt.Sprintf("The seller cancelled order %s.", shortID(payload.OrderID))
	}
	if recipient == uuid.Nil {
		return nil, fmt.Errorf("recipient missing")
	}
	return []*models.Notification{{
		UserID:  recipient,
		Type:    enums.NotificationTypeOrderCancelled,
		Title:   "Order cancelled",
		Message: message,
		Link:    stringPtr(link),
	}}, nil
}

func sellerApproved(data json.RawMessage) ([]*models.Notification, error) {
	var payload payloads.SellerApprovedEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	if payload.UserID == uuid.Nil {
		return nil, fmt.Errorf("applicant id missing")
	}
	return []*models.Notification{{
		UserID:  payload.UserID,
		Type:    enums.NotificationTypeSellerApplication,
		Title:   "Seller application approved",
		Message: "Your shop is live. You can now list products.",
		Link:    stringPtr("/seller/products"),
	}}, nil
}

func sellerRejected(data json.RawMessage) ([]*models.Notification, error) {
	var payload payloads.SellerRejectedEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	if payload.UserID == uuid.Nil {
		return nil, fmt.Errorf("applicant id missing")
	}
	return []*models.Notification{{
		UserID:  payload.UserID,
		Type:    enums.NotificationTypeSellerApplication,
		Title:   "Seller application rejected",
		Message: fmt.Sprintf("Your application for %q was not approved. You may apply again.", payload.ShopName),
		Link:    stringPtr("/seller/apply"),
	}}, nil
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

func stringPtr(value string) *string {
	return &value
}
