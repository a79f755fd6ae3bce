package enums

import "fmt"

// OutboxAggregateType names the entity an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateCheckout          OutboxAggregateType = "checkout"
	AggregateOrder             OutboxAggregateType = "order"
	AggregateReview            OutboxAggregateType = "review"
	AggregateSellerApplication OutboxAggregateType = "seller_application"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateCheckout,
	AggregateOrder,
	AggregateReview,
	AggregateSellerApplication,
}

// IsValid reports whether the value is a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType names a domain event.
type OutboxEventType string

const (
	EventOrderPlaced        OutboxEventType = "order.placed"
	EventOrderStatusChanged OutboxEventType = "order.status_changed"
	EventOrderCancelled     OutboxEventType = "order.cancelled"
	EventReviewSubmitted    OutboxEventType = "review.submitted"
	EventSellerApplied      OutboxEventType = "seller.applied"
	EventSellerApproved     OutboxEventType = "seller.approved"
	EventSellerRejected     OutboxEventType = "seller.rejected"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderPlaced,
	EventOrderStatusChanged,
	EventOrderCancelled,
	EventReviewSubmitted,
	EventSellerApplied,
	EventSellerApproved,
	EventSellerRejected,
}

// IsValid reports whether the value is a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
