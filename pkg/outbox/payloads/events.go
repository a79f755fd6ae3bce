package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roorreach/marketplace-backend/pkg/enums"
)

// OrderPlacedEvent summarizes a checkout that produced one order per cart line.
type OrderPlacedEvent struct {
	CheckoutID uuid.UUID       `json:"checkout_id"`
	BuyerID    uuid.UUID       `json:"buyer_id"`
	OrderIDs   []uuid.UUID     `json:"order_ids"`
	SellerIDs  []uuid.UUID     `json:"seller_ids"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Shipping   decimal.Decimal `json:"shipping"`
	Total      decimal.Decimal `json:"total"`
}

// OrderStatusChangedEvent is emitted for every accepted status transition.
type OrderStatusChangedEvent struct {
	OrderID   uuid.UUID         `json:"order_id"`
	BuyerID   uuid.UUID         `json:"buyer_id"`
	SellerID  uuid.UUID         `json:"seller_id"`
	From      enums.OrderStatus `json:"from"`
	To        enums.OrderStatus `json:"to"`
	ChangedBy uuid.UUID         `json:"changed_by"`
}

// OrderCancelledEvent records a cancellation and the stock returned to the product.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	ProductID   uuid.UUID         `json:"product_id"`
	BuyerID     uuid.UUID         `json:"buyer_id"`
	SellerID    uuid.UUID         `json:"seller_id"`
	From        enums.OrderStatus `json:"from"`
	Restocked   int               `json:"restocked"`
	CancelledBy enums.SenderRole  `json:"cancelled_by"`
	CancelledAt time.Time         `json:"cancelled_at"`
}

type ReviewSubmittedEvent struct {
	ReviewID   uuid.UUID `json:"review_id"`
	ProductID  uuid.UUID `json:"product_id"`
	ReviewerID uuid.UUID `json:"reviewer_id"`
	Rating     int       `json:"rating"`
}

type SellerAppliedEvent struct {
	ApplicationID uuid.UUID `json:"application_id"`
	UserID        uuid.UUID `json:"user_id"`
	ShopName      string    `json:"shop_name"`
}

type SellerApprovedEvent struct {
	ApplicationID uuid.UUID `json:"application_id"`
	UserID        uuid.UUID `json:"user_id"`
	ApprovedBy    uuid.UUID `json:"approved_by"`
}

// SellerRejectedEvent carries a snapshot of the deleted application.
type SellerRejectedEvent struct {
	ApplicationID   uuid.UUID  `json:"application_id"`
	UserID          uuid.UUID  `json:"user_id"`
	RejectedBy      uuid.UUID  `json:"rejected_by"`
	ShopName        string     `json:"shop_name"`
	ShopAddress     string     `json:"shop_address"`
	Location        string     `json:"location"`
	Email           string     `json:"email"`
	TaxID           string     `json:"tax_id"`
	CategoryID      *uuid.UUID `json:"category_id,omitempty"`
	NIDNumber       string     `json:"nid_number"`
	ApplicationText string     `json:"application_text"`
	SubmittedAt     time.Time  `json:"submitted_at"`
}
