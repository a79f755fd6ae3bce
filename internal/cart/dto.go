package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WarningStockLimit is returned when an add would exceed available stock.
const WarningStockLimit = "stock limit reached"

// CartLine is a cart entry with its product snapshot.
type CartLine struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	SellerID    uuid.UUID       `json:"seller_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Stock       int             `json:"stock"`
	LineTotal   decimal.Decimal `json:"line_total"`
	AddedAt     time.Time       `json:"added_at"`
}

// CartView is the buyer's full cart.
type CartView struct {
	Items     []CartLine      `json:"items"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// AddResult carries the entry after an add and an optional soft warning.
type AddResult struct {
	Item    CartLine `json:"item"`
	Warning string   `json:"warning,omitempty"`
}

// AddItemRequest is the body of POST /cart/items.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

// UpdateItemRequest is the body of PATCH /cart/items/{itemId}.
type UpdateItemRequest struct {
	Quantity int `json:"quantity" validate:"gte=1"`
}

// NewView totals lines into a cart view.
func NewView(lines []CartLine) CartView {
	view := CartView{Items: lines, Subtotal: decimal.Zero}
	if view.Items == nil {
		view.Items = []CartLine{}
	}
	for _, line := range view.Items {
		view.ItemCount += line.Quantity
		view.Subtotal = view.Subtotal.Add(line.LineTotal)
	}
	return view
}
