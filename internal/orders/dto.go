package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roorreach/marketplace-backend/pkg/db/models"
	"github.com/roorreach/marketplace-backend/pkg/enums"
	"github.com/roorreach/marketplace-backend/pkg/pagination"
)

// OrderDTO is the order as shown to its buyer or seller.
type OrderDTO struct {
	ID              uuid.UUID         `json:"id"`
	CheckoutID      uuid.UUID         `json:"checkout_id"`
	BuyerID         uuid.UUID         `json:"buyer_id"`
	SellerID        uuid.UUID         `json:"seller_id"`
	ProductID       uuid.UUID         `json:"product_id"`
	ProductName     string            `json:"product_name"`
	Quantity        int               `json:"quantity"`
	UnitPrice       decimal.Decimal   `json:"unit_price"`
	LineTotal       decimal.Decimal   `json:"line_total"`
	ShippingAddress string            `json:"shipping_address"`
	PaymentMethod   string            `json:"payment_method"`
	Status          enums.OrderStatus `json:"status"`
	PaymentStatus   bool              `json:"payment_status"`
	Cancellable     bool              `json:"cancellable"`
	OrderedAt       time.Time         `json:"ordered_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// UpdateStatusRequest is the seller's status form.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// StatusUpdateResult is the XHR reply of a status change.
type StatusUpdateResult struct {
	Success bool              `json:"success"`
	Status  enums.OrderStatus `json:"status,omitempty"`
	Message string            `json:"message"`
}

func FromModel(o *models.Order) OrderDTO {
	return OrderDTO{
		ID:              o.ID,
		CheckoutID:      o.CheckoutID,
		BuyerID:         o.BuyerID,
		SellerID:        o.SellerID,
		ProductID:       o.ProductID,
		ProductName:     o.ProductName,
		Quantity:        o.Quantity,
		UnitPrice:       o.UnitPrice,
		LineTotal:       o.LineTotal,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		Status:          o.Status,
		PaymentStatus:   o.PaymentStatus,
		Cancellable:     o.Status.BuyerCancellable(),
		OrderedAt:       o.OrderedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func pageOf(rows []models.Order, limit int) pagination.Page[OrderDTO] {
	dtos := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, FromModel(&rows[i]))
	}
	return pagination.Build(dtos, limit, func(o OrderDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.OrderedAt, ID: o.ID}
	})
}
