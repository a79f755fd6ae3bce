package checkout

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/roorreach/marketplace-backend/pkg/errors"
)

// DefaultPaymentMethod is recorded when the buyer leaves the method blank.
const DefaultPaymentMethod = "Not specified"

// ShippingDetails is the delivery form submitted with an order.
type ShippingDetails struct {
	FullName        string `json:"full_name" validate:"required,max=200"`
	Phone           string `json:"phone" validate:"required,max=40"`
	Email           string `json:"email" validate:"required,email,max=254"`
	ShippingAddress string `json:"shipping_address" validate:"required,max=1000"`
	PaymentMethod   string `json:"payment_method" validate:"max=100"`
}

// Normalize trims every field and fills the default payment method.
func (d ShippingDetails) Normalize() ShippingDetails {
	out := ShippingDetails{
		FullName:        strings.TrimSpace(d.FullName),
		Phone:           strings.TrimSpace(d.Phone),
		Email:           strings.TrimSpace(d.Email),
		ShippingAddress: strings.TrimSpace(d.ShippingAddress),
		PaymentMethod:   strings.TrimSpace(d.PaymentMethod),
	}
	if out.PaymentMethod == "" {
		out.PaymentMethod = DefaultPaymentMethod
	}
	return out
}

// Block renders the address block stored on every order of a checkout.
func (d ShippingDetails) Block() string {
	return fmt.Sprintf("Name: %s\nPhone: %s\nEmail: %s\nAddress: %s\nPayment Method: %s",
		d.FullName, d.Phone, d.Email, d.ShippingAddress, d.PaymentMethod)
}

// StockShortage describes the product that could not cover its cart line.
type StockShortage struct {
	ProductID    uuid.UUID `json:"product_id"`
	ProductName  string    `json:"product_name"`
	Remaining    int       `json:"remaining"`
	RequestedQty int       `json:"requested_qty"`
}

// InsufficientStock builds the error that aborts a checkout.
func InsufficientStock(s StockShortage) error {
	return pkgerrors.Newf(pkgerrors.CodeStateConflict,
		"Not enough stock for '%s'. Only %d left in stock.", s.ProductName, s.Remaining).
		WithDetails(s)
}
