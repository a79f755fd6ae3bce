package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/roorreach/marketplace-backend/pkg/enums"
)

// Order is the committed purchase of one product line. Orders created by the
// same checkout share CheckoutID.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	CheckoutID      uuid.UUID         `gorm:"column:checkout_id;type:uuid;not null;index"`
	BuyerID         uuid.UUID         `gorm:"column:buyer_id;type:uuid;not null;index"`
	SellerID        uuid.UUID         `gorm:"column:seller_id;type:uuid;not null;index"`
	ProductID       uuid.UUID         `gorm:"column:product_id;type:uuid;not null;index"`
	ProductName     string            `gorm:"column:product_name;not null"`
	Quantity        int               `gorm:"column:quantity;not null"`
	UnitPrice       decimal.Decimal   `gorm:"column:unit_price;type:numeric(12,2);not null"`
	LineTotal       decimal.Decimal   `gorm:"column:line_total;type:numeric(12,2);not null"`
	ShippingAddress string            `gorm:"column:shipping_address;not null"`
	PaymentMethod   string            `gorm:"column:payment_method;not null"`
	Status          enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending'"`
	PaymentStatus   bool              `gorm:"column:payment_status;not null;default:false"`
	OrderedAt       time.Time         `gorm:"column:ordered_at;not null"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	if o.OrderedAt.IsZero() {
		o.OrderedAt = time.Now().UTC()
	}
	return nil
}
