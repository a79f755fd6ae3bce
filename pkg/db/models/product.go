package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a seller listing. Stock is decremented only through a
// conditional update so it never goes negative.
type Product struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	SellerID        uuid.UUID           `gorm:"column:seller_id;type:uuid;not null;index"`
	CategoryID      *uuid.UUID          `gorm:"column:category_id;type:uuid;index"`
	Name            string              `gorm:"column:name;not null"`
	Description     string              `gorm:"column:description;not null;default:''"`
	Region          string              `gorm:"column:region;not null;default:''"`
	Price           decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	DiscountedPrice decimal.NullDecimal `gorm:"column:discounted_price;type:numeric(12,2)"`
	Stock           int                 `gorm:"column:stock;not null;default:0;check:stock >= 0"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt       gorm.DeletedAt      `gorm:"column:deleted_at;index"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// EffectivePrice is the discounted price when present, otherwise the list price.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.DiscountedPrice.Valid {
		return p.DiscountedPrice.Decimal
	}
	return p.Price
}
