package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SellerApplication is a buyer's request to become a seller.
type SellerApplication struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID          uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	ShopName        string     `gorm:"column:shop_name;not null"`
	ShopAddress     string     `gorm:"column:shop_address;not null"`
	Location        string     `gorm:"column:location;not null"`
	Email           string     `gorm:"column:email;not null"`
	TaxID           string     `gorm:"column:tax_id;not null"`
	CategoryID      *uuid.UUID `gorm:"column:category_id;type:uuid"`
	NIDNumber       string     `gorm:"column:nid_number;not null"`
	ApplicationText string     `gorm:"column:application_text;not null"`
	Approved        bool       `gorm:"column:approved;not null;default:false"`
	SubmittedAt     time.Time  `gorm:"column:submitted_at;autoCreateTime"`
}

func (a *SellerApplication) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
