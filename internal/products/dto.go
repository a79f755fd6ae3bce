package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roorreach/marketplace-backend/internal/categories"
	"github.com/roorreach/marketplace-backend/internal/reviews"
	"github.com/roorreach/marketplace-backend/pkg/db/models"
)

// ProductSummary is a catalog row with its aggregated rating.
type ProductSummary struct {
	ID              uuid.UUID           `json:"id"`
	SellerID        uuid.UUID           `json:"seller_id"`
	CategoryID      *uuid.UUID          `json:"category_id,omitempty"`
	CategoryName    string              `json:"category_name,omitempty"`
	Name            string              `json:"name"`
	Description     string              `json:"description"`
	Region          string              `json:"region"`
	Price           decimal.Decimal     `json:"price"`
	DiscountedPrice decimal.NullDecimal `json:"discounted_price"`
	EffectivePrice  decimal.Decimal     `json:"effective_price"`
	Stock           int                 `json:"stock"`
	InStock         bool                `json:"in_stock"`
	AvgRating       decimal.Decimal     `json:"avg_rating"`
	ReviewCount     int64               `json:"review_count"`
	CreatedAt       time.Time           `json:"created_at"`
}

// SellerSummary is the public face of a product's seller.
type SellerSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ProductDetail is the product page: the summary, its seller and reviews.
type ProductDetail struct {
	ProductSummary
	Seller  SellerSummary       `json:"seller"`
	Reviews []reviews.ReviewDTO `json:"reviews"`
}

// HomePage is the landing listing plus the most stocked categories.
type HomePage struct {
	Products      []ProductSummary         `json:"products"`
	TopCategories []categories.CategoryDTO `json:"top_categories"`
	Filter        Filter                   `json:"filter"`
}

// CategoryPage is a category listing.
type CategoryPage struct {
	Category categories.CategoryDTO `json:"category"`
	Products []ProductSummary       `json:"products"`
	Filter   Filter                 `json:"filter"`
}

// CreateInput is the seller's new-listing form.
type CreateInput struct {
	Name            string           `json:"name" validate:"required,max=200"`
	Description     string           `json:"description" validate:"max=5000"`
	Region          string           `json:"region" validate:"max=100"`
	Price           decimal.Decimal  `json:"price"`
	DiscountedPrice *decimal.Decimal `json:"discounted_price,omitempty"`
	Stock           int              `json:"stock" validate:"gte=0"`
	CategoryID      *uuid.UUID       `json:"category_id,omitempty"`
}

// UpdateInput carries optional changes; nil fields are left untouched.
// ClearDiscount removes an existing discounted price.
type UpdateInput struct {
	Name            *string          `json:"name,omitempty" validate:"omitempty,max=200"`
	Description     *string          `json:"description,omitempty" validate:"omitempty,max=5000"`
	Region          *string          `json:"region,omitempty" validate:"omitempty,max=100"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	DiscountedPrice *decimal.Decimal `json:"discounted_price,omitempty"`
	ClearDiscount   bool             `json:"clear_discount,omitempty"`
	Stock           *int             `json:"stock,omitempty" validate:"omitempty,gte=0"`
	CategoryID      *uuid.UUID       `json:"category_id,omitempty"`
}

func summaryFromModel(p *models.Product) ProductSummary {
	return ProductSummary{
		ID:              p.ID,
		SellerID:        p.SellerID,
		CategoryID:      p.CategoryID,
		Name:            p.Name,
		Description:     p.Description,
		Region:          p.Region,
		Price:           p.Price,
		DiscountedPrice: p.DiscountedPrice,
		EffectivePrice:  p.EffectivePrice(),
		Stock:           p.Stock,
		InStock:         p.Stock > 0,
		AvgRating:       decimal.Zero,
		CreatedAt:       p.CreatedAt,
	}
}
