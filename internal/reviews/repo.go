package reviews

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/roorreach/marketplace-backend/pkg/db/models"
	"github.com/roorreach/marketplace-backend/pkg/enums"
)

// ReviewDTO is a review with the reviewer's display name.
type ReviewDTO struct {
	ID           uuid.UUID `json:"id"`
	ProductID    uuid.UUID `json:"product_id"`
	ReviewerID   uuid.UUID `json:"reviewer_id"`
	ReviewerName string    `json:"reviewer_name"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"created_at"`
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

// ProductExists ignores soft-deleted products.
func (r *Repository) ProductExists(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasQualifyingOrder reports whether the buyer holds a confirmed, shipped or
// delivered order for the product.
func (r *Repository) HasQualifyingOrder(ctx context.Context, buyerID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("buyer_id = ? AND product_id = ? AND status IN ?", buyerID, productID, enums.PurchaseStatuses()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

const reviewSelect = "r.id, r.product_id, r.reviewer_id, r.rating, r.comment, r.created_at, " +
	"TRIM(COALESCE(u.first_name, '') || ' ' || COALESCE(u.last_name, '')) AS reviewer_name"

// ListForProduct returns reviews newest first.
func (r *Repository) ListForProduct(ctx context.Context, productID uuid.UUID) ([]ReviewDTO, error) {
	rows := []ReviewDTO{}
	err := r.db.WithContext(ctx).
		Table("reviews r").
		Select(reviewSelect).
		Joins("LEFT JOIN users u ON u.id = r.reviewer_id").
		Where("r.product_id = ?", productID).
		Order("r.created_at DESC").
		Order("r.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
