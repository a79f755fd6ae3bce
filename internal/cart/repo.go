package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/roorreach/marketplace-backend/pkg/db/models"
)

// Repository persists cart entries.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateIfAbsent inserts item unless the buyer already holds an entry for
// the product; inserted is false when a concurrent add got there first.
func (r *Repository) CreateIfAbsent(ctx context.Context, item *models.CartItem) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(item)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Repository) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	res := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", id).
		Update("quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.CartItem{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteForUser empties a cart and returns how many entries were removed.
func (r *Repository) DeleteForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.CartItem{}, "user_id = ?", userID)
	return res.RowsAffected, res.Error
}

const lineSelect = "ci.id, ci.product_id, p.seller_id, p.name AS product_name, p.price, p.discounted_price, " +
	"ci.quantity, p.stock, ci.created_at"

type lineRow struct {
	ID              uuid.UUID
	ProductID       uuid.UUID
	SellerID        uuid.UUID
	ProductName     string
	Price           decimal.Decimal
	DiscountedPrice decimal.NullDecimal
	Quantity        int
	Stock           int
	CreatedAt       time.Time
}

// ListLines returns the user's entries for live products, oldest first.
func (r *Repository) ListLines(ctx context.Context, userID uuid.UUID) ([]CartLine, error) {
	var rows []lineRow
	err := r.db.WithContext(ctx).
		Table("cart_items ci").
		Select(lineSelect).
		Joins("JOIN products p ON p.id = ci.product_id AND p.deleted_at IS NULL").
		Where("ci.user_id = ?", userID).
		Order("ci.created_at ASC").
		Order("ci.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	lines := make([]CartLine, 0, len(rows))
	for _, row := range rows {
		unit := row.Price
		if row.DiscountedPrice.Valid {
			unit = row.DiscountedPrice.Decimal
		}
		lines = append(lines, CartLine{
			ID:          row.ID,
			ProductID:   row.ProductID,
			SellerID:    row.SellerID,
			ProductName: row.ProductName,
			UnitPrice:   unit,
			Quantity:    row.Quantity,
			Stock:       row.Stock,
			LineTotal:   unit.Mul(decimal.NewFromInt(int64(row.Quantity))),
			AddedAt:     row.CreatedAt,
		})
	}
	return lines, nil
}

// ListOrphaned returns entries whose product was soft-deleted or removed.
func (r *Repository) ListOrphaned(ctx context.Context, limit int) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Table("cart_items ci").
		Select("ci.*").
		Joins("LEFT JOIN products p ON p.id = ci.product_id").
		Where("p.id IS NULL OR p.deleted_at IS NOT NULL").
		Order("ci.created_at ASC").
		Limit(limit).
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
