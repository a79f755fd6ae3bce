package products

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	pkgdb "github.com/roorreach/marketplace-backend/pkg/db"
	"github.com/roorreach/marketplace-backend/pkg/db/models"
	"github.com/roorreach/marketplace-backend/pkg/enums"
	"github.com/roorreach/marketplace-backend/pkg/pagination"
)

// listOrder selects the ordering rules of a listing surface.
type listOrder int

const (
	// orderHome falls back to insertion order.
	orderHome listOrder = iota
	// orderCategory breaks price ties by descending id and defaults to newest first.
	orderCategory
)

const reviewStatsJoin = "LEFT JOIN (SELECT product_id, AVG(rating) AS avg_rating, COUNT(*) AS review_count " +
	"FROM reviews GROUP BY product_id) rs ON rs.product_id = p.id"

const summarySelect = "p.id, p.seller_id, p.category_id, COALESCE(c.name, '') AS category_name, " +
	"p.name, p.description, p.region, p.price, p.discounted_price, p.stock, p.created_at, " +
	"COALESCE(rs.avg_rating, 0) AS avg_rating, COALESCE(rs.review_count, 0) AS review_count"

// Repository persists products and serves the catalog queries.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type summaryRow struct {
	ID              uuid.UUID
	SellerID        uuid.UUID
	CategoryID      *uuid.UUID
	CategoryName    string
	Name            string
	Description     string
	Region          string
	Price           decimal.Decimal
	DiscountedPrice decimal.NullDecimal
	Stock           int
	AvgRating       decimal.Decimal
	ReviewCount     int64
	CreatedAt       time.Time
}

func (row summaryRow) toSummary() ProductSummary {
	effective := row.Price
	if row.DiscountedPrice.Valid {
		effective = row.DiscountedPrice.Decimal
	}
	return ProductSummary{
		ID:              row.ID,
		SellerID:        row.SellerID,
		CategoryID:      row.CategoryID,
		CategoryName:    row.CategoryName,
		Name:            row.Name,
		Description:     row.Description,
		Region:          row.Region,
		Price:           row.Price,
		DiscountedPrice: row.DiscountedPrice,
		EffectivePrice:  effective,
		Stock:           row.Stock,
		InStock:         row.Stock > 0,
		AvgRating:       row.AvgRating.Round(2),
		ReviewCount:     row.ReviewCount,
		CreatedAt:       row.CreatedAt,
	}
}

func (r *Repository) summaryQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("products p").
		Select(summarySelect).
		Joins("LEFT JOIN categories c ON c.id = p.category_id").
		Joins(reviewStatsJoin).
		Where("p.deleted_at IS NULL")
}

func applyFilter(qb *gorm.DB, f Filter) *gorm.DB {
	if f.Query != "" {
		like := pkgdb.ContainsPattern(f.Query)
		qb = qb.Where("(LOWER(p.name) LIKE ? "+pkgdb.ContainsEscape+" OR LOWER(p.description) LIKE ? "+pkgdb.ContainsEscape+")", like, like)
	}
	if f.Region != "" {
		qb = qb.Where("LOWER(p.region) LIKE ? "+pkgdb.ContainsEscape, pkgdb.ContainsPattern(f.Region))
	}
	switch f.Stock {
	case enums.StockIn:
		qb = qb.Where("p.stock > 0")
	case enums.StockOut:
		qb = qb.Where("p.stock <= 0")
	}
	if f.MinPrice != nil {
		qb = qb.Where("p.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		qb = qb.Where("p.price <= ?", *f.MaxPrice)
	}
	if f.CategoryID != nil {
		qb = qb.Where("p.category_id = ?", *f.CategoryID)
	}
	return qb
}

func applyOrder(qb *gorm.DB, sort enums.PriceSort, order listOrder) *gorm.DB {
	switch sort {
	case enums.PriceSortAsc:
		qb = qb.Order("p.price ASC")
	case enums.PriceSortDesc:
		qb = qb.Order("p.price DESC")
	}
	if order == orderCategory {
		if sort == enums.PriceSortNone {
			qb = qb.Order("p.created_at DESC")
		}
		return qb.Order("p.id DESC")
	}
	return qb.Order("p.created_at ASC").Order("p.id ASC")
}

// ListSummaries returns every live product matching f.
func (r *Repository) ListSummaries(ctx context.Context, f Filter, order listOrder) ([]ProductSummary, error) {
	qb := applyOrder(applyFilter(r.summaryQuery(ctx), f), f.Sort, order)

	var rows []summaryRow
	if err := qb.Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]ProductSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toSummary())
	}
	return out, nil
}

// FindSummary returns gorm.ErrRecordNotFound for unknown or deleted products.
func (r *Repository) FindSummary(ctx context.Context, id uuid.UUID) (*ProductSummary, error) {
	var rows []summaryRow
	if err := r.summaryQuery(ctx).Where("p.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	summary := rows[0].toSummary()
	return &summary, nil
}

// ListForSeller pages a seller's live products, newest first.
func (r *Repository) ListForSeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (pagination.Page[ProductSummary], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[ProductSummary]{}, err
	}

	qb := r.summaryQuery(ctx).Where("p.seller_id = ?", sellerID)
	if cursor != nil {
		qb = qb.Where("(p.created_at < ? OR (p.created_at = ? AND p.id < ?))", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []summaryRow
	if err := qb.Order("p.created_at DESC").Order("p.id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Scan(&rows).Error; err != nil {
		return pagination.Page[ProductSummary]{}, err
	}
	items := make([]ProductSummary, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toSummary())
	}
	return pagination.Build(items, params.Limit, func(p ProductSummary) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	}), nil
}

// SellerName returns the display name of a user.
func (r *Repository) SellerName(ctx context.Context, userID uuid.UUID) (string, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Select("first_name", "last_name").First(&user, "id = ?", userID).Error; err != nil {
		return "", err
	}
	return strings.TrimSpace(user.FirstName + " " + user.LastName), nil
}

// FindByID excludes soft-deleted products.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *Repository) Save(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// SoftDelete sets deleted_at; the row stays for order history.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DecrementStock removes qty units only when that many remain. It reports
// false without changing anything when stock is short.
func (r *Repository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Restock returns units to a product, including soft-deleted ones.
func (r *Repository) Restock(ctx context.Context, id uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Unscoped().
		Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty)).Error
}
