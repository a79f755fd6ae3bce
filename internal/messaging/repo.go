package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/roorreach/marketplace-backend/pkg/db/models"
	"github.com/roorreach/marketplace-backend/pkg/pagination"
)

const threadSelect = "t.id, t.product_id, t.buyer_id, t.seller_id, t.last_message_at, t.last_message_preview, t.created_at, " +
	"COALESCE(p.name, '') AS product_name, " +
	"TRIM(COALESCE(b.first_name, '') || ' ' || COALESCE(b.last_name, '')) AS buyer_name, " +
	"TRIM(COALESCE(s.first_name, '') || ' ' || COALESCE(s.last_name, '')) AS seller_name, " +
	"EXISTS (SELECT 1 FROM orders o WHERE o.buyer_id = t.buyer_id AND o.product_id = t.product_id) AS has_ordered"

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// EnsureThread returns the (product, buyer) thread, creating it on first use.
func (r *Repository) EnsureThread(ctx context.Context, productID, buyerID, sellerID uuid.UUID) (*models.ChatThread, error) {
	thread := &models.ChatThread{ProductID: productID, BuyerID: buyerID, SellerID: sellerID}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "buyer_id"}},
			DoNothing: true,
		}).
		Create(thread).Error
	if err != nil {
		return nil, err
	}
	return r.FindThread(ctx, productID, buyerID)
}

func (r *Repository) FindThread(ctx context.Context, productID, buyerID uuid.UUID) (*models.ChatThread, error) {
	var thread models.ChatThread
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND buyer_id = ?", productID, buyerID).
		First(&thread).Error; err != nil {
		return nil, err
	}
	return &thread, nil
}

func (r *Repository) FindThreadByID(ctx context.Context, id uuid.UUID) (*models.ChatThread, error) {
	var thread models.ChatThread
	if err := r.db.WithContext(ctx).First(&thread, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &thread, nil
}

// AppendMessage stores msg and moves the thread's activity marker.
func (r *Repository) AppendMessage(ctx context.Context, msg *models.ChatMessage) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&models.ChatThread{}).
		Where("id = ?", msg.ThreadID).
		Updates(map[string]any{
			"last_message_at":      msg.CreatedAt,
			"last_message_preview": preview(msg.Body),
		}).Error
}

// ListMessages returns every message of a thread, oldest first.
func (r *Repository) ListMessages(ctx context.Context, threadID uuid.UUID) ([]models.ChatMessage, error) {
	var rows []models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// PageMessages pages a thread newest first.
func (r *Repository) PageMessages(ctx context.Context, threadID uuid.UUID, params pagination.Params) ([]models.ChatMessage, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	qb := r.db.WithContext(ctx).Where("thread_id = ?", threadID)
	if cursor != nil {
		qb = qb.Where("(created_at < ? OR (created_at = ? AND id < ?))", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var rows []models.ChatMessage
	err = qb.Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	return rows, err
}

type threadRow struct {
	ID                 uuid.UUID
	ProductID          uuid.UUID
	ProductName        string
	BuyerID            uuid.UUID
	BuyerName          string
	SellerID           uuid.UUID
	SellerName         string
	LastMessageAt      *time.Time
	LastMessagePreview string
	HasOrdered         bool
	CreatedAt          time.Time
}

func (row threadRow) dto() ThreadDTO {
	return ThreadDTO(row)
}

func (r *Repository) threadQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("chat_threads t").
		Select(threadSelect).
		Joins("LEFT JOIN products p ON p.id = t.product_id").
		Joins("LEFT JOIN users b ON b.id = t.buyer_id").
		Joins("LEFT JOIN users s ON s.id = t.seller_id")
}

func (r *Repository) listThreads(qb *gorm.DB) ([]ThreadDTO, error) {
	var rows []threadRow
	if err := qb.
		Order("COALESCE(t.last_message_at, t.created_at) DESC").
		Order("t.id DESC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]ThreadDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.dto())
	}
	return out, nil
}

// ThreadsForSeller returns the seller's threads, most recent activity first.
func (r *Repository) ThreadsForSeller(ctx context.Context, sellerID uuid.UUID) ([]ThreadDTO, error) {
	return r.listThreads(r.threadQuery(ctx).Where("t.seller_id = ?", sellerID))
}

// ThreadsForBuyer returns the buyer's threads, most recent activity first.
func (r *Repository) ThreadsForBuyer(ctx context.Context, buyerID uuid.UUID) ([]ThreadDTO, error) {
	return r.listThreads(r.threadQuery(ctx).Where("t.buyer_id = ?", buyerID))
}

func (r *Repository) ThreadDetail(ctx context.Context, id uuid.UUID) (*ThreadDTO, error) {
	var rows []threadRow
	if err := r.threadQuery(ctx).Where("t.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	dto := rows[0].dto()
	return &dto, nil
}
