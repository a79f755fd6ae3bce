package sellers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/roorreach/marketplace-backend/pkg/db/models"
)

const applicationSelect = "a.id, a.user_id, a.shop_name, a.shop_address, a.location, a.email, a.tax_id, a.category_id, " +
	"a.nid_number, a.application_text, a.approved, a.submitted_at, " +
	"TRIM(COALESCE(u.first_name, '') || ' ' || COALESCE(u.last_name, '')) AS applicant_name"

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, app *models.SellerApplication) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.SellerApplication, error) {
	var app models.SellerApplication
	if err := r.db.WithContext(ctx).First(&app, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.SellerApplication, error) {
	var app models.SellerApplication
	if err := r.db.WithContext(ctx).First(&app, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

// ListPending returns unapproved applications, oldest first.
func (r *Repository) ListPending(ctx context.Context) ([]ApplicationDTO, error) {
	rows := []ApplicationDTO{}
	err := r.db.WithContext(ctx).
		Table("seller_applications a").
		Select(applicationSelect).
		Joins("LEFT JOIN users u ON u.id = a.user_id").
		Where("a.approved = ?", false).
		Order("a.submitted_at ASC").
		Order("a.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) MarkApproved(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.SellerApplication{}).
		Where("id = ? AND approved = ?", id, false).
		Update("approved", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.SellerApplication{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
