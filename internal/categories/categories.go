package categories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgdb "github.com/roorreach/marketplace-backend/pkg/db"
	"github.com/roorreach/marketplace-backend/pkg/db/models"
	"github.com/roorreach/marketplace-backend/pkg/enums"
	pkgerrors "github.com/roorreach/marketplace-backend/pkg/errors"
	"github.com/roorreach/marketplace-backend/pkg/types"
)

const maxNameLength = 100

// CategoryDTO is a category with the number of live products filed under it.
type CategoryDTO struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	ProductCount int64     `json:"product_count"`
}

// CreateRequest is the body of POST /categories.
type CreateRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// Service lists and creates product categories.
type Service interface {
	List(ctx context.Context, query string) ([]CategoryDTO, error)
	Top(ctx context.Context, n int) ([]CategoryDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*CategoryDTO, error)
	Create(ctx context.Context, actor types.Actor, name string) (*CategoryDTO, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("categories repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, query string) ([]CategoryDTO, error) {
	rows, err := s.repo.ListWithCounts(ctx, query, 0)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return rows, nil
}

func (s *service) Top(ctx context.Context, n int) ([]CategoryDTO, error) {
	if n <= 0 {
		n = 5
	}
	rows, err := s.repo.ListWithCounts(ctx, "", n)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list top categories")
	}
	return rows, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*CategoryDTO, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.FromDB(err, "category not found", "load category")
	}
	return &CategoryDTO{ID: category.ID, Name: category.Name}, nil
}

func (s *service) Create(ctx context.Context, actor types.Actor, name string) (*CategoryDTO, error) {
	if actor.Role != enums.UserRoleAdmin && actor.Role != enums.UserRoleSeller {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only sellers and admins can create categories")
	}
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > maxNameLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category name").
			WithDetails(map[string]string{"name": fmt.Sprintf("must be 1 to %d characters", maxNameLength)})
	}

	if _, err := s.repo.FindByName(ctx, name); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "category already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check category name")
	}

	category, err := s.repo.Create(ctx, name)
	if err != nil {
		if pkgdb.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	return &CategoryDTO{ID: category.ID, Name: category.Name}, nil
}

// Repository persists categories.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// FindByName matches case-insensitively.
func (r *Repository) FindByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// Exists reports whether a category id is known.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) Create(ctx context.Context, name string) (*models.Category, error) {
	category := &models.Category{Name: name}
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// ListWithCounts returns categories with live product counts. A positive limit
// orders by count (most products first); otherwise rows are ordered by name.
func (r *Repository) ListWithCounts(ctx context.Context, query string, limit int) ([]CategoryDTO, error) {
	qb := r.db.WithContext(ctx).
		Table("categories c").
		Select("c.id, c.name, COUNT(p.id) AS product_count").
		Joins("LEFT JOIN products p ON p.category_id = c.id AND p.deleted_at IS NULL").
		Group("c.id, c.name")

	if search := strings.TrimSpace(query); search != "" {
		qb = qb.Where("LOWER(c.name) LIKE ? "+pkgdb.ContainsEscape, pkgdb.ContainsPattern(search))
	}
	if limit > 0 {
		qb = qb.Order("product_count DESC").Order("c.name ASC").Limit(limit)
	} else {
		qb = qb.Order("c.name ASC")
	}

	rows := []CategoryDTO{}
	if err := qb.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
