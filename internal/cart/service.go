package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/roorreach/marketplace-backend/internal/products"
	"github.com/roorreach/marketplace-backend/pkg/db/models"
	pkgerrors "github.com/roorreach/marketplace-backend/pkg/errors"
	"github.com/roorreach/marketplace-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the buyer's cart accumulator.
type Service interface {
	Add(ctx context.Context, actor types.Actor, productID uuid.UUID) (*AddResult, error)
	Update(ctx context.Context, actor types.Actor, entryID uuid.UUID, quantity int) error
	Remove(ctx context.Context, actor types.Actor, entryID uuid.UUID) error
	View(ctx context.Context, actor types.Actor) (*CartView, error)
}

type service struct {
	repo *Repository
	tx   txRunner
}

// NewService builds a cart service; writes run inside tx.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Add(ctx context.Context, actor types.Actor, productID uuid.UUID) (*AddResult, error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	var (
		item    *models.CartItem
		product *models.Product
		warning string
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		product, err = products.NewRepository(tx).FindByID(ctx, productID)
		if err != nil {
			return pkgerrors.FromDB(err, "product not found", "load product")
		}
		if product.SellerID == actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "cannot add your own product")
		}
		if product.Stock <= 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "product out of stock")
		}

		repo := NewRepository(tx)
		item, err = repo.FindByUserAndProduct(ctx, actor.UserID, productID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = &models.CartItem{UserID: actor.UserID, ProductID: productID, Quantity: 1}
			inserted, err := repo.CreateIfAbsent(ctx, item)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart entry")
			}
			if inserted {
				return nil
			}
			// A concurrent first add won; count this one against its entry.
			item, err = repo.FindByUserAndProduct(ctx, actor.UserID, productID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart entry")
			}
		case err != nil:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart entry")
		}

		if item.Quantity >= product.Stock {
			warning = WarningStockLimit
			return nil
		}
		item.Quantity++
		if err := repo.UpdateQuantity(ctx, item.ID, item.Quantity); err != nil {
			return pkgerrors.FromDB(err, "cart entry not found", "update cart entry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	unit := product.EffectivePrice()
	return &AddResult{
		Item: CartLine{
			ID:          item.ID,
			ProductID:   product.ID,
			SellerID:    product.SellerID,
			ProductName: product.Name,
			UnitPrice:   unit,
			Quantity:    item.Quantity,
			Stock:       product.Stock,
			LineTotal:   unit.Mul(decimal.NewFromInt(int64(item.Quantity))),
			AddedAt:     item.CreatedAt,
		},
		Warning: warning,
	}, nil
}

// Update sets an absolute quantity without re-checking stock; checkout
// enforces availability.
func (s *service) Update(ctx context.Context, actor types.Actor, entryID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
			WithDetails(map[string]string{"quantity": "must be 1 or more"})
	}
	if _, err := s.loadOwned(ctx, actor, entryID); err != nil {
		return err
	}
	if err := s.repo.UpdateQuantity(ctx, entryID, quantity); err != nil {
		return pkgerrors.FromDB(err, "cart entry not found", "update cart entry")
	}
	return nil
}

func (s *service) Remove(ctx context.Context, actor types.Actor, entryID uuid.UUID) error {
	if _, err := s.loadOwned(ctx, actor, entryID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, entryID); err != nil {
		return pkgerrors.FromDB(err, "cart entry not found", "remove cart entry")
	}
	return nil
}

func (s *service) View(ctx context.Context, actor types.Actor) (*CartView, error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	lines, err := s.repo.ListLines(ctx, actor.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	view := NewView(lines)
	return &view, nil
}

func (s *service) loadOwned(ctx context.Context, actor types.Actor, entryID uuid.UUID) (*models.CartItem, error) {
	item, err := s.repo.FindByID(ctx, entryID)
	if err != nil {
		return nil, pkgerrors.FromDB(err, "cart entry not found", "load cart entry")
	}
	if item.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cart entry belongs to another user")
	}
	return item, nil
}
