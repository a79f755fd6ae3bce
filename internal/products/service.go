package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roorreach/marketplace-backend/internal/categories"
	"github.com/roorreach/marketplace-backend/pkg/db/models"
	pkgerrors "github.com/roorreach/marketplace-backend/pkg/errors"
	"github.com/roorreach/marketplace-backend/pkg/pagination"
	"github.com/roorreach/marketplace-backend/pkg/types"
)

type categoryGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*categories.CategoryDTO, error)
}

// Service manages a seller's own listings.
type Service interface {
	Create(ctx context.Context, actor types.Actor, in CreateInput) (*ProductSummary, error)
	Update(ctx context.Context, actor types.Actor, productID uuid.UUID, in UpdateInput) (*ProductSummary, error)
	Delete(ctx context.Context, actor types.Actor, productID uuid.UUID) error
	ListForSeller(ctx context.Context, actor types.Actor, params pagination.Params) (pagination.Page[ProductSummary], error)
}

type service struct {
	repo       *Repository
	categories categoryGetter
}

func NewService(repo *Repository, categories categoryGetter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if categories == nil {
		return nil, fmt.Errorf("category service required")
	}
	return &service{repo: repo, categories: categories}, nil
}

func (s *service) Create(ctx context.Context, actor types.Actor, in CreateInput) (*ProductSummary, error) {
	if !actor.IsSeller() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only approved sellers can list products")
	}

	product := &models.Product{
		SellerID:    actor.UserID,
		CategoryID:  in.CategoryID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Region:      strings.TrimSpace(in.Region),
		Price:       in.Price,
		Stock:       in.Stock,
	}
	if in.DiscountedPrice != nil {
		product.DiscountedPrice = decimal.NewNullDecimal(*in.DiscountedPrice)
	}
	if err := s.validate(ctx, product); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	summary := summaryFromModel(product)
	return &summary, nil
}

func (s *service) Update(ctx context.Context, actor types.Actor, productID uuid.UUID, in UpdateInput) (*ProductSummary, error) {
	product, err := s.loadOwned(ctx, actor, productID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		product.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		product.Description = strings.TrimSpace(*in.Description)
	}
	if in.Region != nil {
		product.Region = strings.TrimSpace(*in.Region)
	}
	if in.Price != nil {
		product.Price = *in.Price
	}
	if in.ClearDiscount {
		product.DiscountedPrice = decimal.NullDecimal{}
	} else if in.DiscountedPrice != nil {
		product.DiscountedPrice = decimal.NewNullDecimal(*in.DiscountedPrice)
	}
	if in.Stock != nil {
		product.Stock = *in.Stock
	}
	if in.CategoryID != nil {
		product.CategoryID = in.CategoryID
	}
	if err := s.validate(ctx, product); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	summary := summaryFromModel(product)
	return &summary, nil
}

func (s *service) Delete(ctx context.Context, actor types.Actor, productID uuid.UUID) error {
	if _, err := s.loadOwned(ctx, actor, productID); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, productID); err != nil {
		return pkgerrors.FromDB(err, "product not found", "delete product")
	}
	return nil
}

func (s *service) ListForSeller(ctx context.Context, actor types.Actor, params pagination.Params) (pagination.Page[ProductSummary], error) {
	if !actor.IsSeller() {
		return pagination.Page[ProductSummary]{}, pkgerrors.New(pkgerrors.CodeForbidden, "seller access required")
	}
	page, err := s.repo.ListForSeller(ctx, actor.UserID, params)
	if err != nil {
		return pagination.Page[ProductSummary]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list seller products")
	}
	return page, nil
}

func (s *service) loadOwned(ctx context.Context, actor types.Actor, productID uuid.UUID) (*models.Product, error) {
	if !actor.IsSeller() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "seller access required")
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, pkgerrors.FromDB(err, "product not found", "load product")
	}
	if product.SellerID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "you do not own this product")
	}
	return product, nil
}

func (s *service) validate(ctx context.Context, product *models.Product) error {
	details := map[string]string{}
	if product.Name == "" {
		details["name"] = "is required"
	}
	if !product.Price.IsPositive() {
		details["price"] = "must be greater than 0"
	}
	if product.DiscountedPrice.Valid {
		discounted := product.DiscountedPrice.Decimal
		if discounted.IsNegative() || discounted.GreaterThanOrEqual(product.Price) {
			details["discounted_price"] = "must be below price"
		}
	}
	if product.Stock < 0 {
		details["stock"] = "must be 0 or more"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid product").WithDetails(details)
	}

	if product.CategoryID != nil {
		if _, err := s.categories.Get(ctx, *product.CategoryID); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "invalid product").
					WithDetails(map[string]string{"category_id": "unknown category"})
			}
			return err
		}
	}
	return nil
}
