package products

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/roorreach/marketplace-backend/internal/categories"
	"github.com/roorreach/marketplace-backend/internal/reviews"
	pkgerrors "github.com/roorreach/marketplace-backend/pkg/errors"
)

const topCategoryCount = 5

type categoryReader interface {
	Get(ctx context.Context, id uuid.UUID) (*categories.CategoryDTO, error)
	Top(ctx context.Context, n int) ([]categories.CategoryDTO, error)
}

type reviewLister interface {
	ListForProduct(ctx context.Context, productID uuid.UUID) ([]reviews.ReviewDTO, error)
}

// CatalogService serves the public storefront listings.
type CatalogService interface {
	List(ctx context.Context, f Filter) ([]ProductSummary, error)
	Home(ctx context.Context, f Filter) (*HomePage, error)
	ListByCategory(ctx context.Context, categoryID uuid.UUID, f Filter) (*CategoryPage, error)
	Detail(ctx context.Context, productID uuid.UUID) (*ProductDetail, error)
}

type CatalogParams struct {
	Repo       *Repository
	Categories categoryReader
	Reviews    reviewLister
}

type catalogService struct {
	repo       *Repository
	categories categoryReader
	reviews    reviewLister
}

func NewCatalogService(params CatalogParams) (CatalogService, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Categories == nil {
		return nil, fmt.Errorf("category service required")
	}
	if params.Reviews == nil {
		return nil, fmt.Errorf("review service required")
	}
	return &catalogService{
		repo:       params.Repo,
		categories: params.Categories,
		reviews:    params.Reviews,
	}, nil
}

func (s *catalogService) List(ctx context.Context, f Filter) ([]ProductSummary, error) {
	rows, err := s.repo.ListSummaries(ctx, f, orderHome)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return rows, nil
}

func (s *catalogService) Home(ctx context.Context, f Filter) (*HomePage, error) {
	rows, err := s.List(ctx, f)
	if err != nil {
		return nil, err
	}
	top, err := s.categories.Top(ctx, topCategoryCount)
	if err != nil {
		return nil, err
	}
	return &HomePage{Products: rows, TopCategories: top, Filter: f}, nil
}

func (s *catalogService) ListByCategory(ctx context.Context, categoryID uuid.UUID, f Filter) (*CategoryPage, error) {
	category, err := s.categories.Get(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	f.CategoryID = &categoryID
	rows, err := s.repo.ListSummaries(ctx, f, orderCategory)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list category products")
	}
	category.ProductCount = int64(len(rows))
	return &CategoryPage{Category: *category, Products: rows, Filter: f}, nil
}

func (s *catalogService) Detail(ctx context.Context, productID uuid.UUID) (*ProductDetail, error) {
	summary, err := s.repo.FindSummary(ctx, productID)
	if err != nil {
		return nil, pkgerrors.FromDB(err, "product not found", "load product")
	}
	sellerName, err := s.repo.SellerName(ctx, summary.SellerID)
	if err != nil {
		return nil, pkgerrors.FromDB(err, "seller not found", "load seller")
	}
	list, err := s.reviews.ListForProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &ProductDetail{
		ProductSummary: *summary,
		Seller:         SellerSummary{ID: summary.SellerID, Name: sellerName},
		Reviews:        list,
	}, nil
}
