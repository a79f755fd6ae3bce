package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/roorreach/marketplace-backend/pkg/db/models"
	"github.com/roorreach/marketplace-backend/pkg/enums"
	"github.com/roorreach/marketplace-backend/pkg/pagination"
)

// Repository defines persistence operations for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrders(ctx context.Context, orders []models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// TransitionStatus moves an order from one status to another only if it is
	// still in from; it reports false when another writer got there first.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error)
	ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) ([]models.Order, error)
	ListForSeller(ctx context.Context, sellerID uuid.UUID, status *enums.OrderStatus, params pagination.Params) ([]models.Order, error)
	HasOrdered(ctx context.Context, buyerID, productID uuid.UUID) (bool, error)
}
