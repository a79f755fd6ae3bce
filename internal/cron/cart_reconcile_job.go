package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/roorreach/marketplace-backend/pkg/db/models"
	"github.com/roorreach/marketplace-backend/pkg/logger"
	"go.uber.org/multierr"
)

const defaultCartReconcileBatch = 500

type orphanedCartStore interface {
	ListOrphaned(ctx context.Context, limit int) ([]models.CartItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type CartReconcileJobParams struct {
	Logger    *logger.Logger
	Carts     orphanedCartStore
	BatchSize int
}

// NewCartReconcileJob removes cart entries whose product no longer exists
// or was soft-deleted by its seller.
func NewCartReconcileJob(params CartReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultCartReconcileBatch
	}
	return &cartReconcileJob{logg: params.Logger, carts: params.Carts, batch: batch}, nil
}

type cartReconcileJob struct {
	logg  *logger.Logger
	carts orphanedCartStore
	batch int
}

func (j *cartReconcileJob) Name() string { return "cart-reconcile" }

func (j *cartReconcileJob) Run(ctx context.Context) error {
	items, err := j.carts.ListOrphaned(ctx, j.batch)
	if err != nil {
		return fmt.Errorf("list orphaned cart items: %w", err)
	}

	var errs error
	removed := 0
	for _, item := range items {
		if err := j.carts.Delete(ctx, item.ID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("cart item %s: %w", item.ID, err))
			continue
		}
		removed++
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"found":   len(items),
		"removed": removed,
		"failed":  len(multierr.Errors(errs)),
	}), "cart.reconciled")
	return errs
}
