package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/roorreach/marketplace-backend/internal/products"
	"github.com/roorreach/marketplace-backend/pkg/db/models"
	"github.com/roorreach/marketplace-backend/pkg/enums"
	pkgerrors "github.com/roorreach/marketplace-backend/pkg/errors"
	"github.com/roorreach/marketplace-backend/pkg/logger"
	"github.com/roorreach/marketplace-backend/pkg/metrics"
	"github.com/roorreach/marketplace-backend/pkg/outbox"
	"github.com/roorreach/marketplace-backend/pkg/outbox/payloads"
	"github.com/roorreach/marketplace-backend/pkg/pagination"
	"github.com/roorreach/marketplace-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service drives the order status workflow.
type Service interface {
	UpdateStatus(ctx context.Context, actor types.Actor, orderID uuid.UUID, target string) (*OrderDTO, error)
	SellerCancel(ctx context.Context, actor types.Actor, orderID uuid.UUID) (*OrderDTO, error)
	BuyerCancel(ctx context.Context, actor types.Actor, orderID uuid.UUID) (*OrderDTO, error)
	ListForBuyer(ctx context.Context, actor types.Actor, params pagination.Params) (pagination.Page[OrderDTO], error)
	ListForSeller(ctx context.Context, actor types.Actor, status string, params pagination.Params) (pagination.Page[OrderDTO], error)
}

type ServiceParams struct {
	Repo    Repository
	Tx      txRunner
	Outbox  outboxPublisher
	Metrics *metrics.Marketplace
	Logger  *logger.Logger
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	metrics *metrics.Marketplace
	logg    *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:    params.Repo,
		tx:      params.Tx,
		outbox:  params.Outbox,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

func (s *service) UpdateStatus(ctx context.Context, actor types.Actor, orderID uuid.UUID, target string) (*OrderDTO, error) {
	if !actor.IsSeller() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "seller access required")
	}
	status, err := enums.ParseOrderStatus(target)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
			WithDetails(map[string]string{"status": "must be one of: pending confirmed shipped delivered cancelled"})
	}
	if status == enums.OrderStatusCancelled {
		return s.cancel(ctx, actor, orderID, enums.SenderSeller)
	}

	var order *models.Order
	var from enums.OrderStatus
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err = repo.FindByID(ctx, orderID)
		if err != nil {
			return pkgerrors.FromDB(err, "order not found", "load order")
		}
		if order.SellerID != actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another seller")
		}
		from = order.Status
		if err := s.transition(ctx, repo, order, status); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         outbox.ActorFrom(actor),
			Data: payloads.OrderStatusChangedEvent{
				OrderID:   order.ID,
				BuyerID:   order.BuyerID,
				SellerID:  order.SellerID,
				From:      from,
				To:        status,
				ChangedBy: actor.UserID,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveTransition(string(from), string(status))
	dto := FromModel(order)
	return &dto, nil
}

func (s *service) SellerCancel(ctx context.Context, actor types.Actor, orderID uuid.UUID) (*OrderDTO, error) {
	if !actor.IsSeller() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "seller access required")
	}
	return s.cancel(ctx, actor, orderID, enums.SenderSeller)
}

func (s *service) BuyerCancel(ctx context.Context, actor types.Actor, orderID uuid.UUID) (*OrderDTO, error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return s.cancel(ctx, actor, orderID, enums.SenderBuyer)
}

// cancel moves an order to cancelled and returns its units to stock in the
// same transaction.
func (s *service) cancel(ctx context.Context, actor types.Actor, orderID uuid.UUID, side enums.SenderRole) (*OrderDTO, error) {
	var order *models.Order
	var from enums.OrderStatus
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		repo := s.repo.WithTx(tx)
		order, err = repo.FindByID(ctx, orderID)
		if err != nil {
			return pkgerrors.FromDB(err, "order not found", "load order")
		}
		from = order.Status

		switch side {
		case enums.SenderBuyer:
			if order.BuyerID != actor.UserID {
				return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another buyer")
			}
			if !order.Status.BuyerCancellable() {
				return pkgerrors.Newf(pkgerrors.CodeStateConflict, "order can no longer be cancelled (status %s)", order.Status).
					WithDetails(map[string]string{"status": string(order.Status)})
			}
		default:
			if order.SellerID != actor.UserID {
				return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another seller")
			}
		}

		if err := s.transition(ctx, repo, order, enums.OrderStatusCancelled); err != nil {
			return err
		}
		if err := products.NewRepository(tx).Restock(ctx, order.ProductID, order.Quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restock product")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         outbox.ActorFrom(actor),
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				ProductID:   order.ProductID,
				BuyerID:     order.BuyerID,
				SellerID:    order.SellerID,
				From:        from,
				Restocked:   order.Quantity,
				CancelledBy: side,
				CancelledAt: time.Now().UTC(),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveTransition(string(from), string(enums.OrderStatusCancelled))
	dto := FromModel(order)
	return &dto, nil
}

func (s *service) transition(ctx context.Context, repo Repository, order *models.Order, to enums.OrderStatus) error {
	if !order.Status.CanTransitionTo(to) {
		return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot move order from %s to %s", order.Status, to).
			WithDetails(map[string]string{"from": string(order.Status), "to": string(to)})
	}
	ok, err := repo.TransitionStatus(ctx, order.ID, order.Status, to)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
	}
	order.Status = to
	return nil
}

func (s *service) ListForBuyer(ctx context.Context, actor types.Actor, params pagination.Params) (pagination.Page[OrderDTO], error) {
	if actor.IsZero() {
		return pagination.Page[OrderDTO]{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	rows, err := s.repo.ListForBuyer(ctx, actor.UserID, params)
	if err != nil {
		return pagination.Page[OrderDTO]{}, listError(err)
	}
	return pageOf(rows, params.Limit), nil
}

func (s *service) ListForSeller(ctx context.Context, actor types.Actor, status string, params pagination.Params) (pagination.Page[OrderDTO], error) {
	if !actor.IsSeller() {
		return pagination.Page[OrderDTO]{}, pkgerrors.New(pkgerrors.CodeForbidden, "seller access required")
	}
	// Unknown statuses drop the filter, like malformed catalog bounds.
	var filter *enums.OrderStatus
	if parsed, err := enums.ParseOrderStatus(status); err == nil {
		filter = &parsed
	}
	rows, err := s.repo.ListForSeller(ctx, actor.UserID, filter, params)
	if err != nil {
		return pagination.Page[OrderDTO]{}, listError(err)
	}
	return pageOf(rows, params.Limit), nil
}

func listError(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
}
