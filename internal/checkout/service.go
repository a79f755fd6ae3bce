package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/roorreach/marketplace-backend/internal/cart"
	"github.com/roorreach/marketplace-backend/internal/orders"
	"github.com/roorreach/marketplace-backend/internal/products"
	pkgcheckout "github.com/roorreach/marketplace-backend/pkg/checkout"
	"github.com/roorreach/marketplace-backend/pkg/db/models"
	"github.com/roorreach/marketplace-backend/pkg/enums"
	pkgerrors "github.com/roorreach/marketplace-backend/pkg/errors"
	"github.com/roorreach/marketplace-backend/pkg/logger"
	"github.com/roorreach/marketplace-backend/pkg/metrics"
	"github.com/roorreach/marketplace-backend/pkg/outbox"
	"github.com/roorreach/marketplace-backend/pkg/outbox/payloads"
	"github.com/roorreach/marketplace-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type cartReader interface {
	ListLines(ctx context.Context, userID uuid.UUID) ([]cart.CartLine, error)
}

// Quote is the price summary shown before an order is placed.
type Quote struct {
	Items     []cart.CartLine `json:"items"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Shipping  decimal.Decimal `json:"shipping"`
	Total     decimal.Decimal `json:"total"`
}

// Result is a placed checkout: one order per former cart entry.
type Result struct {
	CheckoutID uuid.UUID         `json:"checkout_id"`
	Orders     []orders.OrderDTO `json:"orders"`
	Subtotal   decimal.Decimal   `json:"subtotal"`
	Shipping   decimal.Decimal   `json:"shipping"`
	Total      decimal.Decimal   `json:"total"`
}

// Service executes checkout orchestration.
type Service interface {
	Summary(ctx context.Context, actor types.Actor) (*Quote, error)
	PlaceOrder(ctx context.Context, actor types.Actor, details pkgcheckout.ShippingDetails) (*Result, error)
}

type ServiceParams struct {
	Tx           txRunner
	Cart         cartReader
	Orders       orders.Repository
	Outbox       outboxPublisher
	ShippingCost decimal.Decimal
	Metrics      *metrics.Marketplace
	Logger       *logger.Logger
}

type service struct {
	tx       txRunner
	cart     cartReader
	orders   orders.Repository
	outbox   outboxPublisher
	shipping decimal.Decimal
	metrics  *metrics.Marketplace
	logg     *logger.Logger
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart reader required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.ShippingCost.IsNegative() {
		return nil, fmt.Errorf("shipping cost must not be negative")
	}
	return &service{
		tx:       params.Tx,
		cart:     params.Cart,
		orders:   params.Orders,
		outbox:   params.Outbox,
		shipping: params.ShippingCost,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

func (s *service) Summary(ctx context.Context, actor types.Actor) (*Quote, error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	lines, err := s.cart.ListLines(ctx, actor.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	view := cart.NewView(lines)
	return &Quote{
		Items:     view.Items,
		ItemCount: view.ItemCount,
		Subtotal:  view.Subtotal,
		Shipping:  s.shipping,
		Total:     view.Subtotal.Add(s.shipping),
	}, nil
}

// PlaceOrder turns the whole cart into orders. Either every order is created,
// stock is taken and the cart is emptied, or nothing changes.
func (s *service) PlaceOrder(ctx context.Context, actor types.Actor, details pkgcheckout.ShippingDetails) (*Result, error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	details = details.Normalize()
	if details.FullName == "" || details.ShippingAddress == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping details incomplete").
			WithDetails(map[string]string{"full_name": "is required", "shipping_address": "is required"})
	}

	result := &Result{CheckoutID: uuid.New(), Shipping: s.shipping}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := cart.NewRepository(tx)
		productRepo := products.NewRepository(tx)

		lines, err := cartRepo.ListLines(ctx, actor.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		block := details.Block()
		placed := make([]models.Order, 0, len(lines))
		subtotal := decimal.Zero
		for _, line := range lines {
			ok, err := productRepo.DecrementStock(ctx, line.ProductID, line.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
			}
			if !ok {
				remaining := 0
				if current, err := productRepo.FindByID(ctx, line.ProductID); err == nil {
					remaining = current.Stock
				}
				return pkgcheckout.InsufficientStock(pkgcheckout.StockShortage{
					ProductID:    line.ProductID,
					ProductName:  line.ProductName,
					Remaining:    remaining,
					RequestedQty: line.Quantity,
				})
			}
			placed = append(placed, models.Order{
				CheckoutID:      result.CheckoutID,
				BuyerID:         actor.UserID,
				SellerID:        line.SellerID,
				ProductID:       line.ProductID,
				ProductName:     line.ProductName,
				Quantity:        line.Quantity,
				UnitPrice:       line.UnitPrice,
				LineTotal:       line.LineTotal,
				ShippingAddress: block,
				PaymentMethod:   details.PaymentMethod,
				Status:          enums.OrderStatusPending,
				PaymentStatus:   false,
			})
			subtotal = subtotal.Add(line.LineTotal)
		}

		if err := s.orders.WithTx(tx).CreateOrders(ctx, placed); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create orders")
		}
		if _, err := cartRepo.DeleteForUser(ctx, actor.UserID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}

		result.Subtotal = subtotal
		result.Total = subtotal.Add(s.shipping)
		result.Orders = make([]orders.OrderDTO, 0, len(placed))
		orderIDs := make([]uuid.UUID, 0, len(placed))
		sellerIDs := make([]uuid.UUID, 0, len(placed))
		seen := map[uuid.UUID]struct{}{}
		for i := range placed {
			result.Orders = append(result.Orders, orders.FromModel(&placed[i]))
			orderIDs = append(orderIDs, placed[i].ID)
			if _, dup := seen[placed[i].SellerID]; !dup {
				seen[placed[i].SellerID] = struct{}{}
				sellerIDs = append(sellerIDs, placed[i].SellerID)
			}
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateCheckout,
			AggregateID:   result.CheckoutID,
			Actor:         outbox.ActorFrom(actor),
			Data: payloads.OrderPlacedEvent{
				CheckoutID: result.CheckoutID,
				BuyerID:    actor.UserID,
				OrderIDs:   orderIDs,
				SellerIDs:  sellerIDs,
				Subtotal:   result.Subtotal,
				Shipping:   result.Shipping,
				Total:      result.Total,
			},
		})
	})
	if err != nil {
		s.metrics.ObserveCheckout(checkoutResult(err), 0)
		return nil, err
	}

	s.metrics.ObserveCheckout(metrics.CheckoutPlaced, len(result.Orders))
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"checkout_id": result.CheckoutID.String(),
			"orders":      len(result.Orders),
		})
		s.logg.Info(logCtx, "checkout.placed")
	}
	return result, nil
}

func checkoutResult(err error) string {
	switch {
	case pkgerrors.IsCode(err, pkgerrors.CodeValidation):
		return metrics.CheckoutEmptyCart
	case pkgerrors.IsCode(err, pkgerrors.CodeStateConflict):
		return metrics.CheckoutInsufficientStock
	default:
		return metrics.CheckoutFailed
	}
}
