package main

import (
	"fmt"

	"github.com/roorreach/marketplace-backend/api/routes"
	"github.com/roorreach/marketplace-backend/internal/auth"
	"github.com/roorreach/marketplace-backend/internal/cart"
	"github.com/roorreach/marketplace-backend/internal/categories"
	"github.com/roorreach/marketplace-backend/internal/checkout"
	"github.com/roorreach/marketplace-backend/internal/messaging"
	"github.com/roorreach/marketplace-backend/internal/notifications"
	"github.com/roorreach/marketplace-backend/internal/orders"
	"github.com/roorreach/marketplace-backend/internal/products"
	"github.com/roorreach/marketplace-backend/internal/reviews"
	"github.com/roorreach/marketplace-backend/internal/sellers"
	"github.com/roorreach/marketplace-backend/internal/users"
	"github.com/roorreach/marketplace-backend/pkg/auth/session"
	"github.com/roorreach/marketplace-backend/pkg/config"
	"github.com/roorreach/marketplace-backend/pkg/db"
	"github.com/roorreach/marketplace-backend/pkg/logger"
	"github.com/roorreach/marketplace-backend/pkg/metrics"
	"github.com/roorreach/marketplace-backend/pkg/outbox"
	"github.com/roorreach/marketplace-backend/pkg/redis"
)

// buildDeps constructs every domain service on top of the shared clients.
func buildDeps(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	sessions *session.Manager,
	market *metrics.Marketplace,
) (*routes.Deps, error) {
	conn := dbClient.DB()
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)
	userRepo := users.NewRepository(conn)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessions,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}
	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		UserRepo:       userRepo,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("register service: %w", err)
	}
	userService, err := users.NewService(userRepo)
	if err != nil {
		return nil, fmt.Errorf("users service: %w", err)
	}

	categoryService, err := categories.NewService(categories.NewRepository(conn))
	if err != nil {
		return nil, fmt.Errorf("categories service: %w", err)
	}
	reviewService, err := reviews.NewService(reviews.ServiceParams{
		DB:      dbClient,
		Outbox:  emitter,
		Metrics: market,
		Logger:  logg,
	})
	if err != nil {
		return nil, fmt.Errorf("reviews service: %w", err)
	}
	productRepo := products.NewRepository(conn)
	catalogService, err := products.NewCatalogService(products.CatalogParams{
		Repo:       productRepo,
		Categories: categoryService,
		Reviews:    reviewService,
	})
	if err != nil {
		return nil, fmt.Errorf("catalog service: %w", err)
	}
	productService, err := products.NewService(productRepo, categoryService)
	if err != nil {
		return nil, fmt.Errorf("products service: %w", err)
	}

	cartRepo := cart.NewRepository(conn)
	cartService, err := cart.NewService(cartRepo, dbClient)
	if err != nil {
		return nil, fmt.Errorf("cart service: %w", err)
	}
	shipping, err := cfg.Checkout.ShippingCostAmount()
	if err != nil {
		return nil, err
	}
	orderRepo := orders.NewRepository(conn)
	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Tx:           dbClient,
		Cart:         cartRepo,
		Orders:       orderRepo,
		Outbox:       emitter,
		ShippingCost: shipping,
		Metrics:      market,
		Logger:       logg,
	})
	if err != nil {
		return nil, fmt.Errorf("checkout service: %w", err)
	}
	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:    orderRepo,
		Tx:      dbClient,
		Outbox:  emitter,
		Metrics: market,
		Logger:  logg,
	})
	if err != nil {
		return nil, fmt.Errorf("orders service: %w", err)
	}

	messagingService, err := messaging.NewService(messaging.ServiceParams{
		Repo:    messaging.NewRepository(conn),
		Tx:      dbClient,
		Metrics: market,
		Logger:  logg,
	})
	if err != nil {
		return nil, fmt.Errorf("messaging service: %w", err)
	}
	sellerService, err := sellers.NewService(sellers.ServiceParams{
		Repo:       sellers.NewRepository(conn),
		Tx:         dbClient,
		Outbox:     emitter,
		Categories: categoryService,
		Metrics:    market,
		Logger:     logg,
	})
	if err != nil {
		return nil, fmt.Errorf("sellers service: %w", err)
	}
	notificationService, err := notifications.NewService(notifications.NewRepository(conn))
	if err != nil {
		return nil, fmt.Errorf("notifications service: %w", err)
	}

	return &routes.Deps{
		Config:        cfg,
		Logger:        logg,
		DB:            dbClient,
		Redis:         redisClient,
		Sessions:      sessions,
		Auth:          authService,
		Register:      registerService,
		Users:         userService,
		Catalog:       catalogService,
		Products:      productService,
		Categories:    categoryService,
		Cart:          cartService,
		Checkout:      checkoutService,
		Orders:        orderService,
		Reviews:       reviewService,
		Messaging:     messagingService,
		Sellers:       sellerService,
		Notifications: notificationService,
	}, nil
}
