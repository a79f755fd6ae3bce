package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roorreach/marketplace-backend/api/controllers"
	"github.com/roorreach/marketplace-backend/api/middleware"
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
	"github.com/roorreach/marketplace-backend/pkg/enums"
	"github.com/roorreach/marketplace-backend/pkg/logger"
	"github.com/roorreach/marketplace-backend/pkg/metrics"
	pkgredis "github.com/roorreach/marketplace-backend/pkg/redis"
)

type redisStore interface {
	pkgredis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// Deps is everything the router hands to controllers.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTP
	DB          controllers.Pinger
	Redis       redisStore
	Sessions    session.AccessSessionChecker

	Auth       auth.Service
	Register   auth.RegisterService
	Users      users.Service
	Catalog    products.CatalogService
	Products   products.Service
	Categories categories.Service
	Cart       cart.Service
	Checkout   checkout.Service
	Orders     orders.Service
	Reviews    reviews.Service
	Messaging  messaging.Service
	Sellers    sellers.Service

	Notifications notifications.Service
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.Logging(logg, d.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	var redisPinger controllers.Pinger
	if p, ok := d.Redis.(controllers.Pinger); ok {
		redisPinger = p
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    d.DB,
			"redis": redisPinger,
		}))
	})
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public/v1", func(r chi.Router) {
		r.Get("/home", controllers.Home(d.Catalog, logg))
		r.Get("/products", controllers.ProductList(d.Catalog, logg))
		r.Get("/products/{productId}", controllers.ProductDetail(d.Catalog, logg))
		r.Get("/categories", controllers.CategoryList(d.Categories, logg))
		r.Get("/categories/{categoryId}/products", controllers.CategoryProducts(d.Catalog, logg))
		r.Get("/pages/{slug}", controllers.StaticPage(logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(middleware.RegisterThrottle(cfg.AuthRateLimit), d.Redis, logg)).Post("/register", controllers.AuthRegister(d.Register, logg))
		r.With(middleware.AuthRateLimit(middleware.LoginThrottle(cfg.AuthRateLimit), d.Redis, logg)).Post("/login", controllers.AuthLogin(d.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(d.Auth, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(d.Auth, cfg.JWT, logg))
	})

	replay := func(policy middleware.IdempotencyPolicy) func(http.Handler) http.Handler {
		return middleware.Idempotent(d.Redis, logg, policy)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))

		r.Get("/profile", controllers.ProfileGet(d.Users, logg))
		r.Put("/profile", controllers.ProfileUpdate(d.Users, logg))

		r.With(replay(middleware.SubmitReplay)).Post("/seller-applications", controllers.SellerApply(d.Sellers, logg))
		r.Get("/seller-applications/me", controllers.SellerApplicationMine(d.Sellers, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartView(d.Cart, logg))
			r.Post("/items", controllers.CartAdd(d.Cart, logg))
			r.Patch("/items/{itemId}", controllers.CartUpdate(d.Cart, logg))
			r.Delete("/items/{itemId}", controllers.CartRemove(d.Cart, logg))
		})

		r.Get("/checkout/summary", controllers.CheckoutSummary(d.Checkout, logg))
		r.With(replay(middleware.CheckoutReplay)).Post("/checkout", controllers.CheckoutPlace(d.Checkout, logg))

		r.Get("/orders", controllers.BuyerOrderList(d.Orders, logg))
		r.With(replay(middleware.CancelReplay)).Post("/orders/{orderId}/cancel", controllers.BuyerOrderCancel(d.Orders, logg))

		r.With(replay(middleware.SubmitReplay)).Post("/products/{productId}/reviews", controllers.ReviewSubmit(d.Reviews, logg))
		r.Get("/products/{productId}/chat", controllers.ProductChat(d.Messaging, logg))
		r.Post("/products/{productId}/chat", controllers.ProductChatSend(d.Messaging, logg))
		r.Get("/threads/{threadId}/messages", controllers.ThreadMessages(d.Messaging, logg))
		r.Post("/threads/{threadId}/messages", controllers.ThreadReply(d.Messaging, logg))
		r.Get("/inbox", controllers.BuyerInbox(d.Messaging, logg))

		r.Get("/notifications", controllers.NotificationList(d.Notifications, logg))
		r.Post("/notifications/read-all", controllers.NotificationMarkAllRead(d.Notifications, logg))
		r.Post("/notifications/{notificationId}/read", controllers.NotificationMarkRead(d.Notifications, logg))

		r.With(middleware.RequireRole(logg, enums.UserRoleSeller, enums.UserRoleAdmin)).
			Post("/categories", controllers.CategoryCreate(d.Categories, logg))

		r.Route("/seller", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleSeller))
			r.Get("/products", controllers.SellerProductList(d.Products, logg))
			r.Post("/products", controllers.SellerProductCreate(d.Products, logg))
			r.Patch("/products/{productId}", controllers.SellerProductUpdate(d.Products, logg))
			r.Delete("/products/{productId}", controllers.SellerProductDelete(d.Products, logg))
			r.Get("/orders", controllers.SellerOrderList(d.Orders, logg))
			r.Post("/orders/{orderId}/status", controllers.SellerOrderStatus(d.Orders, logg))
			r.With(replay(middleware.CancelReplay)).Post("/orders/{orderId}/cancel", controllers.SellerOrderCancel(d.Orders, logg))
			r.Get("/inbox", controllers.SellerInbox(d.Messaging, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
		r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin))
		r.Get("/seller-applications", controllers.AdminPendingApplications(d.Sellers, logg))
		r.Post("/seller-applications/{applicationId}/approve", controllers.AdminApproveApplication(d.Sellers, logg))
		r.Post("/seller-applications/{applicationId}/reject", controllers.AdminRejectApplication(d.Sellers, logg))
	})

	return r
}
