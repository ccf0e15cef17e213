package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
)

const serviceName = "storefront"

// Services is everything the router dispatches to.
type Services struct {
	Analytics     *service.AnalyticsService
	Catalog       *service.CatalogService
	Categories    *service.CategoryService
	Cart          *service.CartService
	Orders        *service.OrderService
	Inventory     *service.InventoryService
	Users         *service.UserService
	Wishlist      *service.WishlistService
	Notifications *service.NotificationService
	Settings      *service.SettingsService
	Auth          *service.AuthService
}

type RouterConfig struct {
	CORSOrigins []string
	// RateLimitRPS of zero disables per-IP rate limiting.
	RateLimitRPS   float64
	RateLimitBurst int
	// CacheMaxAge is applied to public catalog reads, in seconds.
	CacheMaxAge int
}

// NewRouter registers the storefront, customer and admin APIs. The context
// bounds background work such as the rate limiter's visitor sweep.
func NewRouter(
	ctx context.Context,
	svcs Services,
	validate middleware.TokenValidator,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	catalog := NewCatalogHandler(svcs.Catalog, svcs.Categories, svcs.Settings, logger)
	auth := NewAuthHandler(svcs.Auth, logger)
	cart := NewCartHandler(svcs.Cart, logger)
	account := NewAccountHandler(svcs.Orders, svcs.Wishlist, logger)
	admin := NewAdminHandler(svcs, logger)

	requireAuth := middleware.Auth(validate)

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimitRPS > 0 {
			r.Use(middleware.RateLimit(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst, logger))
		}

		r.Group(func(r chi.Router) {
			if cfg.CacheMaxAge > 0 {
				r.Use(middleware.CacheControl(cfg.CacheMaxAge))
			}
			r.Get("/products", catalog.ListProducts)
			r.Get("/products/search", catalog.SearchProducts)
			r.Get("/products/featured", catalog.ListFeaturedProducts)
			r.Get("/products/{id}", catalog.GetProduct)
			r.Get("/categories", catalog.ListCategories)
			r.Get("/categories/{id}", catalog.GetCategory)
			r.Get("/settings", catalog.GetSettings)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/sign-up", auth.SignUp)
			r.Post("/sign-in", auth.SignIn)
			r.Post("/sign-in/provider", auth.SignInWithProvider)
			r.Post("/password-reset", auth.SendPasswordReset)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/sign-out", auth.SignOut)
				r.Get("/me", auth.Me)
				r.Patch("/me", auth.UpdateProfile)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cart.GetCart)
				r.Delete("/", cart.ClearCart)
				r.Post("/items", cart.AddItem)
				r.Patch("/items/{lineID}", cart.UpdateQuantity)
				r.Delete("/items/{lineID}", cart.RemoveItem)
				r.Put("/shipping-option", cart.SetShippingOption)
				r.Post("/discount", cart.ApplyDiscount)
				r.Delete("/discount", cart.RemoveDiscount)
				r.Put("/shipping-details", cart.SetShippingDetails)
				r.Post("/checkout", cart.PlaceOrder)
			})

			r.Get("/orders", account.ListMyOrders)
			r.Get("/orders/{id}", account.GetMyOrder)

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", account.ListWishlist)
				r.Post("/", account.AddToWishlist)
				r.Delete("/", account.ClearWishlist)
				r.Delete("/{productID}", account.RemoveFromWishlist)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(middleware.RequireRole(string(domain.RoleAdmin)))

			r.Get("/dashboard/analytics", admin.DashboardAnalytics)
			r.Get("/dashboard/stats", admin.DashboardStats)
			r.Get("/search", admin.GlobalSearch)

			r.Post("/products", admin.CreateProduct)
			r.Patch("/products/{id}", admin.UpdateProduct)
			r.Delete("/products/{id}", admin.DeleteProduct)

			r.Get("/categories", admin.ListCategories)
			r.Post("/categories", admin.CreateCategory)
			r.Post("/categories/recalculate-counts", admin.RecalculateProductCounts)
			r.Patch("/categories/{id}", admin.UpdateCategory)
			r.Delete("/categories/{id}", admin.DeleteCategory)

			r.Get("/orders", admin.ListOrders)
			r.Post("/orders/bulk-status", admin.BulkUpdateOrderStatus)
			r.Get("/orders/{id}", admin.GetOrder)
			r.Patch("/orders/{id}", admin.UpdateOrder)

			r.Get("/inventory", admin.ListInventory)
			r.Get("/inventory/low-stock", admin.LowStock)
			r.Post("/inventory/bulk-adjust", admin.BulkAdjustStock)
			r.Put("/inventory/{id}", admin.SetStock)

			r.Get("/users", admin.ListUsers)
			r.Get("/users/{id}", admin.GetUser)
			r.Patch("/users/{id}", admin.UpdateUser)

			r.Get("/notifications", admin.ListNotifications)
			r.Post("/notifications/{id}/read", admin.MarkNotificationRead)

			r.Get("/settings", admin.GetSettings)
			r.Patch("/settings", admin.UpdateSettings)
		})
	})

	return r
}
