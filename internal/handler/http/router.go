package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/health"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/middleware"

	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/service"
)

// RouterConfig bundles the dependencies the router needs.
type RouterConfig struct {
	Catalog        *service.CatalogService
	Cart           *service.CartService
	Orders         *service.OrderService
	Reviews        *service.ReviewService
	TokenValidator middleware.TokenValidator
	HealthHandler  *health.Handler
	CORS           middleware.CORSConfig
	RateLimitRPS   int
	RateLimitBurst int
	Logger         *slog.Logger
}

// NewRouter creates a chi router with all bookstore routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.RateLimitRPS > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.Logger))
	}
	r.Use(middleware.Tracing("bookstore"))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.PrometheusMetrics("bookstore"))
	r.Use(chimiddleware.Compress(5))
	r.Use(chimiddleware.Timeout(30 * time.Second))

	// Health check and metrics endpoints
	r.Get("/health/live", cfg.HealthHandler.LivenessHandler())
	r.Get("/health/ready", cfg.HealthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	bookHandler := NewBookHandler(cfg.Catalog, cfg.Logger)
	reviewHandler := NewReviewHandler(cfg.Reviews, cfg.Logger)

	// Public catalog endpoints
	r.Group(func(r chi.Router) {
		r.Use(middleware.CacheControl(60))

		r.Get("/api/v1/books", bookHandler.SearchBooks)
		r.Get("/api/v1/books/{id}", bookHandler.GetBook)
		r.Get("/api/v1/books/{bookId}/reviews", reviewHandler.ListReviews)
		r.Get("/api/v1/categories", bookHandler.ListCategories)
	})

	cartHandler := NewCartHandler(cfg.Cart, cfg.Logger)
	orderHandler := NewOrderHandler(cfg.Orders, cfg.Logger)

	// Authenticated endpoints
	r.Group(func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(cfg.TokenValidator))
		r.Use(middleware.RequestLogger(cfg.Logger))

		r.Route("/api/v1/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{bookId}", cartHandler.UpdateItem)
			r.Delete("/items/{bookId}", cartHandler.RemoveItem)
		})

		r.Route("/api/v1/orders", func(r chi.Router) {
			r.Get("/", orderHandler.ListOrders)
			r.Post("/", orderHandler.PlaceOrder)
			r.Get("/{id}", orderHandler.GetOrder)
			r.Get("/number/{orderNumber}", orderHandler.GetOrderByNumber)

			r.With(middleware.RequireRole("admin")).
				Patch("/{id}/status", orderHandler.UpdateStatus)
		})

		r.Post("/api/v1/books/{bookId}/reviews", reviewHandler.CreateReview)
		r.Put("/api/v1/reviews/{id}", reviewHandler.UpdateReview)
		r.Delete("/api/v1/reviews/{id}", reviewHandler.DeleteReview)
	})

	return r
}
