// Package http exposes the storefront API under /api/v1.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Services struct {
	Cart     CartService
	Checkout CheckoutService
	Wallet   WalletService
	Catalog  CatalogService
	Orders   OrdersService
	Account  AccountService
	Wishlist WishlistService
	Health   map[string]HealthCheck
}

type RouterConfig struct {
	RequestTimeout time.Duration
	PaymentTimeout time.Duration
	MaxBodySize    int64
	TaxRate        decimal.Decimal
}

func NewRouter(svc Services, cfg RouterConfig, logger *zap.Logger) http.Handler {
	cartHandler := NewCartHandler(svc.Cart, cfg.TaxRate, cfg.RequestTimeout)
	checkoutHandler := NewCheckoutHandler(svc.Checkout, cfg.RequestTimeout, cfg.PaymentTimeout+cfg.RequestTimeout)
	walletHandler := NewWalletHandler(svc.Wallet, cfg.RequestTimeout)
	catalogHandler := NewCatalogHandler(svc.Catalog, cfg.RequestTimeout)
	ordersHandler := NewOrdersHandler(svc.Orders, cfg.RequestTimeout)
	accountHandler := NewAccountHandler(svc.Account, cfg.RequestTimeout)
	wishlistHandler := NewWishlistHandler(svc.Wishlist, cfg.RequestTimeout)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(SessionMiddleware)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.MaxBodySize > 0 {
		r.Use(middleware.RequestSize(cfg.MaxBodySize))
	}

	r.Get("/health", healthHandler(svc.Health))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(TokenMiddleware)

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.Timeout(cfg.RequestTimeout))
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{item_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{item_id}", cartHandler.RemoveItem)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", checkoutHandler.Get)
			r.Put("/", checkoutHandler.Update)
			r.Delete("/", checkoutHandler.Reset)
			r.Post("/next", checkoutHandler.Next)
			r.Post("/previous", checkoutHandler.Previous)
			r.Post("/discount", checkoutHandler.ApplyDiscount)
			r.Post("/complete", checkoutHandler.Complete)
			r.Post("/retry", checkoutHandler.Retry)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(cfg.RequestTimeout))
			r.Get("/home", catalogHandler.Home)
			r.Get("/products", catalogHandler.Search)
			r.Get("/products/suggest", catalogHandler.Suggest)
			r.Get("/categories", catalogHandler.Categories)
			r.Get("/pages/{slug}", catalogHandler.Page)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireToken)
			r.Use(middleware.Timeout(cfg.RequestTimeout))

			r.Get("/wallet/summary", walletHandler.Summary)
			r.Get("/wallet/transactions", walletHandler.Transactions)
			r.Post("/wallet/redeem", walletHandler.Redeem)

			r.Get("/orders", ordersHandler.List)
			r.Get("/orders/{order_id}", ordersHandler.Get)
			r.Get("/orders/{order_id}/transaction", ordersHandler.Transaction)

			r.Get("/account/profile", accountHandler.Profile)
			r.Get("/account/addresses", accountHandler.Addresses)
			r.Post("/account/addresses", accountHandler.AddAddress)
			r.Put("/account/addresses/{address_id}/default", accountHandler.SetDefaultAddress)
			r.Delete("/account/addresses/{address_id}", accountHandler.RemoveAddress)

			r.Get("/wishlist", wishlistHandler.List)
			r.Post("/wishlist/{product_id}/toggle", wishlistHandler.Toggle)
		})
	})

	return r
}

// NewServer wraps the router with otelhttp so every request gets a span.
func NewServer(addr string, handler http.Handler, read, write, idle time.Duration) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      otelhttp.NewHandler(handler, "storefront"),
		ReadTimeout:  read,
		WriteTimeout: write,
		IdleTimeout:  idle,
	}
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		result := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				result["status"] = "degraded"
				result[name] = err.Error()
				continue
			}
			result[name] = "ok"
		}
		respondJSON(w, r, status, result)
	}
}
