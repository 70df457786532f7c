package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/craftloom/craftloom-backend/api/controllers"
	"github.com/craftloom/craftloom-backend/api/middleware"
	cartsvc "github.com/craftloom/craftloom-backend/internal/cart"
	catalogsvc "github.com/craftloom/craftloom-backend/internal/catalog"
	checkoutsvc "github.com/craftloom/craftloom-backend/internal/checkout"
	giftaisvc "github.com/craftloom/craftloom-backend/internal/giftai"
	orderssvc "github.com/craftloom/craftloom-backend/internal/orders"
	"github.com/craftloom/craftloom-backend/pkg/config"
	pkgdb "github.com/craftloom/craftloom-backend/pkg/db"
	"github.com/craftloom/craftloom-backend/pkg/enums"
	"github.com/craftloom/craftloom-backend/pkg/logger"
	pkgredis "github.com/craftloom/craftloom-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP pkgdb.Pinger,
	redisClient *pkgredis.Client,
	registry *prometheus.Registry,
	catalogService catalogsvc.Service,
	cartService cartsvc.Service,
	checkoutService checkoutsvc.Service,
	ordersService orderssvc.Service,
	giftService giftaisvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	checkoutPolicy := middleware.NewRateLimitPolicy("checkout", time.Minute, 30)
	giftPolicy := middleware.NewRateLimitPolicy("gift", time.Minute, 10)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, redisClient, logg))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/", controllers.CatalogBrowse(catalogService, logg))
		r.Get("/{itemID}", controllers.CatalogGetItem(catalogService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(cartService, logg))
			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Put("/items/{itemID}", controllers.CartSetItemQuantity(cartService, logg))
			r.Delete("/items/{itemID}", controllers.CartRemoveItem(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))
		})

		// Registered flat so the route pattern matches the idempotency rules.
		r.With(middleware.RateLimit(checkoutPolicy, redisClient, logg)).
			Post("/checkout", controllers.CheckoutSubmit(checkoutService, logg))
		r.With(middleware.RateLimit(checkoutPolicy, redisClient, logg)).
			Post("/checkout/confirm", controllers.CheckoutConfirm(checkoutService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersListBuyer(ordersService, logg))
			r.Get("/{orderID}", controllers.OrderGet(ordersService, logg))
			r.Post("/{orderID}/cancel", controllers.OrderCancel(ordersService, logg))
		})

		r.Route("/seller", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleSeller, logg))
			r.Get("/items", controllers.SellerListItems(catalogService, logg))
			r.Post("/items", controllers.SellerCreateItem(catalogService, logg))
			r.Put("/items/{itemID}", controllers.SellerUpdateItem(catalogService, logg))
			r.Delete("/items/{itemID}", controllers.SellerRemoveItem(catalogService, logg))
			r.Post("/items/{itemID}/publish", controllers.SellerPublishItem(catalogService, logg))
			r.Post("/items/{itemID}/restock", controllers.SellerRestockItem(catalogService, logg))
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.SellerOrdersList(ordersService, logg))
				r.Post("/{orderID}/status", controllers.SellerOrderAdvance(ordersService, logg))
			})
		})

		r.Route("/gift", func(r chi.Router) {
			r.Use(middleware.RateLimit(giftPolicy, redisClient, logg))
			r.Post("/bundles", controllers.GiftStartBundle(giftService, logg))
			r.Get("/bundles/{jobID}", controllers.GiftGetBundle(giftService, logg))
			r.Get("/search", controllers.GiftSearch(giftService, logg))
		})
	})

	return r
}
