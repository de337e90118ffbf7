package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garagehub/procurement-backend/api/controllers"
	ordercontrollers "github.com/garagehub/procurement-backend/api/controllers/orders"
	paymentcontrollers "github.com/garagehub/procurement-backend/api/controllers/payments"
	"github.com/garagehub/procurement-backend/api/middleware"
	"github.com/garagehub/procurement-backend/internal/inventory"
	"github.com/garagehub/procurement-backend/internal/payments"
	"github.com/garagehub/procurement-backend/internal/purchaseorders"
	"github.com/garagehub/procurement-backend/internal/suppliers"
	"github.com/garagehub/procurement-backend/pkg/config"
	"github.com/garagehub/procurement-backend/pkg/db"
	"github.com/garagehub/procurement-backend/pkg/logger"
	"github.com/garagehub/procurement-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	httpMetrics middleware.RequestObserver,
	supplierService suppliers.Service,
	inventoryService inventory.Service,
	ordersService purchaseorders.Service,
	paymentsService payments.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, httpMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	var idempotencyStore redis.IdempotencyStore
	deps := []controllers.Dependency{{Name: "database", Pinger: dbP}}
	if redisClient != nil {
		idempotencyStore = redisClient
		deps = append(deps, controllers.Dependency{Name: "redis", Pinger: redisClient})
	}

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps...))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Create(ordersService, logg))
			r.Get("/", ordercontrollers.List(ordersService, logg))
			r.Put("/lines/{lineId}", ordercontrollers.UpdateLine(ordersService, logg))
			r.Delete("/lines/{lineId}", ordercontrollers.RemoveLine(ordersService, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", ordercontrollers.Detail(ordersService, logg))
				r.Post("/lines", ordercontrollers.AddLine(ordersService, logg))
				r.Post("/payment", paymentcontrollers.Pay(paymentsService, logg))
				r.Put("/ship", ordercontrollers.Ship(ordersService, logg))
				r.Put("/deliver", ordercontrollers.Deliver(ordersService, logg))
				r.Put("/cancel", ordercontrollers.Cancel(ordersService, logg))
			})
		})

		r.Route("/payments/{paymentId}", func(r chi.Router) {
			r.Get("/", paymentcontrollers.Detail(paymentsService, logg))
			r.Put("/", paymentcontrollers.Resolve(paymentsService, logg))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", controllers.InventoryList(inventoryService, logg))
			r.Get("/{partId}", controllers.InventoryDetail(inventoryService, logg))
		})

		r.Route("/suppliers", func(r chi.Router) {
			r.Post("/", controllers.SupplierCreate(supplierService, logg))
			r.Get("/", controllers.SupplierList(supplierService, logg))
			r.Route("/{supplierId}", func(r chi.Router) {
				r.Get("/", controllers.SupplierDetail(supplierService, logg))
				r.Put("/deactivate", controllers.SupplierDeactivate(supplierService, logg))
				r.Post("/catalog", controllers.CatalogPublish(supplierService, logg))
				r.Get("/catalog", controllers.CatalogList(supplierService, logg))
			})
		})

		r.Put("/catalog/{itemId}/price", controllers.CatalogReprice(supplierService, logg))
	})

	return r
}
