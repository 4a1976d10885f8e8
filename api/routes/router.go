package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shoplane/storefront-core/api"
	"github.com/shoplane/storefront-core/api/controllers"
	"github.com/shoplane/storefront-core/api/middleware"
	"github.com/shoplane/storefront-core/pkg/config"
	"github.com/shoplane/storefront-core/pkg/kv"
	"github.com/shoplane/storefront-core/pkg/logger"
	"github.com/shoplane/storefront-core/pkg/metrics"
)

// NewRouter wires the storefront HTTP surface.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	reg *api.Registry,
	kvStore kv.Store,
	m *metrics.StorefrontMetrics,
	promRegistry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, kvStore))
	})

	if promRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(
			middleware.Scope(logg),
			middleware.Auth(cfg.JWT, logg),
		)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(reg, logg))
			r.Delete("/", controllers.CartClear(reg, logg))
			r.Post("/items", controllers.CartAddItem(reg, logg))
			r.Patch("/items/{productID}", controllers.CartUpdateItem(reg, logg))
			r.Delete("/items/{productID}", controllers.CartRemoveItem(reg, logg))
			r.Post("/dismiss-error", controllers.CartDismissError(reg, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/shipping-options", controllers.CheckoutShippingOptions())
			r.Post("/", controllers.CheckoutSubmit(reg, logg, m))
		})
	})

	return r
}
