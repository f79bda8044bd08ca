package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/orderdesk-backend/api/controllers"
	enginecontrollers "github.com/angelmondragon/orderdesk-backend/api/controllers/engine"
	ordercontrollers "github.com/angelmondragon/orderdesk-backend/api/controllers/orders"
	"github.com/angelmondragon/orderdesk-backend/api/middleware"
	"github.com/angelmondragon/orderdesk-backend/internal/customers"
	"github.com/angelmondragon/orderdesk-backend/internal/orders"
	"github.com/angelmondragon/orderdesk-backend/pkg/config"
	"github.com/angelmondragon/orderdesk-backend/pkg/db"
	"github.com/angelmondragon/orderdesk-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/orderdesk-backend/pkg/redis"
)

// RedisStore is the redis surface the HTTP layer needs for idempotency,
// rate limiting and readiness.
type RedisStore interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	Ping(ctx context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisStore RedisStore,
	gatherer prometheus.Gatherer,
	ordersSvc orders.Service,
	customersSvc customers.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	previewPolicy := middleware.NewRateLimitPolicy(
		"fbr_preview",
		cfg.RateLimit.FBRPreviewWindow,
		cfg.RateLimit.FBRPreviewIPLimit,
		cfg.RateLimit.FBRPreviewOrderLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisStore))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	idempotent := middleware.Idempotency(redisStore, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/line-items/resolve", enginecontrollers.ResolveLineItem(ordersSvc, logg))
		r.Post("/totals", enginecontrollers.Totals(logg))
		r.Post("/loyalty/redeem", enginecontrollers.RedeemPoints(logg))

		r.Get("/customers", controllers.Customers(customersSvc, logg))

		r.Get("/orders/{orderId}", ordercontrollers.Load(ordersSvc, logg))
		r.With(idempotent).Put("/orders/{orderId}", ordercontrollers.Save(ordersSvc, logg))
		r.With(idempotent).Post("/orders/{orderId}/duplicate", ordercontrollers.Duplicate(ordersSvc, logg))

		r.Post("/orders/{orderId}/items", ordercontrollers.AddItem(ordersSvc, logg))
		r.Post("/orders/{orderId}/items/remove", ordercontrollers.RemoveItem(ordersSvc, logg))
		r.Post("/orders/{orderId}/items/edit", ordercontrollers.EditItem(ordersSvc, logg))
		r.Post("/orders/{orderId}/refresh-pricing", ordercontrollers.RefreshPricing(ordersSvc, logg))
		r.Post("/orders/{orderId}/loyalty/redeem", ordercontrollers.RedeemPoints(ordersSvc, logg))

		r.With(middleware.RateLimit(previewPolicy, redisStore, logg)).Post("/orders/{orderId}/fbr/preview", ordercontrollers.PreviewFBR(ordersSvc, logg))
		r.Get("/orders/{orderId}/fbr/previews", ordercontrollers.ListPreviews(ordersSvc, logg))
	})

	return r
}
