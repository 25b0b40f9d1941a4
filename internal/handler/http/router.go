package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anmar534/loctah-sub000/internal/domain"
	"github.com/anmar534/loctah-sub000/pkg/health"
	"github.com/anmar534/loctah-sub000/pkg/middleware"
)

// RouterConfig holds the HTTP surface settings.
type RouterConfig struct {
	ServiceName    string
	AllowedOrigins []string
	PprofCIDRs     []string
	PublicMaxAge   time.Duration
	RequestTimeout time.Duration
}

// NewRouter creates a chi router with all catalog routes registered.
func NewRouter(
	cfg RouterConfig,
	categories CategoryService,
	offers OfferService,
	verify middleware.TokenValidator,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.AllowedOrigins...)))
	r.Use(chimw.Timeout(cfg.RequestTimeout))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	if len(cfg.PprofCIDRs) > 0 {
		middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)
	}

	categoryHandler := NewCategoryHandler(categories, logger)
	offerHandler := NewOfferHandler(offers, logger)

	authenticated := func(roles ...string) func(chi.Router) {
		return func(r chi.Router) {
			r.Use(middleware.Auth(verify))
			r.Use(middleware.RequestLogger(logger))
			r.Use(middleware.RequireRole(roles...))
		}
	}

	r.Route("/api/v1/categories", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(cfg.PublicMaxAge))
			r.Get("/", categoryHandler.ListCategories)
			r.Get("/{id}", categoryHandler.GetCategory)
			r.Get("/{id}/path", categoryHandler.GetCategoryPath)
			r.Get("/{id}/descendants", categoryHandler.GetCategoryDescendants)
		})

		r.Group(func(r chi.Router) {
			authenticated(string(domain.RoleAdmin))(r)
			r.Post("/", categoryHandler.CreateCategory)
			r.Put("/{id}", categoryHandler.UpdateCategory)
			r.Delete("/{id}", categoryHandler.DeleteCategory)
		})
	})

	r.Route("/api/v1/offers", func(r chi.Router) {
		// Offer status moves with the clock, so reads are not cached.
		r.Get("/", offerHandler.ListOffers)
		r.Get("/{id}", offerHandler.GetOffer)

		r.Group(func(r chi.Router) {
			authenticated(string(domain.RoleVendor), string(domain.RoleAdmin))(r)
			r.Post("/", offerHandler.CreateOffer)
			r.Put("/{id}", offerHandler.UpdateOffer)
			r.Delete("/{id}", offerHandler.DeleteOffer)
		})
	})

	return r
}
