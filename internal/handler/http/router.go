package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Oldhoon/accessible-journeys/internal/capability"
	"github.com/Oldhoon/accessible-journeys/internal/service"
	"github.com/Oldhoon/accessible-journeys/pkg/health"
	"github.com/Oldhoon/accessible-journeys/pkg/middleware"
)

const serviceName = "accessible-journeys"

// Services bundles the application services the router exposes.
type Services struct {
	Locations *service.LocationService
	Reports   *service.ReportService
	Emergency *service.EmergencyService
	Contacts  *service.ContactService
}

// RouterOptions carries the cross-cutting router settings.
type RouterOptions struct {
	// Tokens validates bearer tokens. Nil trusts the X-User-ID header.
	Tokens      middleware.TokenValidator
	RateLimiter *middleware.RateLimiter
	CORS        middleware.CORSConfig
	PprofCIDRs  []string
	// StreamOrigin checks WebSocket origins. Nil accepts any origin.
	StreamOrigin func(*http.Request) bool
	Capabilities capability.Set
}

// NewRouter creates a chi router with all accessible-journeys routes
// registered.
func NewRouter(svcs Services, healthHandler *health.Handler, opts RouterOptions, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(opts.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, opts.PprofCIDRs, logger)

	locationHandler := NewLocationHandler(svcs.Locations, logger)
	reportHandler := NewReportHandler(svcs.Reports, logger)
	emergencyHandler := NewEmergencyHandler(svcs.Emergency, svcs.Contacts, logger)
	streamHandler := NewStreamHandler(svcs.Emergency, opts.StreamOrigin, logger)
	catalogueHandler := NewCatalogueHandler(opts.Capabilities, logger)

	identity := middleware.Identity(opts.Tokens)
	limit := rateLimit(opts.RateLimiter)

	// The stream is long-lived, so it sits outside the request timeout and
	// response compression.
	r.With(identity).Get("/api/v1/emergency/stream", streamHandler.ServeWS)

	r.Group(func(r chi.Router) {
		r.Use(chimw.Compress(5))
		r.Use(chimw.Timeout(30 * time.Second))
		r.Use(ContentTypeJSON)

		r.Route("/api/v1/locations", func(r chi.Router) {
			r.Get("/", locationHandler.ListLocations)
			r.With(identity, limit).Post("/", locationHandler.CreateLocation)

			r.Route("/{locationId}", func(r chi.Router) {
				r.Get("/", locationHandler.GetLocation)
				r.Get("/summary", locationHandler.GetSummary)
				r.Get("/reports", reportHandler.ListReports)
				r.With(identity, limit).Post("/reports", reportHandler.CreateReport)
			})
		})

		r.Route("/api/v1/emergency", func(r chi.Router) {
			r.Use(identity)

			r.Get("/", emergencyHandler.State)
			r.Get("/alerts", emergencyHandler.ListAlerts)

			r.Group(func(r chi.Router) {
				r.Use(limit)
				r.Post("/open", emergencyHandler.Open)
				r.Post("/close", emergencyHandler.Close)
				r.Post("/confirm", emergencyHandler.Confirm)
				r.Post("/cancel", emergencyHandler.Cancel)
			})

			r.Route("/contacts", func(r chi.Router) {
				r.Get("/", emergencyHandler.ListContacts)
				r.With(limit).Post("/", emergencyHandler.AddContact)
				r.Delete("/{id}", emergencyHandler.DeleteContact)
			})
		})

		r.With(middleware.CacheControl(3600)).Get("/api/v1/features", catalogueHandler.Features)
		r.Get("/api/v1/guidance", catalogueHandler.Guidance)
		r.Get("/api/v1/capabilities", catalogueHandler.Capabilities)
	})

	return r
}

func rateLimit(rl *middleware.RateLimiter) func(http.Handler) http.Handler {
	if rl == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return rl.Middleware
}
