package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vedicseva/console/internal/config"
	"github.com/vedicseva/console/pkg/health"
	"github.com/vedicseva/console/pkg/middleware"
)

// NewRouter creates the chi router with every console route registered.
func NewRouter(
	cfg *config.Config,
	editorHandler *EditorHandler,
	reportsHandler *ReportsHandler,
	slotsHandler *SlotsHandler,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Environment:    cfg.Environment,
	}))
	r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics())
	r.Use(middleware.Tracing())
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	r.Get("/api/categories", editorHandler.Categories)

	// Resource editor sessions
	r.Route("/api/editor/sessions", func(r chi.Router) {
		r.Post("/", editorHandler.CreateSession)

		r.Route("/{sessionId}", func(r chi.Router) {
			r.Get("/", editorHandler.GetSession)
			r.Delete("/", editorHandler.DeleteSession)
			r.Put("/fields", editorHandler.UpdateField)
			r.Post("/submit", editorHandler.Submit)

			r.Route("/collections/{collection}/items", func(r chi.Router) {
				r.Post("/", editorHandler.AddItem)
				r.Put("/{itemId}", editorHandler.UpdateItem)
				r.Delete("/{itemId}", editorHandler.RemoveItem)
			})

			r.Route("/packages/{packageId}", func(r chi.Router) {
				r.Post("/popular", editorHandler.SetPopularPackage)
				r.Post("/features", editorHandler.AddFeature)
				r.Put("/features/{index}", editorHandler.UpdateFeature)
				r.Delete("/features/{index}", editorHandler.RemoveFeature)
			})

			r.Post("/image", editorHandler.SetMainImage)
			r.Post("/gallery", editorHandler.AddGalleryImages)
			r.Delete("/gallery/{index}", editorHandler.RemoveGalleryImage)
		})
	})

	// Report screens
	r.Route("/api/reports", func(r chi.Router) {
		r.Get("/earnings", reportsHandler.GetEarnings)
		r.Put("/earnings/filters", reportsHandler.UpdateEarningsFilters)
		r.Get("/earnings/export", reportsHandler.ExportEarnings)

		r.Get("/orders", reportsHandler.GetOrders)
		r.Put("/orders/filters", reportsHandler.UpdateOrderFilters)
		r.Post("/orders/filters/reset", reportsHandler.ResetOrderFilters)
		r.Post("/orders/process-all", reportsHandler.ProcessAllOrders)
		r.Post("/orders/{orderId}/deliver", reportsHandler.MarkDelivered)
		r.Post("/orders/{orderId}/process", reportsHandler.ProcessOrder)
		r.Post("/orders/{orderId}/expand", reportsHandler.ToggleOrderExpansion)
	})

	// Slot board
	r.Route("/api/slots", func(r chi.Router) {
		r.Get("/", slotsHandler.GetBoard)
		r.Post("/block", slotsHandler.BlockSlot)
		r.Post("/unblock", slotsHandler.UnblockSlot)
		r.Post("/selection/mode", slotsHandler.ToggleSelectionMode)
		r.Post("/selection/toggle", slotsHandler.ToggleSlotSelection)
		r.Post("/bulk", slotsHandler.BulkAction)
	})

	return r
}
