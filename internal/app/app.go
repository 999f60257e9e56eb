package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/vedicseva/console/internal/backend"
	"github.com/vedicseva/console/internal/cache"
	"github.com/vedicseva/console/internal/config"
	"github.com/vedicseva/console/internal/editor"
	handler "github.com/vedicseva/console/internal/handler/http"
	"github.com/vedicseva/console/internal/reports"
	"github.com/vedicseva/console/pkg/health"
	"github.com/vedicseva/console/pkg/httpclient"
	"github.com/vedicseva/console/pkg/tracing"
)

// Idle editor sessions are evicted after this long without activity.
const sessionTTL = 2 * time.Hour

// App wires together all dependencies and runs the admin console.
type App struct {
	cfg             *config.Config
	logger          *slog.Logger
	httpServer      *http.Server
	shutdownTracing func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize tracing.
	shutdownTracing, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:  "admin-console",
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SampleRate:   cfg.TraceSample,
		Enabled:      cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	// Redis read cache; disabled when no address is configured.
	readCache, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
		time.Duration(cfg.CacheTTLSecs)*time.Second, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	if readCache != nil {
		logger.Info("redis cache connected", slog.String("addr", cfg.RedisAddr))
	} else {
		logger.Info("redis cache disabled")
	}

	// Platform API client behind a circuit breaker.
	platform := backend.New(cfg,
		httpclient.NewCircuitBreakerClient(
			httpclient.New(httpclient.DefaultConfig()),
			httpclient.DefaultCircuitBreakerConfig("platform-api"),
			logger,
		),
		readCache,
		logger,
	)

	// Build the dependency graph.
	store := editor.NewStore(sessionTTL)
	editorHandler := handler.NewEditorHandler(store, platform, logger)

	earnings := reports.NewEarningsScreen(platform, logger)
	orders := reports.NewOrdersScreen(platform, logger)
	board := reports.NewSlotBoard(platform, logger)

	reportsHandler := handler.NewReportsHandler(earnings, orders, logger)
	slotsHandler := handler.NewSlotsHandler(board, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("platform_api", platform.Ping)
	healthHandler.Register("redis", readCache.Ping)

	// HTTP router.
	router := handler.NewRouter(cfg, editorHandler, reportsHandler, slotsHandler, healthHandler, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:             cfg,
		logger:          logger,
		httpServer:      httpServer,
		shutdownTracing: shutdownTracing,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if err := a.shutdownTracing(shutdownCtx); err != nil {
		a.logger.Error("tracing shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
