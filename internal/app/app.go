package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"cityscope/internal/config"
	"cityscope/internal/dataset"
	apierrors "cityscope/internal/errors"
	"cityscope/internal/infrastructure"
	custommw "cityscope/internal/middleware"
	"cityscope/internal/services"
	handlers "cityscope/internal/transport/http"
)

const (
	Version = "1.0.0"
	AppName = "CityScope - City Statistics Dashboard"
)

// BuildTime is set at compile time via -ldflags
var BuildTime = ""

// Application wires configuration, infrastructure, services and the
// HTTP server together.
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.RequestMetrics
	Loader        *dataset.Loader
	Services      *ServiceContainer
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Dashboard *services.DashboardService
	Datasets  *services.DatasetService
	Health    *services.HealthService
}

// NewApplication creates a fully wired application instance
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.String("data_dir", cfg.GetDataDir()))

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	otelProviders, err := infrastructure.InitializeOTel(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateRequestMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create request metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
	}

	app.initializeServices()
	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices builds the dataset loader and the service layer
func (a *Application) initializeServices() {
	a.Loader = dataset.NewLoader(a.Config.GetDataDir(), a.Logger, a.Metrics)

	a.Services = &ServiceContainer{
		Dashboard: services.NewDashboardService(a.Loader, a.Config.Dashboard, a.Logger),
		Datasets:  services.NewDatasetService(a.Loader, a.Config.Dashboard, a.Logger),
		Health:    services.NewHealthService(Version, BuildTime, a.Config.GetDataDir(), a.Loader, a.Logger),
	}
}

// setupRouter configures the HTTP router with the middleware chain and
// all routes. Ordering: RequestID, RealIP, metrics, logger, recoverer,
// security headers, CORS, rate limit.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(custommw.RequestID)
	r.Use(custommw.RealIP)

	r.Group(func(r chi.Router) {
		r.Use(custommw.RequestMetrics(a.Metrics))
		r.Use(custommw.StructuredLogger(a.Logger))
		r.Use(custommw.Recoverer(a.Logger))
		r.Use(custommw.SecurityHeaders)
		r.Use(custommw.CORS(a.corsConfig()))

		if a.Config.Security.RateLimit.Enabled {
			r.Use(custommw.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
		a.setupStaticRoutes(r)
	})

	// Prometheus endpoint stays outside the middleware chain
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes mounts the JSON API
func (a *Application) setupAPIRoutes(r chi.Router) {
	errorHandler := apierrors.NewErrorHandler(a.Logger, false)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(custommw.Timeout(a.Config.Server.ReadTimeout, a.Logger))

		r.NotFound(errorHandler.NotFound)
		r.MethodNotAllowed(errorHandler.MethodNotAllowed)

		healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		dashboardHandler := handlers.NewDashboardHandler(a.Services.Dashboard, a.Logger, errorHandler)
		r.Mount("/dashboard", dashboardHandler.Routes())

		datasetHandler := handlers.NewDatasetHandler(a.Services.Datasets, a.Logger, errorHandler)
		r.Mount("/datasets", datasetHandler.Routes())
	})
}

// setupStaticRoutes serves the dashboard frontend from the web
// directory when it exists.
func (a *Application) setupStaticRoutes(r chi.Router) {
	webDir := a.Config.GetWebDir()
	if _, err := os.Stat(webDir); err != nil {
		a.Logger.Warn("web directory not found, static serving disabled",
			slog.String("web_dir", webDir))
		return
	}

	fileServer := http.FileServer(http.Dir(webDir))
	r.Route("/", func(r chi.Router) {
		r.Use(custommw.Compress(5))
		r.Handle("/*", fileServer)
	})
}

func (a *Application) corsConfig() custommw.CORSConfig {
	return custommw.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
		Logger:         a.Logger,
	}
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start warms the dataset cache and begins serving. It returns when the
// listener stops; a closed server returns nil.
func (a *Application) Start(ctx context.Context) error {
	warmCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	a.Loader.WarmUp(warmCtx)

	a.Logger.InfoContext(ctx, "HTTP server listening",
		slog.String("addr", a.Server.Addr))

	if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	infrastructure.CloseLogFile()
	return nil
}

// Run starts the application and blocks until an interrupt arrives
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- a.Start(ctx)
	}()

	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "Received signal", slog.String("signal", sig.String()))
	case err := <-errChan:
		if err != nil {
			return err
		}
	}

	return a.Stop(ctx)
}
