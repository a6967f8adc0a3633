package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"siteoutage/internal/config"
	apierrors "siteoutage/internal/errors"
	"siteoutage/internal/infrastructure"
	customMiddleware "siteoutage/internal/middleware"
	"siteoutage/internal/services"
	handlers "siteoutage/internal/transport/http"
	"siteoutage/pkg/contracts"
	api "siteoutage/pkg/contracts/api/v1"
)

// AppName is reported in startup logs.
const AppName = "Site Outage Service"

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.OutageMetrics
	Services      *ServiceContainer
	ErrorHandler  *apierrors.ErrorHandler
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Outage *services.OutageService
	Health *services.HealthService
}

// NewApplication loads configuration from the environment and config file
// and builds the application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New wires an application from an explicit configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.GetVersionString()))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.NewOutageMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Telemetry.Environment == "development"),
	}

	app.initializeServices()
	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() {
	outage := services.NewOutageService(
		a.Config.Upload,
		a.Metrics,
		a.OTelProviders.Tracer,
		a.Logger,
	)

	a.Services = &ServiceContainer{
		Outage: outage,
		Health: services.NewHealthService(contracts.Version, outage, a.Logger),
	}
}

// setupRouter builds the chi router. Order: RequestID, RealIP, StripSlashes,
// OTel, logger, recovery, headers, CORS, rate limit, timeout.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.StripSlashes)

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(apierrors.RecoveryMiddleware(a.ErrorHandler))
		r.Use(customMiddleware.DefaultSecureHeaders().Handler)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
				a.ErrorHandler,
			).Handler)
		}

		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		a.setupAPIRoutes(r)
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes registers the upload and health endpoints.
func (a *Application) setupAPIRoutes(r chi.Router) {
	healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
	uploadHandler := handlers.NewUploadHandler(
		a.Services.Outage,
		customMiddleware.NewRequestValidator(a.Logger),
		a.ErrorHandler,
		a.Config.Upload.MaxUploadBytes,
		a.Logger,
	)

	uploads := r.With(
		customMiddleware.ContentTypeValidator(a.ErrorHandler, "multipart/form-data"),
		customMiddleware.AuditLog(a.Logger),
	)
	uploads.Post("/upload", uploadHandler.Aggregate)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)
		r.With(
			customMiddleware.ContentTypeValidator(a.ErrorHandler, "multipart/form-data"),
			customMiddleware.AuditLog(a.Logger),
		).Mount("/outages", uploadHandler.Routes())
	})
}

func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		ExposedHeaders: []string{api.HeaderDocumentDigest, customMiddleware.RequestIDHeader, "Content-Disposition"},
		Logger:         a.Logger,
	}
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(a.Logger.Handler(), slog.LevelWarn),
	}
}

// Start begins serving in the background. A listener failure is logged
// and cancels ctx through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}

	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.String("address", ln.Addr().String()),
		slog.Int64("max_upload_bytes", a.Config.Upload.MaxUploadBytes),
		slog.Int64("max_concurrent", a.Config.Upload.MaxConcurrent),
		slog.String("level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return infrastructure.CloseLogFile()
}

// Run runs the application until SIGINT or SIGTERM.
func (a *Application) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.InfoContext(ctx, "Received shutdown signal")

	return a.Stop(ctx)
}
