package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	httpapi "github.com/aussiebroadwan/accounts/internal/accounts/http"
	"github.com/aussiebroadwan/accounts/internal/accounts/mail"
	"github.com/aussiebroadwan/accounts/internal/accounts/observability"
	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/internal/accounts/session"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/internal/accounts/store/drivers/postgres"
	"github.com/aussiebroadwan/accounts/internal/accounts/store/drivers/sqlite"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
	"github.com/aussiebroadwan/accounts/pkg/jwtx"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

// BuildVersion is overridden at build time with -ldflags.
var BuildVersion = "v0.1.0"

// Application wires the accounts service together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db    store.Store
	cache session.Cache
	keys  *jwtx.KeyRing

	registry *prometheus.Registry
	metrics  *observability.Metrics

	// Services
	authService         *service.AuthService
	userService         *service.UserService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// NewLogger builds the process logger from configuration.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "accounts",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// New creates a new Application instance with all dependencies initialized.
// Migrations are applied before it returns.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Application, error) {
	app := &Application{cfg: cfg, logger: logger}

	db, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}
	logger.Info("database migrations applied successfully", "driver", cfg.DatabaseDriver)

	if app.keys, err = LoadKeys(cfg, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to load token keys: %w", err)
	}

	if app.cache, err = openCache(slogx.WithContext(ctx, logger), cfg, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	mailer, err := newMailer(cfg, logger)
	if err != nil {
		app.closeBackends()
		return nil, err
	}

	app.registry = observability.NewRegistry()
	app.metrics = observability.NewMetrics(app.registry)

	app.initServices(mailer)
	app.initHTTP()

	return app, nil
}

// OpenStore connects the configured database driver without migrating.
func OpenStore(ctx context.Context, cfg Config) (store.Store, error) {
	switch cfg.DatabaseDriver {
	case "postgres":
		db, err := postgres.NewStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return db, nil
	default:
		db, err := sqlite.NewStore(sqliteDSN(cfg.DatabaseURL))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return db, nil
	}
}

// sqliteDSN turns a bare path into a DSN with a busy timeout and WAL.
// ":memory:" and explicit file: URIs pass through.
func sqliteDSN(path string) string {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return path
	}
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func openCache(ctx context.Context, cfg Config, logger *slog.Logger) (session.Cache, error) {
	if cfg.CacheURL == "" {
		logger.Warn("CACHE_URL not set, sessions are kept in memory and lost on restart")
		return session.NewMemoryCache(), nil
	}

	c, err := session.OpenRedis(ctx, cfg.CacheURL, session.RetryPolicy{
		Retries: cfg.CacheConnectRetries,
		Backoff: cfg.CacheConnectBackoff,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect session cache: %w", err)
	}
	logger.Info("session cache connected")
	return c, nil
}

func newMailer(cfg Config, logger *slog.Logger) (mail.Dispatcher, error) {
	if cfg.SMTP.Host == "" {
		logger.Warn("SMTP_HOST not set, mail links are logged instead of sent")
		return mail.NewLogDispatcher(cfg.Origin), nil
	}

	d, err := mail.NewSMTPDispatcher(mail.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		TLS:      cfg.SMTP.TLS,
		From:     cfg.SMTP.From,
		Product:  cfg.SMTP.Product,
		Origin:   cfg.Origin,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}
	return d, nil
}

func (app *Application) initServices(mailer mail.Dispatcher) {
	app.authService = &service.AuthService{
		Store:      app.db,
		Cache:      app.cache,
		Keys:       app.keys,
		Mailer:     mailer,
		Metrics:    app.metrics,
		AccessTTL:  app.cfg.AccessTokenTTL,
		RefreshTTL: app.cfg.RefreshTokenTTL,
		CacheTTL:   app.cfg.SessionTTL,
	}
	app.userService = &service.UserService{
		Store:   app.db,
		Cache:   app.cache,
		Metrics: app.metrics,
	}
	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.keys, app.db, app.cache, BuildVersion, app.logger)

	router.AuthService = app.authService
	router.UserService = app.userService
	router.Metrics = app.metrics
	router.Registry = app.registry
	router.Cookies = httpx.CookieOptions{
		Domain:   app.cfg.Cookies.Domain,
		Secure:   app.cfg.Cookies.Secure,
		SameSite: httpx.ParseSameSite(app.cfg.Cookies.SameSite),
	}
	router.ApplyRoutes()

	app.router = router
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// Handler exposes the routed handler, mainly for tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("accounts service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		app.housekeepingService.Stop()
		app.closeBackends()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains the HTTP server, stops the worker and closes backends.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down accounts service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.closeBackends(); err != nil {
		return err
	}
	app.logger.Info("accounts service stopped")
	return nil
}

// Close releases the backends of an application that was never Run.
func (app *Application) Close() error { return app.closeBackends() }

func (app *Application) closeBackends() error {
	var errs []error
	if app.cache != nil {
		if err := app.cache.Close(); err != nil {
			app.logger.Error("error closing session cache", "error", err)
			errs = append(errs, err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
