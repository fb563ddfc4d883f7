package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/gatehouselabs/gatehouse/internal/auth/http"
	"github.com/gatehouselabs/gatehouse/internal/auth/identity"
	"github.com/gatehouselabs/gatehouse/internal/auth/identity/google"
	"github.com/gatehouselabs/gatehouse/internal/auth/service"
	"github.com/gatehouselabs/gatehouse/internal/auth/store"
	"github.com/gatehouselabs/gatehouse/internal/auth/store/drivers/sqlite"
	"github.com/gatehouselabs/gatehouse/pkg/cryptox"
	"github.com/gatehouselabs/gatehouse/pkg/jwtx"
	"github.com/gatehouselabs/gatehouse/pkg/mailx"
	"github.com/gatehouselabs/gatehouse/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	signer *jwtx.Signer

	authService         *service.AuthService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "gatehouse",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	signer, err := jwtx.NewSigner(cfg.Issuer, []byte(cfg.AccessSecret), []byte(cfg.RefreshSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential signer: %w", err)
	}
	app.signer = signer

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("gatehouse starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
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

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down gatehouse...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("gatehouse stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initServices() {
	app.authService = &service.AuthService{
		Store:  app.db,
		Signer: app.signer,
		Mailer: app.initMailer(),
		Google: app.initGoogle(),

		AccessTTL:     app.cfg.AccessTTL,
		RefreshTTL:    app.cfg.RefreshTTL,
		ActivationTTL: app.cfg.ActivationTTL,
		ResetTTL:      app.cfg.ResetTTL,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) initMailer() mailx.Notifier {
	if app.cfg.SMTPAddr == "" {
		app.logger.Warn("no SMTP relay configured, emails will only be logged")
		return &mailx.LogMailer{Logger: app.logger}
	}

	return mailx.NewSMTPMailer(mailx.SMTPConfig{
		Addr:     app.cfg.SMTPAddr,
		Username: app.cfg.SMTPUsername,
		Password: app.cfg.SMTPPassword,
		From:     app.cfg.SMTPFrom,
		BaseURL:  app.cfg.BaseURL,
	})
}

func (app *Application) initGoogle() identity.Provider {
	if app.cfg.GoogleClientID == "" {
		app.logger.Warn("no Google client id configured, federated login disabled")
		return disabledProvider{}
	}
	return google.New(google.Config{ClientID: app.cfg.GoogleClientID})
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)
	router.AuthService = app.authService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// disabledProvider rejects every assertion. Stands in when no Google client
// id is configured so the endpoint fails closed instead of panicking.
type disabledProvider struct{}

func (disabledProvider) Name() string { return "google" }

func (disabledProvider) Verify(ctx context.Context, assertion string) (identity.Identity, error) {
	return identity.Identity{}, identity.ErrInvalidAssertion
}
