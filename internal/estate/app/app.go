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

	"github.com/aussiebroadwan/estate/internal/estate/assets"
	httpapi "github.com/aussiebroadwan/estate/internal/estate/http"
	"github.com/aussiebroadwan/estate/internal/estate/mailer"
	"github.com/aussiebroadwan/estate/internal/estate/service"
	"github.com/aussiebroadwan/estate/internal/estate/store"
	"github.com/aussiebroadwan/estate/internal/estate/store/drivers/postgres"
	"github.com/aussiebroadwan/estate/internal/estate/store/drivers/sqlite"
	"github.com/aussiebroadwan/estate/pkg/cryptox"
	"github.com/aussiebroadwan/estate/pkg/jwtx"
	"github.com/aussiebroadwan/estate/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application wires the listings site together: storage, image assets,
// mail, services and the HTTP server.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	assets   assets.Store
	mail     mailer.Mailer
	signer   jwtx.Signer
	verifier jwtx.Verifier

	// Services
	listingService      *service.ListingService
	catalogService      *service.CatalogService
	accountService      *service.AccountService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "estate",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)
	if err := cryptox.LoadPepper(); err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}

	signer, verifier, err := InitSessionKeys(app.cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session keys: %w", err)
	}
	app.signer = signer
	app.verifier = verifier

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initAssets(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initMailer()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("estate starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"db_driver", app.cfg.DBDriver,
		"asset_backend", app.cfg.AssetBackend,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
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
	app.logger.Info("shutting down estate...")

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

	if err := app.assets.Close(ctx); err != nil {
		app.logger.Error("error closing asset store", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("estate stopped")
	return nil
}

// OpenStore opens the configured database driver and applies migrations.
// The seed command shares it with the server.
func OpenStore(cfg Config) (store.Store, error) {
	var (
		db  store.Store
		err error
	)

	switch cfg.DBDriver {
	case "postgres":
		db, err = postgres.NewStore(cfg.DatabaseURL)
	default:
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", cfg.DatabaseFile)
		db, err = sqlite.NewStore(dsn)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}

	return db, nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	db, err := OpenStore(app.cfg)
	if err != nil {
		return err
	}
	app.db = db

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DBDriver)
	return nil
}

// initAssets opens the image store for the configured backend.
func (app *Application) initAssets() error {
	switch app.cfg.AssetBackend {
	case "gridfs":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		g, err := assets.NewGridFS(ctx, app.cfg.MongoURI, app.cfg.MongoDatabase)
		if err != nil {
			return fmt.Errorf("failed to connect image store: %w", err)
		}
		app.assets = g
	default:
		fs, err := assets.NewFilesystem(app.cfg.UploadsDir)
		if err != nil {
			return fmt.Errorf("failed to open uploads directory: %w", err)
		}
		app.assets = fs
	}
	return nil
}

// initMailer sends through SMTP when a host is configured and otherwise
// writes outgoing mail to the log.
func (app *Application) initMailer() {
	if app.cfg.SMTPHost == "" {
		app.logger.Warn("SMTP_HOST not set, outgoing mail is logged instead of sent")
		app.mail = mailer.Log{}
		return
	}
	app.mail = mailer.NewSMTP(app.cfg.SMTPHost, app.cfg.SMTPPort, app.cfg.SMTPUser, app.cfg.SMTPPass, app.cfg.MailFrom)
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.listingService = &service.ListingService{
		Store:          app.db,
		Assets:         app.assets,
		PublishedOnly:  app.cfg.PublishedOnly,
		MaxUploadBytes: app.cfg.MaxUploadBytes,
	}
	app.catalogService = &service.CatalogService{Store: app.db}
	app.accountService = &service.AccountService{
		Store:      app.db,
		Mailer:     app.mail,
		Signer:     app.signer,
		Verifier:   app.verifier,
		Issuer:     sessionIssuer,
		SessionTTL: app.cfg.SessionTTL,
		BaseURL:    app.cfg.BaseURL,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.assets,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.OrphanGracePeriod,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.db,
		app.assets,
		app.logger,
	)

	// Wire services to router
	router.ListingService = app.listingService
	router.CatalogService = app.catalogService
	router.AccountService = app.accountService
	router.SessionTTL = app.cfg.SessionTTL
	router.SecureCookie = app.cfg.CookieSecure
	router.MaxUploadBytes = app.cfg.MaxUploadBytes
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
