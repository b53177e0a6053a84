package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/bouleverse/bookvault/internal/config"
	"github.com/bouleverse/bookvault/internal/database"
	"github.com/bouleverse/bookvault/internal/handlers"
	"github.com/bouleverse/bookvault/internal/logging"
	"github.com/bouleverse/bookvault/internal/mail"
	"github.com/bouleverse/bookvault/internal/middleware"
	"github.com/bouleverse/bookvault/internal/payments"
	"github.com/bouleverse/bookvault/internal/routes"
	"github.com/bouleverse/bookvault/internal/services"
	"github.com/bouleverse/bookvault/internal/session"
	"github.com/bouleverse/bookvault/internal/vault"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout), verbose outside production
	logging.Setup(cfg.IsProduction())

	if cfg.AuthSecret == "" {
		slog.Error("AUTH_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}
	if cfg.StripeWebhookSecret == "" {
		slog.Error("STRIPE_WEBHOOK_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.VaultMode == vault.ModeRemote && cfg.VaultBaseURL == "" {
		slog.Error("BOOK_VAULT_BASE_URL is required in remote vault mode")
		os.Exit(1)
	}
	if cfg.VaultMode != vault.ModeRemote && cfg.VaultPath == "" {
		slog.Error("BOOK_VAULT_PATH is required in local vault mode")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// ERROR+ records also land in the system_logs table
	dbLogHandler := logging.NewDBHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewFanout(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		dbLogHandler,
	)))

	// Log retention (30 days)
	retentionDone := make(chan struct{})
	logging.StartRetention(database.DB, retentionDone)

	// Stripe client (status re-reads, billing portal)
	stripeClient := payments.Init(cfg.StripeSecretKey)

	// Services
	sessions := session.NewManager(cfg)
	loginTokens := services.NewLoginTokenService(database.DB)
	entitlements := services.NewEntitlementService(database.DB, stripeClient)

	// TODO: replace LogMailer with an SMTP mailer for production deliveries.
	mailer := mail.LogMailer{}

	bookVault := vault.New(cfg)

	// Handlers
	authHandler := handlers.NewAuthHandler(cfg, loginTokens, sessions, mailer)
	libraryHandler := handlers.NewLibraryHandler(entitlements)
	readerHandler := handlers.NewReaderHandler(entitlements, bookVault)
	webhookHandler := handlers.NewWebhookHandler(cfg, entitlements)
	portalHandler := handlers.NewPortalHandler(cfg, entitlements, stripeClient)
	healthHandler := handlers.NewHealthHandler(bookVault)

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.Env,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		return c.Next()
	})

	// Routes
	routes.Setup(app, sessions, authHandler, libraryHandler, readerHandler, webhookHandler, portalHandler, healthHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "vault_mode", bookVault.Mode())
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(retentionDone)
	dbLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
