// @title           SportsAdmin Contracting API
// @version         1.0
// @description     Collaborator contracting for a sports academy: contracts, onboarding documents and cuentas de cobro, with role-based approval workflows.
// @BasePath        /api
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
// @description     Format: Bearer <token>
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	fiberSwagger "github.com/gofiber/swagger"
	"github.com/joho/godotenv"

	_ "github.com/cristian138/th-academy/docs"
	"github.com/cristian138/th-academy/internal/auth"
	"github.com/cristian138/th-academy/internal/contracts"
	"github.com/cristian138/th-academy/internal/dashboard"
	"github.com/cristian138/th-academy/internal/documents"
	"github.com/cristian138/th-academy/internal/notifications"
	"github.com/cristian138/th-academy/internal/notify"
	"github.com/cristian138/th-academy/internal/payments"
	"github.com/cristian138/th-academy/internal/store"
	"github.com/cristian138/th-academy/internal/users"
	"github.com/cristian138/th-academy/internal/vault"
	"github.com/cristian138/th-academy/internal/workflow"
	"github.com/cristian138/th-academy/pkg/config"
	"github.com/cristian138/th-academy/pkg/database"
	"github.com/cristian138/th-academy/pkg/models"
)

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func newVault(cfg *config.Config, log *slog.Logger) (workflow.Vault, error) {
	if cfg.Minio.Endpoint == "" {
		log.Warn("no minio endpoint configured, using local file vault", "dir", "uploads")
		return vault.NewLocal("uploads")
	}
	mv, err := vault.NewMinio(cfg.Minio)
	if err != nil {
		return nil, err
	}
	if err := mv.EnsureBucket(context.Background()); err != nil {
		return nil, err
	}
	return mv, nil
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := newLogger(cfg.Log)
	slog.SetDefault(log)

	db, err := database.Open(cfg)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.Contract{}, &models.Document{},
		&models.Payment{}, &models.Notification{}, &models.AuditLog{},
	); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}

	fileVault, err := newVault(cfg, log)
	if err != nil {
		log.Error("vault init failed", "error", err)
		os.Exit(1)
	}

	st := store.New(db)
	mailer := notify.NewMailer(cfg.SMTP, log)
	engine := workflow.New(st, fileVault, mailer, st, cfg, log)

	app := fiber.New(fiber.Config{
		ErrorHandler: auth.ErrorHandler,
		BodyLimit:    25 * 1024 * 1024,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"status": "ok"}) })
	app.Get("/swagger/*", fiberSwagger.HandlerDefault)

	api := app.Group("/api")
	authed := auth.RequireAuth(cfg, db)

	// Auth
	authH := auth.NewHandler(db, cfg)
	api.Post("/auth/login", authH.Login)
	api.Get("/auth/me", authed, authH.Me)

	// Users
	userH := users.NewHandler(engine)
	api.Post("/users", authed, userH.Create)
	api.Get("/users", authed, userH.List)
	api.Get("/users/:id", authed, userH.Get)
	api.Patch("/users/:id", authed, userH.Update)
	api.Post("/users/:id/deactivate", authed, userH.Deactivate)

	// Contracts
	contractH := contracts.NewHandler(engine)
	api.Post("/contracts", authed, contractH.Create)
	api.Get("/contracts", authed, contractH.List)
	api.Get("/contracts/:id", authed, contractH.Get)
	api.Post("/contracts/:id/review", authed, contractH.Review)
	api.Post("/contracts/:id/approve", authed, contractH.Approve)
	api.Post("/contracts/:id/signed", authed, contractH.UploadSigned)
	api.Post("/contracts/:id/cancel", authed, contractH.Cancel)
	api.Get("/contracts/:id/document-status", authed, contractH.DocumentStatus)
	api.Get("/contracts/:id/file", authed, contractH.DownloadFile)

	// Documents
	docH := documents.NewHandler(engine)
	api.Post("/contracts/:id/documents", authed, docH.Upload)
	api.Get("/contracts/:id/documents", authed, docH.List)
	api.Get("/documents/expiring", authed, docH.Expiring)
	api.Post("/documents/:id/review", authed, docH.Review)
	api.Get("/documents/:id/file", authed, docH.Download)

	// Payments
	payH := payments.NewHandler(engine)
	api.Post("/payments", authed, payH.Create)
	api.Get("/payments", authed, payH.List)
	api.Post("/payments/:id/bill", authed, payH.UploadBill)
	api.Post("/payments/:id/approve", authed, payH.Approve)
	api.Post("/payments/:id/reject", authed, payH.Reject)
	api.Post("/payments/:id/confirm", authed, payH.Confirm)
	api.Post("/payments/:id/cancel", authed, payH.Cancel)

	// Notifications
	notifH := notifications.NewHandler(engine)
	api.Get("/notifications", authed, notifH.List)
	api.Post("/notifications/:id/read", authed, notifH.MarkRead)

	// Dashboard and reports
	dashH := dashboard.NewHandler(engine)
	api.Get("/dashboard/stats", authed, dashH.Stats)
	api.Get("/reports/pending-signature", authed, dashH.PendingSignature)
	api.Get("/reports/active-contracts", authed, dashH.ActiveContracts)
	api.Get("/reports/pending-payments", authed, dashH.PendingPayments)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("server listening", "addr", addr)
	if err := app.Listen(addr); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
