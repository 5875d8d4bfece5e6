package main

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

	"golang.org/x/sync/errgroup"

	_ "github.com/pwannenmacher/credvault/docs" // This is for Swagger
	"github.com/pwannenmacher/credvault/internal/auth"
	"github.com/pwannenmacher/credvault/internal/config"
	"github.com/pwannenmacher/credvault/internal/database"
	"github.com/pwannenmacher/credvault/internal/handlers"
	"github.com/pwannenmacher/credvault/internal/logger"
	"github.com/pwannenmacher/credvault/internal/middleware"
	"github.com/pwannenmacher/credvault/internal/repository"
	"github.com/pwannenmacher/credvault/internal/repository/memory"
	"github.com/pwannenmacher/credvault/internal/scheduler"
	"github.com/pwannenmacher/credvault/internal/service"
)

// @title CredVault API
// @version 1.0
// @description Academic credential submission, review and verification platform
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@credvault.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Setup(logger.Config{Level: cfg.Log.Level})
	slog.Info("Starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"env", cfg.App.Env,
		"log_level", logger.GetLevel(cfg.Log.Level),
		"store", cfg.Store.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, db, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	// Initialize services
	authService := auth.NewService(&cfg.JWT)
	auditSvc := service.NewAuditService(stores.Audit)
	reviewSvc := service.NewReviewService(stores.Submissions, auditSvc)
	querySvc := service.NewQueryService(stores, auditSvc, cfg.Portfolio.Target)
	authSvc := service.NewAuthService(stores.Users, stores.Sessions, authService, auditSvc)

	if cfg.Seed.DemoData {
		seedCtx, cancel := getContext(ctx, time.Minute)
		err := seedDemoData(seedCtx, authSvc, reviewSvc, cfg.Seed.DemoPassword)
		cancel()
		if err != nil {
			return err
		}
	}

	// Initialize middleware
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit)

	// the health handler must see a nil interface, not a typed nil, for the memory store
	var health handlers.HealthChecker
	if db != nil {
		health = db
	}

	router := &handlers.Router{
		Auth:       handlers.NewAuthHandler(authSvc),
		Submission: handlers.NewSubmissionHandler(reviewSvc, querySvc),
		Student:    handlers.NewStudentHandler(querySvc),
		Recruiter:  handlers.NewRecruiterHandler(querySvc),
		Admin:      handlers.NewAdminHandler(querySvc, auditSvc),
		Health:     handlers.NewHealthHandler(health, cfg.Store.Driver, cfg.App.Version),

		AuthMw:      middleware.NewAuthMiddleware(authSvc),
		CORS:        middleware.NewCORSMiddleware(&cfg.CORS),
		RateLimiter: rateLimiter,
	}

	// Create server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.TimeoutRead,
		WriteTimeout: cfg.Server.TimeoutWrite,
		IdleTimeout:  cfg.Server.TimeoutIdle,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return scheduler.NewScheduler(authSvc, &cfg.Scheduler).Run(gctx)
	})

	g.Go(func() error {
		rateLimiter.Cleanup(gctx, time.Minute)
		return nil
	})

	// Wait for interrupt signal or a failed component to shut the server down
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Server shutting down...")

		shutdownCtx, cancel := getContext(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("Server stopped")
	return nil
}

// openStores selects the document store backend. For PostgreSQL it also
// connects and runs migrations; the returned database is nil for the memory store.
func openStores(ctx context.Context, cfg *config.Config) (*repository.Stores, *database.Database, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		slog.Warn("Using in-memory store; data is lost on restart")
		return memory.NewStores(), nil, nil
	}

	db, err := database.New(ctx, &cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("Database connection established")

	migrateCtx, cancel := getContext(ctx, 2*time.Minute)
	defer cancel()

	if err := db.RunMigrations(migrateCtx, cfg.Database.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database migrations completed")

	return repository.NewPostgresStores(db.DB), db, nil
}
