package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leadboost/leadboost/internal"
	"github.com/leadboost/leadboost/internal/domain"
	"github.com/leadboost/leadboost/internal/enrich"
	"github.com/leadboost/leadboost/internal/enrich/hunter"
	"github.com/leadboost/leadboost/internal/enrich/mock"
	"github.com/leadboost/leadboost/internal/handler"
	"github.com/leadboost/leadboost/internal/invite"
	"github.com/leadboost/leadboost/internal/metrics"
	"github.com/leadboost/leadboost/internal/middleware"
	"github.com/leadboost/leadboost/internal/repository"
	"github.com/leadboost/leadboost/internal/service"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Run migrations through database/sql; the application itself talks to
	// Postgres through a pgx pool.
	migrateDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	if err := migrateDB.PingContext(ctx); err != nil {
		migrateDB.Close()
		return fmt.Errorf("database ping failed: %w", err)
	}
	if err := internal.RunMigrations(migrateDB); err != nil {
		migrateDB.Close()
		return fmt.Errorf("migration failed: %w", err)
	}
	migrateDB.Close()

	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("pool initialization failed: %w", err)
	}
	defer pool.Close()

	store := repository.New(pool)
	if err := store.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database ready")

	// Enrichment provider
	var enricher enrich.Provider
	switch cfg.EnrichProvider {
	case "hunter":
		enricher, err = hunter.New(hunter.Config{
			APIKey:  cfg.HunterAPIKey,
			Timeout: cfg.EnrichRequestTimeout,
		}, logger)
		if err != nil {
			return fmt.Errorf("enrichment provider initialization failed: %w", err)
		}
	default:
		enricher = mock.New()
	}
	logger.Info("Enrichment provider configured", "provider", enricher.Name())

	// Initialize services
	inviteValidator := invite.New(cfg.InviteCodesEnabled, cfg.ValidInviteCodes)
	auditService := service.NewAuditService(store, logger)
	userService := service.NewUserService(store, inviteValidator, auditService, logger)
	quotaService := service.NewQuotaService(store, auditService, logger)
	leadService := service.NewLeadService(store, quotaService, auditService, enricher, logger)
	adminService := service.NewAdminService(store, auditService, logger)

	// Promote configured admin accounts, if they exist yet
	bootstrapAdmins(ctx, store, cfg.AdminEmails, logger)

	// Expired sessions are swept in the background for hygiene; lookups
	// already exclude them.
	go sessionCleanupLoop(ctx, store, cfg.SessionCleanupInterval, logger)

	// Initialize middleware
	isSecure := cfg.Env != "development"
	authMw := middleware.NewAuthMiddleware(userService, logger, isSecure)
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure)
	metricsAuthMw := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)
	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimitAttempts, cfg.AuthRateLimitWindow, logger)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(userService, quotaService, logger, isSecure)
	leadHandler := handler.NewLeadHandler(leadService, logger)
	adminHandler := handler.NewAdminHandler(adminService, auditService, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Metrics (basic auth when configured)
	mux.Handle("GET /metrics", metricsAuthMw.Handler(promhttp.Handler()))

	// Auth routes (public, rate limited)
	mux.Handle("POST /signup", authLimiter.Handler(http.HandlerFunc(authHandler.Signup)))
	mux.Handle("POST /login", authLimiter.Handler(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("POST /logout", authHandler.Logout)

	// Middleware stacks for protected routes
	requireUser := middleware.Stack(authMw.WithUser, authMw.RequireUser)
	requireAdmin := middleware.Stack(authMw.WithUser, authMw.RequireUser, authMw.RequireAdmin)

	// Authenticated API
	mux.Handle("GET /api/me", requireUser(http.HandlerFunc(authHandler.Me)))
	mux.Handle("POST /api/upgrade", requireUser(http.HandlerFunc(authHandler.Upgrade)))
	mux.Handle("POST /api/leads", requireUser(http.HandlerFunc(leadHandler.Create)))
	mux.Handle("POST /api/leads/bulk", requireUser(http.HandlerFunc(leadHandler.Bulk)))
	mux.Handle("GET /api/leads", requireUser(http.HandlerFunc(leadHandler.List)))
	mux.Handle("GET /api/leads/recent", requireUser(http.HandlerFunc(leadHandler.Recent)))

	// Admin API
	mux.Handle("GET /api/admin/users", requireAdmin(http.HandlerFunc(adminHandler.ListUsers)))
	mux.Handle("PATCH /api/admin/users/{email}", requireAdmin(http.HandlerFunc(adminHandler.UpdateUser)))
	mux.Handle("POST /api/admin/users/{email}/role", requireAdmin(http.HandlerFunc(adminHandler.QuickRole)))
	mux.Handle("POST /api/admin/users/{email}/deactivate", requireAdmin(http.HandlerFunc(adminHandler.Deactivate)))
	mux.Handle("GET /api/admin/audit", requireAdmin(http.HandlerFunc(adminHandler.Audit)))

	// Outer middleware applies to everything
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	root := middleware.Stack(
		loggingMw.Handler,
		metrics.Middleware,
		securityMw.Handler,
	)(mux)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: root,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
		}
	}()

	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

// bootstrapAdmins promotes the configured admin emails to the admin role.
// Missing accounts are skipped; they can be promoted after signing up.
func bootstrapAdmins(ctx context.Context, store *repository.Store, emails []string, logger *slog.Logger) {
	adminRole := domain.RoleAdmin
	adminQuota := domain.UnlimitedQuota

	for _, email := range emails {
		user, err := store.GetUserByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				logger.Info("admin bootstrap: account not found, skipping", "email", email)
				continue
			}
			logger.Error("admin bootstrap lookup failed", "email", email, "error", err)
			continue
		}
		if user.Role == domain.RoleAdmin {
			continue
		}

		if _, err := store.UpdateUserAdmin(ctx, user.ID, domain.AdminUserChanges{
			Role:         &adminRole,
			MonthlyQuota: &adminQuota,
		}); err != nil {
			logger.Error("admin bootstrap promotion failed", "email", email, "error", err)
			continue
		}
		logger.Info("admin bootstrap: promoted account", "email", email)
	}
}

// sessionCleanupLoop periodically deletes expired sessions.
func sessionCleanupLoop(ctx context.Context, store *repository.Store, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := store.DeleteExpiredSessions(ctx)
			if err != nil {
				logger.Warn("session cleanup failed", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Info("session cleanup", "deleted", deleted)
			}
		}
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
