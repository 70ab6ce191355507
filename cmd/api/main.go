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

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/techcorp/gatehouse/internal/auth"
	"github.com/techcorp/gatehouse/internal/config"
	"github.com/techcorp/gatehouse/internal/database"
	"github.com/techcorp/gatehouse/internal/handlers"
	middlewareCustom "github.com/techcorp/gatehouse/internal/middleware"
	"github.com/techcorp/gatehouse/internal/models"
	"github.com/techcorp/gatehouse/internal/ratelimit"
	"github.com/techcorp/gatehouse/internal/repositories"
	"github.com/techcorp/gatehouse/internal/routes"
	"github.com/techcorp/gatehouse/internal/services"
	"github.com/techcorp/gatehouse/internal/session"
	pkgauth "github.com/techcorp/gatehouse/pkg/auth"
	pkghttp "github.com/techcorp/gatehouse/pkg/http"
	pkglogger "github.com/techcorp/gatehouse/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Migrate(migrateCtx, "migrations"); err != nil {
		migrateCancel()
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	migrateCancel()

	// Shared mutable state: in-process by default, Redis when configured so
	// multiple instances share sessions and attempt budgets.
	var sessionStore session.Store
	var counterStore ratelimit.CounterStore
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		sessionStore = session.NewRedisStore(rdb)
		counterStore = ratelimit.NewRedisCounterStore(rdb)
		logger.Info("using redis session and rate-limit stores", slog.String("addr", cfg.Redis.Addr))
	} else {
		sessionStore = session.NewMemoryStore()
		counterStore = ratelimit.NewMemoryCounterStore()
		logger.Info("using in-memory session and rate-limit stores")
	}

	auditLogger := pkglogger.NewAuditLogger(logger)

	sessionManager := session.NewManager(sessionStore, session.Config{
		Lifetime:         cfg.Auth.SessionLifetime,
		RotationInterval: cfg.Auth.RotationInterval,
	})
	csrfManager := session.NewCSRFManager(sessionManager, cfg.Auth.CSRFTokenTTL)

	limiter := ratelimit.NewLimiter(counterStore, ratelimit.Config{
		MaxAttempts: cfg.Auth.RateLimitMax,
		Window:      cfg.Auth.RateLimitWindow,
	}, logger, auditLogger)

	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   cfg.Auth.TimingDelayBaseMs,
		RandomDelayMs: cfg.Auth.TimingDelayRandomMs,
	})

	userRepo := repositories.NewUserRepository(db)

	authService := services.NewAuthService(
		userRepo, sessionManager, csrfManager, limiter, timingDelay, logger, auditLogger)

	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	cookieConfig := auth.CookieConfig{
		Secure:   cfg.Server.Env == "production",
		SameSite: "lax",
	}
	authHandler := handlers.NewAuthHandler(
		authService, ipConfig, cookieConfig, cfg.Auth.SessionLifetime, cfg.Auth.CSRFTokenTTL)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminUser(ctx, userRepo, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	cancel()

	corsConfig := middlewareCustom.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.Server.AllowedOrigins

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, authHandler, sessionManager, csrfManager, logger)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// ensureAdminUser creates the first admin user if ADMIN_EMAIL and
// ADMIN_PASSWORD are set.
func ensureAdminUser(ctx context.Context, userRepo *repositories.UserRepository, logger *slog.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin user creation")
		return nil
	}

	email, err := pkgauth.ValidateEmail(adminEmail)
	if err != nil {
		return fmt.Errorf("invalid ADMIN_EMAIL: %w", err)
	}
	if err := pkgauth.ValidatePasswordPolicy(adminPassword); err != nil {
		return fmt.Errorf("invalid ADMIN_PASSWORD: %w", err)
	}

	_, err = userRepo.FindActiveByEmail(ctx, email)
	if err == nil {
		logger.Info("admin user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	hashedPassword, err := pkgauth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	_, err = userRepo.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         "admin",
		IsActive:     true,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("admin user created successfully")
	return nil
}
