package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/lotworks/lotworks/internal/app"
	"github.com/lotworks/lotworks/internal/audit"
	"github.com/lotworks/lotworks/internal/auth"
	"github.com/lotworks/lotworks/internal/identity"
	"github.com/lotworks/lotworks/internal/observability"
	"github.com/lotworks/lotworks/internal/platform/cache"
	"github.com/lotworks/lotworks/internal/platform/db"
	"github.com/lotworks/lotworks/internal/profile"
	"github.com/lotworks/lotworks/internal/rbac"
	"github.com/lotworks/lotworks/internal/session"
	"github.com/lotworks/lotworks/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	var provider identity.Provider
	switch cfg.IdentityMode {
	case "http":
		provider = identity.NewHTTPProvider(cfg.IdentityURL, cfg.IdentityAPIKey, redisClient, logger)
	default:
		dev := identity.NewDevProvider()
		if cfg.DevLoginPassword != "" {
			id := cfg.DevLoginUserID
			if id == "" {
				id = uuid.NewString()
			}
			if err := dev.Seed(cfg.DevLoginEmail, cfg.DevLoginPassword, id); err != nil {
				logger.Error("seed dev login", slog.Any("error", err))
				os.Exit(1)
			}
			logger.Info("seeded dev login", slog.String("email", cfg.DevLoginEmail))
		}
		provider = dev
	}

	profiles := profile.NewResolver(profile.NewRepository(pool))
	trail := audit.NewRecorder(pool)

	manager := session.NewManager(provider, profiles, trail, logger)
	manager.Start(ctx)

	registry := rbac.NewRegistry(rbac.NewPGStore(pool), logger)
	gate := rbac.NewGate(registry)
	guard := rbac.Middleware{Sessions: manager, Gate: gate, Logger: logger}

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		AuthHandler:        auth.NewHandler(logger, manager, registry),
		UsersHandler:       users.NewHandler(logger, profile.NewRepository(pool), guard),
		PermissionsHandler: rbac.NewHandler(logger, registry, guard),
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", slog.Any("error", err))
	}
	logger.Info("shutdown complete")
}
