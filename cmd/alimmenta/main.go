package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/alimmenta/alimmenta/internal/app"
	"github.com/alimmenta/alimmenta/internal/dashboard"
	"github.com/alimmenta/alimmenta/internal/identity"
	"github.com/alimmenta/alimmenta/internal/observability"
	"github.com/alimmenta/alimmenta/internal/orders"
	"github.com/alimmenta/alimmenta/internal/platform/cache"
	"github.com/alimmenta/alimmenta/internal/platform/db"
	"github.com/alimmenta/alimmenta/internal/products"
	"github.com/alimmenta/alimmenta/internal/profiles"
	"github.com/alimmenta/alimmenta/internal/roles"
	"github.com/alimmenta/alimmenta/internal/shared"
	"github.com/alimmenta/alimmenta/internal/subscriptions"
	"github.com/alimmenta/alimmenta/internal/tenants"
	"github.com/alimmenta/alimmenta/internal/view"
	"github.com/alimmenta/alimmenta/jobs"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	if err := db.Migrate(ctx, dbpool); err != nil {
		logger.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}

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

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	auditLogger := shared.NewAuditLogger(dbpool)

	roleStore := roles.NewRepository(dbpool)
	resolver := roles.NewResolver(roleStore, logger, auditLogger)
	hub := roles.NewHub(resolver)
	rolesMiddleware := roles.Middleware{Resolver: resolver, Logger: logger}

	identityRepo := identity.NewRepository(dbpool)
	identityService := identity.NewService(identityRepo)

	profilesRepo := profiles.NewRepository(dbpool)
	profilesService := profiles.NewService(profilesRepo)

	tenantsRepo := tenants.NewRepository(dbpool)
	tenantsService := tenants.NewService(tenantsRepo, logger, auditLogger)

	productsRepo := products.NewRepository(dbpool)
	productsService := products.NewService(productsRepo, logger, auditLogger)

	subscriptionsRepo := subscriptions.NewRepository(dbpool)
	subscriptionsService := subscriptions.NewService(subscriptionsRepo, logger)

	ordersRepo := orders.NewRepository(dbpool)
	ordersService := orders.NewService(ordersRepo)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	identityHandler := identity.NewHandler(logger, identityService, resolver, hub,
		profilesService, jobsClient, templates, sessionManager, csrfManager)

	profilesHandler := profiles.NewHandler(logger, profilesService, templates, csrfManager)

	metrics := observability.NewMetrics()

	dashboardHandler := dashboard.NewHandler(dashboard.Deps{
		Logger:        logger,
		Templates:     templates,
		CSRF:          csrfManager,
		Hub:           hub,
		Resolver:      resolver,
		Tenants:       tenantsService,
		Products:      productsService,
		Profiles:      profilesService,
		Subscriptions: subscriptionsService,
		Orders:        ordersService,
		Audit:         auditLogger,
		Users:         identityRepo,
	})

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Templates:        templates,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		IdentityHandler:  identityHandler,
		DashboardHandler: dashboardHandler,
		ProfilesHandler:  profilesHandler,
		RolesMiddleware:  rolesMiddleware,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
