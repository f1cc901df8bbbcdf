package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"signaldesk/internal/adapter/realtime"
	"signaldesk/internal/adapter/telegram"
	"signaldesk/internal/database"
	delivery "signaldesk/internal/delivery/http"
	"signaldesk/internal/domain"
	"signaldesk/internal/infra"
	"signaldesk/internal/middleware"
	"signaldesk/internal/repository"
	"signaldesk/internal/service"
	"signaldesk/pkg/logger"
)

const (
	shutdownTimeout    = 10 * time.Second
	limiterPruneEvery  = 10 * time.Minute
	limiterIdleTimeout = 30 * time.Minute
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply pending migrations before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, appLogger, db, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting SignalDesk",
		logger.Field("name", cfg.App.Name),
		logger.Field("env", cfg.App.Env),
		logger.Field("version", cfg.App.Version),
	)

	if migrateOnStart {
		m, err := database.NewMigrator(cfg.Database.URL, appLogger)
		if err != nil {
			return err
		}
		err = m.Up()
		m.Close()
		if err != nil {
			return err
		}
	}

	rdb, err := infra.NewRedis(ctx, cfg.Redis, appLogger)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	planRepo := repository.NewPlanRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	signalRepo := repository.NewSignalRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	txManager := repository.NewTxManager(db)

	// Realtime fan-out
	hub := realtime.NewHub(cfg.Server.CORSOrigins, appLogger)
	defer hub.Close()
	broker := realtime.NewBroker(hub, rdb, appLogger)
	go func() {
		topics := append([]string{domain.TopicAdmin}, domain.SignalTopics()...)
		if err := broker.Run(ctx, topics...); err != nil {
			appLogger.Error("Realtime relay stopped", logger.ErrorField(err))
		}
	}()

	chat, err := telegram.NewNotificationService(cfg.Telegram.BotToken, cfg.Telegram.AdminChatID)
	if err != nil {
		appLogger.Warn("Telegram mirror disabled", logger.ErrorField(err))
		chat, _ = telegram.NewNotificationService("", 0)
	}

	// Services
	tokens := middleware.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	notificationService := service.NewNotificationService(notificationRepo, broker, chat, appLogger)
	planService := service.NewPlanService(planRepo, cfg.Cache.PlanTTL, appLogger)
	authService := service.NewAuthService(userRepo, tokens, notificationService, appLogger)
	subscriptionService := service.NewSubscriptionService(subscriptionRepo, userRepo, notificationService, txManager, appLogger)
	purchaseService := service.NewPurchaseService(planRepo, purchaseRepo, subscriptionRepo, notificationRepo, notificationService, txManager, appLogger)
	signalService := service.NewSignalService(signalRepo, subscriptionRepo, broker, appLogger)
	adminService := service.NewAdminService(userRepo, purchaseRepo, subscriptionRepo, signalRepo, notificationRepo, appLogger)
	customerService := service.NewCustomerService(userRepo, purchaseRepo, subscriptionService, appLogger)

	// Expiry sweep
	scheduler := infra.NewScheduler(cfg.Scheduler.ExpirySweep, subscriptionService, appLogger)
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer scheduler.Stop()

	loginLimiter := middleware.NewIPRateLimiter(cfg.Auth.LoginRatePerMinute, cfg.Auth.LoginBurst)
	go pruneLimiter(ctx, loginLimiter, appLogger)

	ipExtractor, err := middleware.IPExtractor(cfg.Server.TrustedProxies)
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	delivery.SetupRoutes(e, &delivery.RouterConfig{
		AuthHandler:            delivery.NewAuthHandler(authService, cfg.Auth.TokenTTL, cfg.Auth.CookieSecure),
		UserHandler:            delivery.NewUserHandler(authService, subscriptionService, purchaseService),
		PlanHandler:            delivery.NewPlanHandler(planService),
		SignalHandler:          delivery.NewSignalHandler(signalService, hub),
		AdminHandler:           delivery.NewAdminHandler(adminService, purchaseService, notificationService, hub),
		CustomerServiceHandler: delivery.NewCustomerServiceHandler(customerService),
		Tokens:                 tokens,
		Users:                  authService,
		Subscriptions:          subscriptionService,
		LoginLimiter:           loginLimiter,
		IPExtractor:            ipExtractor,
		CORSOrigins:            cfg.Server.CORSOrigins,
		Version:                cfg.App.Version,
		Logger:                 appLogger,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	errCh := make(chan error, 1)
	go func() {
		appLogger.Info("HTTP server listening", logger.Field("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		appLogger.Info("Shutting down server")
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	appLogger.Info("Server exited gracefully")
	return nil
}

func pruneLimiter(ctx context.Context, l *middleware.IPRateLimiter, log *logger.Logger) {
	ticker := time.NewTicker(limiterPruneEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Prune(limiterIdleTimeout); n > 0 {
				log.Debug("Pruned idle rate limiter entries", logger.Field("count", n))
			}
		}
	}
}
