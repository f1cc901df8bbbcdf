package http

import (
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"signaldesk/internal/metrics"
	"signaldesk/internal/middleware"
	"signaldesk/pkg/logger"
)

// RouterConfig holds all dependencies for routing
type RouterConfig struct {
	AuthHandler            *AuthHandler
	UserHandler            *UserHandler
	PlanHandler            *PlanHandler
	SignalHandler          *SignalHandler
	AdminHandler           *AdminHandler
	CustomerServiceHandler *CustomerServiceHandler

	Tokens        *middleware.TokenManager
	Users         middleware.RoleLookup
	Subscriptions middleware.SubscriptionLookup
	LoginLimiter  *middleware.IPRateLimiter
	IPExtractor   echo.IPExtractor
	CORSOrigins   []string
	Version       string
	Logger        *logger.Logger
}

// SetupRoutes configures all HTTP routes
func SetupRoutes(e *echo.Echo, config *RouterConfig) {
	e.HTTPErrorHandler = NewHTTPErrorHandler(config.Logger)
	// c.RealIP keys the login limiter, so forwarding headers are only read from trusted hops
	e.IPExtractor = config.IPExtractor
	if e.IPExtractor == nil {
		e.IPExtractor = echo.ExtractIPDirect()
	}

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(config.Logger))
	e.Use(echomw.Recover())
	e.Use(metrics.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     config.CORSOrigins,
		AllowCredentials: true,
	}))
	e.Use(echomw.Secure())

	e.GET("/health", func(c echo.Context) error {
		return SuccessResponse(c, map[string]interface{}{
			"status":    "healthy",
			"service":   "signaldesk-api",
			"version":   config.Version,
			"timestamp": time.Now().UTC(),
		})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	api := e.Group("/api")

	// Public catalog
	api.GET("/plans", config.PlanHandler.List)
	api.GET("/plans/:tier", config.PlanHandler.Get)

	auth := api.Group("/auth")
	{
		auth.POST("/register", config.AuthHandler.Register)
		auth.POST("/login", config.AuthHandler.Login, config.LoginLimiter.Middleware())
		auth.POST("/logout", config.AuthHandler.Logout)
	}

	authenticated := middleware.Authenticate(config.Tokens, config.Users)

	me := api.Group("/me", authenticated)
	{
		me.GET("", config.UserHandler.GetMe)
		me.PUT("/password", config.UserHandler.ChangePassword)
		me.GET("/subscription", config.UserHandler.GetSubscription)
		me.DELETE("/subscription", config.UserHandler.CancelSubscription)
		me.GET("/purchases", config.UserHandler.GetPurchases)
	}
	api.POST("/purchases", config.UserHandler.Purchase, authenticated)

	signals := api.Group("/signals", authenticated, middleware.RequireActiveSubscription(config.Subscriptions))
	{
		signals.GET("", config.SignalHandler.List)
		signals.GET("/stream", config.SignalHandler.Stream)
		signals.GET("/:id", config.SignalHandler.Get)
	}

	admin := api.Group("/admin", authenticated, middleware.RequireAdmin())
	{
		admin.GET("/dashboard", config.AdminHandler.GetDashboard)

		admin.GET("/users", config.AdminHandler.ListUsers)
		admin.PUT("/users/:id/role", config.AdminHandler.SetUserRole)

		admin.GET("/purchases", config.AdminHandler.ListPurchases)
		admin.POST("/purchases/:id/refund", config.AdminHandler.RefundPurchase)

		admin.GET("/plans", config.PlanHandler.ListAll)
		admin.PUT("/plans", config.PlanHandler.Upsert)
		admin.PUT("/plans/:tier/active", config.PlanHandler.SetActive)

		admin.GET("/signals", config.SignalHandler.AdminList)
		admin.POST("/signals", config.SignalHandler.Create)
		admin.PUT("/signals/:id", config.SignalHandler.Update)
		admin.POST("/signals/:id/close", config.SignalHandler.Close)
		admin.POST("/signals/:id/cancel", config.SignalHandler.Cancel)
		admin.DELETE("/signals/:id", config.SignalHandler.Delete)

		admin.GET("/notifications", config.AdminHandler.ListNotifications)
		admin.GET("/notifications/unread-count", config.AdminHandler.UnreadCount)
		admin.GET("/notifications/stream", config.AdminHandler.NotificationStream)
		admin.POST("/notifications/read-all", config.AdminHandler.MarkAllNotificationsRead)
		admin.POST("/notifications/:id/read", config.AdminHandler.MarkNotificationRead)
	}

	cs := api.Group("/cs", authenticated, middleware.RequireCustomerService())
	{
		cs.GET("/users", config.CustomerServiceHandler.SearchUsers)
		cs.GET("/users/:id", config.CustomerServiceHandler.GetUser)
		cs.POST("/users/:id/subscription/extend", config.CustomerServiceHandler.ExtendSubscription)
	}
}
