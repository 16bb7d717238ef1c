package routes

import (
	"time"

	"github.com/freightlink/backend/internal/config"
	"github.com/freightlink/backend/internal/handlers"
	"github.com/freightlink/backend/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups every HTTP handler the router serves
type Handlers struct {
	Loyalty  *handlers.LoyaltyHandler
	Referral *handlers.ReferralHandler
	Admin    *handlers.AdminHandler
	Events   *handlers.EventsHandler
	Health   *handlers.HealthHandler
}

// Limiters holds the rate limiters applied to the API
type Limiters struct {
	IP   *middleware.RateLimiter
	User *middleware.RateLimiter
}

// NewLimiters builds rate limiters from security configuration
func NewLimiters(cfg config.SecurityConfig) Limiters {
	idle := time.Duration(cfg.RateLimitCleanupMin) * time.Minute
	return Limiters{
		IP:   middleware.NewRateLimiter(cfg.IPRateLimit, cfg.IPRateBurst, idle),
		User: middleware.NewRateLimiter(cfg.UserRateLimit, cfg.UserRateBurst, idle),
	}
}

// Stop stops the limiters' cleanup goroutines
func (l Limiters) Stop() {
	l.IP.Stop()
	l.User.Stop()
}

// SetupRouter builds the gin engine with every route registered
func SetupRouter(cfg *config.Config, h Handlers, limiters Limiters) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(cors.New(corsConfig(cfg)))

	router.GET("/health", h.Health.Check)

	api := router.Group("/api")
	api.Use(limiters.IP.IPRateLimiterMiddleware(), middleware.AuthMiddleware(cfg.JWT))

	RegisterLoyaltyRoutes(api, h.Loyalty, limiters.User)
	RegisterReferralRoutes(api, h.Referral, limiters.User)
	RegisterAdminRoutes(api, h.Admin, h.Events)

	return router
}

// RegisterLoyaltyRoutes registers point balance and movement routes
func RegisterLoyaltyRoutes(api *gin.RouterGroup, h *handlers.LoyaltyHandler, limiter *middleware.RateLimiter) {
	loyalty := api.Group("/loyalty")
	{
		loyalty.GET("/balance", h.GetBalance)
		loyalty.GET("/history", h.GetHistory)
		loyalty.GET("/wallet/transactions", h.GetWalletTransactions)
		loyalty.POST("/convert", limiter.UserRateLimiterMiddleware(), h.Convert)
		loyalty.POST("/transfer", limiter.UserRateLimiterMiddleware(), h.Transfer)
	}
}

// RegisterReferralRoutes registers referral routes
func RegisterReferralRoutes(api *gin.RouterGroup, h *handlers.ReferralHandler, limiter *middleware.RateLimiter) {
	referrals := api.Group("/referrals")
	{
		referrals.GET("", h.List)
		referrals.POST("", limiter.UserRateLimiterMiddleware(), h.Register)
		referrals.GET("/code", h.GetCode)
	}
}

// RegisterAdminRoutes registers admin-only routes and internal event intake
func RegisterAdminRoutes(api *gin.RouterGroup, h *handlers.AdminHandler, events *handlers.EventsHandler) {
	admin := api.Group("/admin")
	admin.Use(middleware.AdminMiddleware())
	{
		admin.POST("/loyalty/adjust", h.AdjustPoints)
		admin.GET("/loyalty/verify/:user_id", h.VerifyBalance)
		admin.GET("/settings", h.GetSettings)
		admin.PUT("/settings", h.UpdateSetting)
		admin.GET("/audit", h.ListAuditLogs)
		admin.GET("/queues/:queue", events.QueueStats)
	}

	internal := api.Group("/internal")
	internal.Use(middleware.AdminMiddleware())
	{
		internal.POST("/events/shipment-delivered", events.ShipmentDelivered)
	}
}

func corsConfig(cfg *config.Config) cors.Config {
	origins := cfg.Security.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{cfg.FrontendURL}
	}
	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}
