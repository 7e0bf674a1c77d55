package handler

import (
	"checkout-session-engine/internal/adapter/http/middleware"
	redisStore "checkout-session-engine/internal/adapter/storage/redis"
	"checkout-session-engine/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	CheckoutSvc    ports.CheckoutService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestContext())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	v1 := r.Group("/api/v1")

	checkoutHandler := NewCheckoutHandler(deps.CheckoutSvc)
	sessions := v1.Group("/checkout_sessions")
	{
		sessions.POST("", rl("sessions_create"), checkoutHandler.Create)
		sessions.GET("/:id", rl("sessions_read"), checkoutHandler.Get)
		sessions.POST("/:id", rl("sessions_write"), checkoutHandler.Update)
		sessions.POST("/:id/complete", rl("sessions_write"), checkoutHandler.Complete)
		sessions.POST("/:id/cancel", rl("sessions_write"), checkoutHandler.Cancel)
	}

	return r
}
