package handler

import (
	"private-checkout-gateway/internal/adapter/http/middleware"
	redisStore "private-checkout-gateway/internal/adapter/storage/redis"
	"private-checkout-gateway/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	CheckoutSvc    ports.CheckoutService
	WalletSvc      ports.WalletService
	TokenSvc       ports.TokenService
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
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep, verifies PostgreSQL + Redis)
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

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	// --- Checkout routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	checkoutHandler := NewCheckoutHandler(deps.CheckoutSvc)

	checkouts := v1.Group("/checkouts")
	{
		// Merchant-facing
		checkouts.POST("", jwtAuth, rl("checkouts"), checkoutHandler.Create)
		checkouts.GET("", jwtAuth, rl("checkouts"), checkoutHandler.List)

		// Buyer-facing: the payment surface is public, the challenge is
		// the gate.
		checkouts.GET("/:id", rl("public"), checkoutHandler.Get)
		checkouts.POST("/:id/pay", rl("settlement"), checkoutHandler.PayDirect)
		checkouts.POST("/:id/shield", rl("settlement"), checkoutHandler.Shield)
		checkouts.POST("/:id/settle", rl("settlement"), checkoutHandler.Settle)
	}

	// --- Merchant wallet ---
	walletHandler := NewWalletHandler(deps.WalletSvc)
	wallets := v1.Group("/wallets", jwtAuth)
	{
		wallets.GET("/me", rl("checkouts"), walletHandler.GetOwn)
	}

	return r
}
