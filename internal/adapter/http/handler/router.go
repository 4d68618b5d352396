package handler

import (
	"bank-ledger/internal/adapter/http/middleware"
	redisStore "bank-ledger/internal/adapter/storage/redis"
	"bank-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AccountSvc     ports.AccountService
	TransferSvc    ports.TransferService
	LedgerSvc      ports.LedgerService
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

	// --- Public routes ---
	accountHandler := NewAccountHandler(deps.AccountSvc)
	accounts := v1.Group("/accounts")
	{
		accounts.POST("", rl("accounts_open"), accountHandler.Open)
	}

	// --- Actor-scoped routes ---
	actor := middleware.ActorIdentity()
	transferHandler := NewTransferHandler(deps.TransferSvc)
	ledgerHandler := NewLedgerHandler(deps.LedgerSvc)

	accounts.GET("/me/balance", actor, rl("ledger"), accountHandler.GetBalance)

	transfers := v1.Group("/transfers", actor)
	{
		transfers.POST("", rl("transfers"), transferHandler.Execute)
	}

	ledger := v1.Group("/ledger", actor)
	{
		ledger.GET("/recent", rl("ledger"), ledgerHandler.Recent)
		ledger.GET("/history", rl("ledger"), ledgerHandler.History)
	}

	return r
}
