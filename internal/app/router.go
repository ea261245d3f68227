package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/auth"
	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/handler"
	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	ReconciliationHandler *handler.ReconciliationHandler
	JWTService            *auth.JWTService
	RedisClient           redis.Cmdable // nil disables idempotency
	NewRelicApp           *newrelic.Application
	Logger                zerolog.Logger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Admin routes.
	admin := router.Group("/v1/admin")
	admin.Use(middleware.AdminAuthMiddleware(deps.JWTService, deps.Logger))
	admin.Use(middleware.NewRelicAttributesMiddleware())
	admin.Use(middleware.IdempotencyMiddleware(deps.RedisClient))
	{
		h := deps.ReconciliationHandler

		drivers := admin.Group("/drivers")
		{
			drivers.GET("/:id/reconciliation", h.GetDriverReconciliation)
			drivers.POST("/:id/reconciliation", h.ReconcileDriver)
		}

		runs := admin.Group("/reconciliations")
		{
			runs.POST("", h.Run)
			runs.GET("/last", h.GetLastRun)
		}
	}

	return router
}
