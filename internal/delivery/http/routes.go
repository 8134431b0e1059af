package http

import (
	"github.com/gin-gonic/gin"

	"github.com/cuidaelmango/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP, cfg.RateLimit.Burst))

	router.GET("/", handler.Root)
	router.GET("/health", handler.HealthCheck)

	router.GET("/productos/buscar", handler.SearchProducts)
	router.POST("/comparar-inteligente", handler.CompareSmart)
	router.POST("/equivalencias", handler.CreateEquivalence)
	router.GET("/equivalencias/:producto_id", handler.GetEquivalence)

	return router
}
