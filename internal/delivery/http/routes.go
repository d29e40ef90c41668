package http

import (
	"github.com/gin-gonic/gin"

	"github.com/pricepilot/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		analysis := v1.Group("/analysis")
		{
			analysis.POST("/run", handler.RunAnalysis)
			analysis.GET("/:sessionID/decisions", handler.GetDecisions)
			analysis.GET("/:sessionID/summary", handler.GetSummary)
		}
	}

	return router
}
