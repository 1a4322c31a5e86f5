package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/tokenscope/internal/analysis"
	"github.com/irfndi/tokenscope/internal/api/handlers"
)

// SetupRoutes registers the health and analysis endpoints. The analysis
// endpoint is also served under its legacy path.
func SetupRoutes(router *gin.Engine, analyzer analysis.Analyzer, health *handlers.HealthHandler, logger logrus.FieldLogger) {
	analysisHandler := handlers.NewAnalysisHandler(analyzer, logger)

	// Health check endpoints
	router.GET("/health", health.HealthCheck)
	router.HEAD("/health", health.HealthCheck)
	router.GET("/live", health.LivenessCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/analysis", analysisHandler.Analyze)
	}

	// Legacy widget path
	router.POST("/api/ai-analysis", analysisHandler.Analyze)
}
