package routes

import (
	"net/http"

	"coal-stock-service/internal/handlers"
	"coal-stock-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRoutes registers every route of the service
func SetupRoutes(
	router *gin.Engine,
	stockHandler *handlers.StockHandler,
	adjustmentHandler *handlers.AdjustmentHandler,
	monitoringHandler *handlers.MonitoringHandler,
	healthChecker *middleware.HealthChecker,
) {
	v1 := router.Group("/api/v1")
	v1.Use(middleware.ActorMiddleware())
	{
		// Coal in
		production := v1.Group("/production")
		{
			production.POST("", stockHandler.RecordProduction)
			production.GET("", stockHandler.ListProductions)
		}

		// Coal out
		barging := v1.Group("/barging")
		{
			barging.POST("", stockHandler.RecordBarging)
			barging.GET("", stockHandler.ListBargings)
		}

		stock := v1.Group("/stock")
		{
			stock.GET("", stockHandler.ListStock)
			stock.GET("/contractors/:contractor_id/jetties/:jetty_id", stockHandler.GetStock)

			adjustments := stock.Group("/adjustments")
			{
				adjustments.POST("", adjustmentHandler.CreateAdjustment)
				adjustments.GET("", adjustmentHandler.ListAdjustments)
				adjustments.GET("/:id", adjustmentHandler.GetAdjustment)
				adjustments.POST("/:id/approve", adjustmentHandler.ApproveAdjustment)
			}
		}

		v1.GET("/adjustment-reasons", adjustmentHandler.AdjustmentReasons)

		monitoring := v1.Group("/monitoring")
		{
			monitoring.GET("/metrics", monitoringHandler.GetMetrics)
			monitoring.GET("/metrics/summary", monitoringHandler.GetMetricsSummary)
		}
	}

	router.GET("/health", healthChecker.HealthCheck)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Coal Stock Service API",
			"version": "1.0.0",
			"status":  "running",
			"endpoints": gin.H{
				"health": "/health",
				"api":    "/api/v1",
				"movements": gin.H{
					"record_production": "POST /api/v1/production",
					"list_production":   "GET /api/v1/production",
					"record_barging":    "POST /api/v1/barging",
					"list_barging":      "GET /api/v1/barging",
				},
				"stock": gin.H{
					"list":               "GET /api/v1/stock",
					"get":                "GET /api/v1/stock/contractors/:contractor_id/jetties/:jetty_id",
					"adjust":             "POST /api/v1/stock/adjustments",
					"list_adjustments":   "GET /api/v1/stock/adjustments",
					"approve_adjustment": "POST /api/v1/stock/adjustments/:id/approve",
				},
				"monitoring": "GET /api/v1/monitoring/metrics",
			},
		})
	})
}
