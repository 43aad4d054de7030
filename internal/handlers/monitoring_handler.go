package handlers

import (
	"net/http"
	"time"

	"coal-stock-service/internal/models"
	"coal-stock-service/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type MonitoringHandler struct {
	monitoringService services.MonitoringService
	logger            *zap.Logger
}

func NewMonitoringHandler(monitoringService services.MonitoringService, logger *zap.Logger) *MonitoringHandler {
	return &MonitoringHandler{
		monitoringService: monitoringService,
		logger:            logger,
	}
}

// GetMetrics returns the full metrics snapshot
func (h *MonitoringHandler) GetMetrics(c *gin.Context) {
	metrics := h.monitoringService.GetMetrics(c.Request.Context())

	h.logger.Debug("Metrics collected",
		zap.Int("total_requests", metrics.Requests.TotalRequests),
		zap.Float64("avg_response_time_ms", metrics.Performance.AvgResponseTimeMs),
		zap.Int64("version_conflicts", metrics.Ledger.VersionConflicts))

	c.JSON(http.StatusOK, metrics)
}

// GetMetricsSummary returns the headline numbers only
func (h *MonitoringHandler) GetMetricsSummary(c *gin.Context) {
	metrics := h.monitoringService.GetMetrics(c.Request.Context())

	summary := gin.H{
		"requests": gin.H{
			"total":         metrics.Requests.TotalRequests,
			"endpoints":     len(metrics.Requests.ByEndpoint),
			"errors":        metrics.Requests.ErrorsCount,
			"slow_requests": metrics.Requests.SlowRequestsCount,
		},
		"performance": gin.H{
			"avg_response_time_ms": metrics.Performance.AvgResponseTimeMs,
			"max_response_time_ms": metrics.Performance.MaxResponseTimeMs,
		},
		"ledger": gin.H{
			"operations":        metrics.Ledger.Operations,
			"version_conflicts": metrics.Ledger.VersionConflicts,
			"exhausted_retries": metrics.Ledger.ExhaustedRetries,
		},
		"cache": gin.H{
			"enabled":       metrics.Cache.Enabled,
			"redis_enabled": metrics.Cache.RedisEnabled,
			"hit_rate":      metrics.Cache.HitRatePercentage,
		},
		"database": gin.H{
			"status":           metrics.Database.Status,
			"open_connections": metrics.Database.OpenConnections,
		},
		"system": gin.H{
			"heap_used":  metrics.System.HeapUsed,
			"goroutines": metrics.System.Goroutines,
			"uptime":     metrics.System.UptimeHours,
		},
		"timestamp": metrics.Timestamp,
	}
	if metrics.Redis != nil {
		summary["redis"] = gin.H{
			"connected": metrics.Redis.Connected,
			"keys":      metrics.Redis.Keys,
			"status":    metrics.Redis.Status,
		}
	}

	c.JSON(http.StatusOK, summary)
}

// RecordRequestMiddleware feeds every API request into the metrics
func (h *MonitoringHandler) RecordRequestMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		if h.shouldSkipMonitoring(path) {
			return
		}

		h.monitoringService.RecordRequest(models.RequestData{
			Endpoint:   path,
			Method:     c.Request.Method,
			Duration:   time.Since(start),
			StatusCode: c.Writer.Status(),
			Timestamp:  time.Now(),
		})
	}
}

// shouldSkipMonitoring excludes the monitoring and health endpoints
func (h *MonitoringHandler) shouldSkipMonitoring(path string) bool {
	excludedPaths := []string{
		"/api/v1/monitoring/metrics",
		"/api/v1/monitoring/metrics/summary",
		"/health",
		"/",
	}

	for _, excludedPath := range excludedPaths {
		if path == excludedPath {
			return true
		}
	}

	return false
}
