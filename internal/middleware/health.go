package middleware

import (
	"context"
	"net/http"
	"time"

	"coal-stock-service/internal/database"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type HealthChecker struct {
	sqlDB   *database.SQLDB
	redisDB *database.RedisDB
	logger  *zap.Logger
}

// NewHealthChecker creates the health endpoint. redisDB may be nil when the
// cache is disabled.
func NewHealthChecker(sqlDB *database.SQLDB, redisDB *database.RedisDB, logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		sqlDB:   sqlDB,
		redisDB: redisDB,
		logger:  logger,
	}
}

func (h *HealthChecker) HealthCheck(c *gin.Context) {
	services := make(map[string]interface{})
	status := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services":  services,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := h.sqlDB.Ping(ctx); err != nil {
		dbStatus = "unhealthy"
		status["status"] = "unhealthy"
		h.logger.Error("Database health check failed", zap.Error(err))
	}

	dbStats := h.sqlDB.GetStats()
	services["database"] = gin.H{
		"status":  dbStatus,
		"dialect": string(h.sqlDB.Dialect),
		"stats": gin.H{
			"max_open_connections": dbStats.MaxOpenConnections,
			"open_connections":     dbStats.OpenConnections,
			"in_use":               dbStats.InUse,
			"idle":                 dbStats.Idle,
		},
	}

	// The cache is optional: a Redis outage degrades reads, it never makes
	// the ledger unhealthy.
	if h.redisDB == nil {
		services["redis"] = gin.H{"status": "disabled"}
	} else {
		redisStatus := "healthy"
		if err := h.redisDB.Ping(ctx); err != nil {
			redisStatus = "unhealthy"
			if status["status"] == "healthy" {
				status["status"] = "degraded"
			}
			h.logger.Warn("Redis health check failed", zap.Error(err))
		}

		redisStats, err := h.redisDB.GetStats(ctx)
		if err != nil {
			redisStats = "unavailable"
		}
		services["redis"] = gin.H{
			"status": redisStatus,
			"stats":  redisStats,
		}
	}

	httpStatus := http.StatusOK
	if status["status"] == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, status)
}
