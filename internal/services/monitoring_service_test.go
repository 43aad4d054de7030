package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"coal-stock-service/internal/cache"
	"coal-stock-service/internal/config"
	"coal-stock-service/internal/models"
	"coal-stock-service/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestMonitoringService_RecordRequest(t *testing.T) {
	logger := zaptest.NewLogger(t)
	svc := NewMonitoringService(logger, &config.Config{Server: config.ServerConfig{GinMode: "debug"}}, nil, nil, nil, nil)
	now := time.Now()

	for i := 0; i < 3; i++ {
		svc.RecordRequest(models.RequestData{
			Endpoint:   "/api/v1/stock",
			Method:     http.MethodGet,
			Duration:   10 * time.Millisecond,
			StatusCode: http.StatusOK,
			Timestamp:  now,
		})
	}
	svc.RecordRequest(models.RequestData{
		Endpoint:   "/api/v1/bargings",
		Method:     http.MethodPost,
		Duration:   1500 * time.Millisecond,
		StatusCode: http.StatusConflict,
		Timestamp:  now,
	})

	metrics := svc.GetMetrics(context.Background())

	assert.Equal(t, 4, metrics.Requests.TotalRequests)
	assert.Equal(t, 3, metrics.Requests.ByEndpoint["GET /api/v1/stock"].Count)
	require.Len(t, metrics.Requests.TopEndpoints, 2)
	assert.Equal(t, "GET /api/v1/stock", metrics.Requests.TopEndpoints[0].Endpoint)

	require.Len(t, metrics.Requests.SlowRequests, 1)
	assert.Equal(t, "POST /api/v1/bargings", metrics.Requests.SlowRequests[0].Endpoint)
	require.Len(t, metrics.Requests.Errors, 1)
	assert.Equal(t, http.StatusConflict, metrics.Requests.Errors[0].StatusCode)

	assert.Equal(t, int64(1500), metrics.Performance.MaxResponseTimeMs)
	assert.InDelta(t, 382.5, metrics.Performance.AvgResponseTimeMs, 0.001)

	assert.False(t, metrics.Cache.Enabled)
	assert.Nil(t, metrics.Redis)
	assert.Equal(t, "offline", metrics.Database.Status)
	assert.Equal(t, "development", metrics.System.Environment)
}

func TestMonitoringService_KeepsRecentSamplesOnly(t *testing.T) {
	svc := NewMonitoringService(zaptest.NewLogger(t), nil, nil, nil, nil, nil)

	for i := 0; i < maxKeptSamples+20; i++ {
		svc.RecordRequest(models.RequestData{
			Endpoint:   "/api/v1/adjustments",
			Method:     http.MethodPost,
			Duration:   time.Millisecond,
			StatusCode: http.StatusBadRequest,
			Timestamp:  time.Unix(int64(i), 0),
		})
	}

	metrics := svc.GetMetrics(context.Background())
	require.Len(t, metrics.Requests.Errors, maxKeptSamples)
	assert.Equal(t, time.Unix(20, 0), metrics.Requests.Errors[0].Timestamp)
	assert.Equal(t, "production", metrics.System.Environment)
}

func TestMonitoringService_DatabaseAndLedgerStats(t *testing.T) {
	f := newFixture(t)
	f.produce(t, "10")

	db := testutil.NewDB(t)
	svc := NewMonitoringService(zaptest.NewLogger(t), nil, nil, db, nil, f.ledger)

	metrics := svc.GetMetrics(context.Background())
	assert.Equal(t, "online", metrics.Database.Status)
	assert.Equal(t, "sqlite3", metrics.Database.Dialect)
	assert.Equal(t, 1, metrics.Database.MaxOpenConnections)
	assert.Equal(t, int64(1), metrics.Ledger.Operations)
	assert.Equal(t, int64(1), metrics.Ledger.Attempts)
}

func TestMonitoringService_CacheStats(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)
	stockCache := cache.NewStockCache(nil, 8, time.Minute, time.Minute, logger)
	svc := NewMonitoringService(logger, nil, nil, nil, stockCache, nil)

	stockCache.Set(ctx, &models.StockBalance{ContractorID: 1, JettyID: 2, Version: 1})
	stockCache.Get(ctx, 1, 2)
	stockCache.Get(ctx, 1, 3)

	metrics := svc.GetCacheStats()
	assert.True(t, metrics.Enabled)
	assert.False(t, metrics.RedisEnabled, "no redis client configured")
	assert.Equal(t, int64(1), metrics.TotalHits)
	assert.Equal(t, int64(1), metrics.TotalMisses)
	assert.Equal(t, "50.00%", metrics.HitRatePercentage)
}
