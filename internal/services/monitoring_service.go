package services

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"coal-stock-service/internal/cache"
	"coal-stock-service/internal/config"
	"coal-stock-service/internal/database"
	"coal-stock-service/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	slowRequestThreshold = time.Second
	maxKeptSamples       = 100
	maxTopEndpoints      = 10
	serviceVersion       = "1.0"
)

type MonitoringService interface {
	GetMetrics(ctx context.Context) *models.MonitoringResponse
	RecordRequest(data models.RequestData)
	GetCacheStats() models.CacheMetrics
	GetDatabaseStats(ctx context.Context) models.DatabaseMetrics
	GetSystemStats() models.SystemMetrics
	GetRedisStats(ctx context.Context) *models.RedisMetrics
}

type monitoringService struct {
	logger      *zap.Logger
	config      *config.Config
	redisClient *redis.Client
	db          *database.SQLDB
	stockCache  *cache.StockCache
	ledger      *StockLedger

	// Request metrics
	requestsMutex sync.RWMutex
	requests      map[string]*models.EndpointMetrics
	slowRequests  []models.SlowRequest
	errors        []models.RequestError
	totalRequests int64
	maxDuration   int64

	startTime time.Time
}

// NewMonitoringService creates the metrics collector. redisClient and
// stockCache may be nil when Redis is disabled.
func NewMonitoringService(
	logger *zap.Logger,
	config *config.Config,
	redisClient *redis.Client,
	db *database.SQLDB,
	stockCache *cache.StockCache,
	ledger *StockLedger,
) MonitoringService {
	return &monitoringService{
		logger:      logger,
		config:      config,
		redisClient: redisClient,
		db:          db,
		stockCache:  stockCache,
		ledger:      ledger,
		requests:    make(map[string]*models.EndpointMetrics),
		startTime:   time.Now(),
	}
}

func (s *monitoringService) RecordRequest(data models.RequestData) {
	s.requestsMutex.Lock()
	defer s.requestsMutex.Unlock()

	endpointKey := fmt.Sprintf("%s %s", data.Method, data.Endpoint)

	metrics, exists := s.requests[endpointKey]
	if !exists {
		metrics = &models.EndpointMetrics{}
		s.requests[endpointKey] = metrics
	}

	metrics.Count++
	durationMs := data.Duration.Milliseconds()
	metrics.TotalTime += durationMs
	metrics.AvgTime = float64(metrics.TotalTime) / float64(metrics.Count)

	s.totalRequests++
	if durationMs > s.maxDuration {
		s.maxDuration = durationMs
	}

	if data.Duration > slowRequestThreshold {
		s.slowRequests = appendBounded(s.slowRequests, models.SlowRequest{
			Endpoint:  endpointKey,
			Duration:  durationMs,
			Timestamp: data.Timestamp,
		})
	}

	if data.StatusCode >= 400 {
		s.errors = appendBounded(s.errors, models.RequestError{
			Endpoint:   endpointKey,
			StatusCode: data.StatusCode,
			Timestamp:  data.Timestamp,
		})
	}
}

// appendBounded keeps only the most recent maxKeptSamples items.
func appendBounded[T any](items []T, item T) []T {
	items = append(items, item)
	if len(items) > maxKeptSamples {
		items = items[len(items)-maxKeptSamples:]
	}
	return items
}

func (s *monitoringService) GetMetrics(ctx context.Context) *models.MonitoringResponse {
	s.requestsMutex.RLock()
	requestMetrics := s.calculateRequestMetrics()
	performanceMetrics := s.calculatePerformanceMetrics()
	s.requestsMutex.RUnlock()

	var ledgerMetrics models.LedgerMetrics
	if s.ledger != nil {
		ledgerMetrics = s.ledger.Stats()
	}

	return &models.MonitoringResponse{
		Requests:    requestMetrics,
		Performance: performanceMetrics,
		Ledger:      ledgerMetrics,
		Cache:       s.GetCacheStats(),
		Database:    s.GetDatabaseStats(ctx),
		Redis:       s.GetRedisStats(ctx),
		System:      s.GetSystemStats(),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Version:     serviceVersion,
	}
}

func (s *monitoringService) calculateRequestMetrics() models.RequestMetrics {
	type endpointEntry struct {
		key     string
		metrics *models.EndpointMetrics
	}

	endpoints := make([]endpointEntry, 0, len(s.requests))
	byEndpoint := make(map[string]models.EndpointMetrics, len(s.requests))
	for key, metrics := range s.requests {
		endpoints = append(endpoints, endpointEntry{key, metrics})
		byEndpoint[key] = *metrics
	}

	sort.Slice(endpoints, func(i, j int) bool {
		if endpoints[i].metrics.Count == endpoints[j].metrics.Count {
			return endpoints[i].key < endpoints[j].key
		}
		return endpoints[i].metrics.Count > endpoints[j].metrics.Count
	})

	var topEndpoints []models.TopEndpoint
	for i, endpoint := range endpoints {
		if i >= maxTopEndpoints {
			break
		}
		topEndpoints = append(topEndpoints, models.TopEndpoint{
			Endpoint:  endpoint.key,
			Count:     endpoint.metrics.Count,
			AvgTimeMs: fmt.Sprintf("%.2fms", endpoint.metrics.AvgTime),
		})
	}

	return models.RequestMetrics{
		TotalRequests:     int(s.totalRequests),
		ByEndpoint:        byEndpoint,
		SlowRequests:      append([]models.SlowRequest(nil), s.slowRequests...),
		Errors:            append([]models.RequestError(nil), s.errors...),
		SlowRequestsCount: len(s.slowRequests),
		ErrorsCount:       len(s.errors),
		TopEndpoints:      topEndpoints,
	}
}

func (s *monitoringService) calculatePerformanceMetrics() models.PerformanceMetrics {
	var totalTime int64
	var count int
	for _, metrics := range s.requests {
		totalTime += metrics.TotalTime
		count += metrics.Count
	}

	var avgTime float64
	if count > 0 {
		avgTime = float64(totalTime) / float64(count)
	}

	return models.PerformanceMetrics{
		AvgResponseTimeMs: avgTime,
		MaxResponseTimeMs: s.maxDuration,
	}
}

func (s *monitoringService) GetCacheStats() models.CacheMetrics {
	if s.stockCache == nil {
		return models.CacheMetrics{}
	}

	stats := s.stockCache.GetStats()
	hitRate := stats.HitRate()

	return models.CacheMetrics{
		Enabled:           true,
		RedisEnabled:      s.stockCache.RedisEnabled(),
		HitRate:           hitRate,
		HitRatePercentage: fmt.Sprintf("%.2f%%", hitRate*100),
		TotalHits:         stats.Hits,
		TotalMisses:       stats.Misses,
		TotalRequests:     stats.TotalRequests,
	}
}

func (s *monitoringService) GetDatabaseStats(ctx context.Context) models.DatabaseMetrics {
	if s.db == nil {
		return models.DatabaseMetrics{Status: "offline"}
	}

	status := "online"
	if err := s.db.Ping(ctx); err != nil {
		s.logger.Warn("⚠️ Database ping failed", zap.Error(err))
		status = "offline"
	}

	stats := s.db.GetStats()
	return models.DatabaseMetrics{
		Dialect:            string(s.db.Dialect),
		Status:             status,
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
	}
}

func (s *monitoringService) GetSystemStats() models.SystemMetrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptimeHours := time.Since(s.startTime).Hours()

	environment := "production"
	if s.config != nil && s.config.Server.GinMode == "debug" {
		environment = "development"
	}

	return models.SystemMetrics{
		HeapUsed:    fmt.Sprintf("%.2f MB", float64(m.HeapAlloc)/1024/1024),
		HeapTotal:   fmt.Sprintf("%.2f MB", float64(m.HeapSys)/1024/1024),
		Goroutines:  runtime.NumGoroutine(),
		UptimeHours: fmt.Sprintf("%.2fh", uptimeHours),
		GoVersion:   runtime.Version(),
		Platform:    runtime.GOOS,
		Environment: environment,
	}
}

// GetRedisStats returns nil when Redis is not configured.
func (s *monitoringService) GetRedisStats(ctx context.Context) *models.RedisMetrics {
	if s.redisClient == nil {
		return nil
	}

	metrics := &models.RedisMetrics{Status: "offline"}
	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		return metrics
	}
	metrics.Connected = true
	metrics.Status = "online"

	if keys, err := s.redisClient.DBSize(ctx).Result(); err == nil {
		metrics.Keys = int(keys)
	}

	if info, err := s.redisClient.Info(ctx, "memory").Result(); err == nil {
		for _, line := range strings.Split(info, "\n") {
			if !strings.HasPrefix(line, "used_memory:") {
				continue
			}
			value := strings.TrimSpace(strings.TrimPrefix(line, "used_memory:"))
			if memBytes, err := strconv.ParseInt(value, 10, 64); err == nil {
				metrics.MemoryMB = fmt.Sprintf("%.2f MB", float64(memBytes)/1024/1024)
			}
			break
		}
	}

	return metrics
}
