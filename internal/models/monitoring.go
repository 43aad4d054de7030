package models

import "time"

// MonitoringResponse full snapshot served by the monitoring endpoint
type MonitoringResponse struct {
	Requests    RequestMetrics     `json:"requests"`
	Performance PerformanceMetrics `json:"performance"`
	Ledger      LedgerMetrics      `json:"ledger"`
	Cache       CacheMetrics       `json:"cache"`
	Database    DatabaseMetrics    `json:"database"`
	Redis       *RedisMetrics      `json:"redis,omitempty"`
	System      SystemMetrics      `json:"system"`
	Timestamp   string             `json:"timestamp"`
	Version     string             `json:"version"`
}

// RequestMetrics request metrics
type RequestMetrics struct {
	TotalRequests     int                        `json:"total_requests"`
	ByEndpoint        map[string]EndpointMetrics `json:"by_endpoint"`
	SlowRequests      []SlowRequest              `json:"slow_requests"`
	Errors            []RequestError             `json:"errors"`
	SlowRequestsCount int                        `json:"slow_requests_count"`
	ErrorsCount       int                        `json:"errors_count"`
	TopEndpoints      []TopEndpoint              `json:"top_endpoints"`
}

// EndpointMetrics per-endpoint metrics
type EndpointMetrics struct {
	Count     int     `json:"count"`
	AvgTime   float64 `json:"avg_time_ms"`
	TotalTime int64   `json:"total_time_ms"`
}

type SlowRequest struct {
	Endpoint  string    `json:"endpoint"`
	Duration  int64     `json:"duration_ms"`
	Timestamp time.Time `json:"timestamp"`
}

type RequestError struct {
	Endpoint   string    `json:"endpoint"`
	StatusCode int       `json:"status_code"`
	Timestamp  time.Time `json:"timestamp"`
}

// TopEndpoint most used endpoints
type TopEndpoint struct {
	Endpoint  string `json:"endpoint"`
	Count     int    `json:"count"`
	AvgTimeMs string `json:"avg_time_ms"`
}

type PerformanceMetrics struct {
	AvgResponseTimeMs float64 `json:"avg_response_time_ms"`
	MaxResponseTimeMs int64   `json:"max_response_time_ms"`
}

// LedgerMetrics counters of the optimistic update protocol
type LedgerMetrics struct {
	Operations       int64 `json:"operations"`
	Attempts         int64 `json:"attempts"`
	VersionConflicts int64 `json:"version_conflicts"`
	CreateRaces      int64 `json:"create_races"`
	ExhaustedRetries int64 `json:"exhausted_retries"`
}

type CacheMetrics struct {
	Enabled           bool    `json:"enabled"`
	RedisEnabled      bool    `json:"redis_enabled"`
	HitRate           float64 `json:"hit_rate"`
	HitRatePercentage string  `json:"hit_rate_percentage"`
	TotalHits         int64   `json:"total_hits"`
	TotalMisses       int64   `json:"total_misses"`
	TotalRequests     int64   `json:"total_requests"`
}

type DatabaseMetrics struct {
	Dialect            string `json:"dialect"`
	Status             string `json:"status"`
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
}

type RedisMetrics struct {
	Connected bool   `json:"connected"`
	Keys      int    `json:"keys"`
	MemoryMB  string `json:"memory_mb"`
	Status    string `json:"status"`
}

type SystemMetrics struct {
	HeapUsed    string `json:"heap_used"`
	HeapTotal   string `json:"heap_total"`
	Goroutines  int    `json:"goroutines"`
	UptimeHours string `json:"uptime_hours"`
	GoVersion   string `json:"go_version"`
	Platform    string `json:"platform"`
	Environment string `json:"environment"`
}

// RequestData single request sample
type RequestData struct {
	Endpoint   string
	Method     string
	Duration   time.Duration
	StatusCode int
	Timestamp  time.Time
}
