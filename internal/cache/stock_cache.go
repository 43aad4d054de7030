package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"coal-stock-service/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

// CacheStats cache counters
type CacheStats struct {
	Hits          int64
	Misses        int64
	TotalRequests int64
	TotalKeys     int
}

// HitRate returns hits over total lookups, 0 when nothing was looked up.
func (s CacheStats) HitRate() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.TotalRequests)
}

// StockCache is a two-level read cache of stock balances.
//
// L1 is a small in-process LRU with a short TTL; L2 is Redis, shared by all
// instances. Only read endpoints read from it. Ledger mutations always read
// the database and write the committed row through after commit. Neither
// level ever replaces an entry with one of a lower version.
type StockCache struct {
	// L1 Cache: local memory
	l1   *expirable.LRU[string, models.StockBalance]
	l1Mu sync.Mutex

	// L2 Cache: Redis, optional
	redisClient *redis.Client
	ttl         time.Duration

	logger *zap.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// NewStockCache creates the cache. redisClient may be nil, in which case only
// the in-process level is used.
func NewStockCache(redisClient *redis.Client, maxL1Size int, l1TTL, ttl time.Duration, logger *zap.Logger) *StockCache {
	if maxL1Size <= 0 {
		maxL1Size = 1024
	}
	return &StockCache{
		l1:          expirable.NewLRU[string, models.StockBalance](maxL1Size, nil, l1TTL),
		redisClient: redisClient,
		ttl:         ttl,
		logger:      logger,
	}
}

// setIfNewer writes KEYS[1] unless the cached balance carries a higher
// version than ARGV[2]. ARGV[3] is the TTL in milliseconds, 0 for none.
var setIfNewer = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current then
  local ok, cached = pcall(cjson.decode, current)
  if ok and type(cached) == 'table' and tonumber(cached.version) and tonumber(cached.version) > tonumber(ARGV[2]) then
    return 0
  end
end
if tonumber(ARGV[3]) > 0 then
  redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
else
  redis.call('SET', KEYS[1], ARGV[1])
end
return 1
`)

func stockKey(contractorID, jettyID int64) string {
	return fmt.Sprintf("stock:%d:%d", contractorID, jettyID)
}

// Get looks a balance up in L1, then L2. An L2 hit is copied into L1.
func (sc *StockCache) Get(ctx context.Context, contractorID, jettyID int64) (*models.StockBalance, bool) {
	start := time.Now()
	key := stockKey(contractorID, jettyID)

	if stock, ok := sc.l1.Get(key); ok {
		sc.hits.Add(1)
		sc.logger.Debug("L1 cache hit", zap.String("key", key), zap.Duration("latency", time.Since(start)))
		return &stock, true
	}

	if sc.redisClient != nil {
		stock, err := sc.getFromL2(ctx, key)
		if err == nil {
			sc.storeL1(key, stock)
			sc.hits.Add(1)
			sc.logger.Debug("L2 cache hit", zap.String("key", key), zap.Duration("latency", time.Since(start)))
			return stock, true
		}
		if !errors.Is(err, redis.Nil) {
			sc.logger.Warn("⚠️ Redis read failed", zap.String("key", key), zap.Error(err))
		}
	}

	sc.misses.Add(1)
	sc.logger.Debug("Cache miss", zap.String("key", key), zap.Duration("latency", time.Since(start)))
	return nil, false
}

// Set stores a balance in both levels unless a level already holds a higher
// version of it. Redis failures are logged only.
func (sc *StockCache) Set(ctx context.Context, stock *models.StockBalance) {
	if stock == nil {
		return
	}
	key := stockKey(stock.ContractorID, stock.JettyID)
	if !sc.storeL1(key, stock) {
		sc.logger.Debug("Stale stock not cached",
			zap.String("key", key),
			zap.Int64("version", stock.Version))
	}

	if sc.redisClient == nil {
		return
	}
	data, err := json.Marshal(stock)
	if err != nil {
		sc.logger.Warn("⚠️ Failed to encode stock for cache", zap.String("key", key), zap.Error(err))
		return
	}
	err = setIfNewer.Run(ctx, sc.redisClient, []string{key}, data, stock.Version, sc.ttl.Milliseconds()).Err()
	if err != nil {
		sc.logger.Warn("⚠️ Redis write failed", zap.String("key", key), zap.Error(err))
	}
}

// storeL1 adds the balance to L1 and reports false when a newer version was
// already there.
func (sc *StockCache) storeL1(key string, stock *models.StockBalance) bool {
	sc.l1Mu.Lock()
	defer sc.l1Mu.Unlock()

	if cached, ok := sc.l1.Peek(key); ok && cached.Version > stock.Version {
		return false
	}
	sc.l1.Add(key, *stock)
	return true
}

func (sc *StockCache) getFromL2(ctx context.Context, key string) (*models.StockBalance, error) {
	data, err := sc.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}

	var stock models.StockBalance
	if err := json.Unmarshal(data, &stock); err != nil {
		return nil, fmt.Errorf("failed to decode cached stock: %w", err)
	}
	return &stock, nil
}

// RedisEnabled reports whether the shared level is configured.
func (sc *StockCache) RedisEnabled() bool {
	return sc.redisClient != nil
}

// GetStats returns the cache counters.
func (sc *StockCache) GetStats() CacheStats {
	hits, misses := sc.hits.Load(), sc.misses.Load()
	return CacheStats{
		Hits:          hits,
		Misses:        misses,
		TotalRequests: hits + misses,
		TotalKeys:     sc.l1.Len(),
	}
}
