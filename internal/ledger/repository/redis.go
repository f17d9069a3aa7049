package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/cache"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/logger"
)

// RedisCache stores single stock records as JSON under stock:{key}. Next to
// each entry sits stock:{key}:floor, the lowest record version the cache
// still accepts for that key.
type RedisCache struct {
	client *cache.RedisClient
	ttl    time.Duration
	logger logger.ZapLogger
}

func NewRedisCache(client *cache.RedisClient, ttl time.Duration, log logger.ZapLogger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, logger: log}
}

// The hash tag keeps an entry and its floor in one cluster slot.
func cacheKeys(key model.StockKey) []string {
	base := "stock:{" + key.String() + "}"
	return []string{base, base + ":floor"}
}

// setScript writes the entry unless its version is below the floor, then
// raises the floor to that version.
var setScript = redis.NewScript(`
local floor = tonumber(redis.call("GET", KEYS[2]) or "-1")
local version = tonumber(ARGV[2])
if version < floor then
	return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
return 1
`)

// invalidateScript drops the entry and raises the floor to the committed
// version. The floor never moves down.
var invalidateScript = redis.NewScript(`
redis.call("DEL", KEYS[1])
local floor = tonumber(redis.call("GET", KEYS[2]) or "-1")
if tonumber(ARGV[1]) > floor then
	redis.call("SET", KEYS[2], ARGV[1], "PX", ARGV[2])
else
	redis.call("PEXPIRE", KEYS[2], ARGV[2])
end
return 1
`)

func (c *RedisCache) Get(ctx context.Context, key model.StockKey) (*model.InventoryRecord, bool) {
	keys := cacheKeys(key)
	val, err := c.client.Client.Get(ctx, keys[0]).Result()
	if err != nil {
		return nil, false
	}
	var rec model.InventoryRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		c.logger.Warn("drop corrupt stock cache entry", zap.String("key", key.String()), zap.Error(err))
		c.client.Client.Del(ctx, keys[0])
		return nil, false
	}
	return &rec, true
}

func (c *RedisCache) Set(ctx context.Context, rec *model.InventoryRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	stored, err := setScript.Run(ctx, c.client.Client, cacheKeys(rec.StockKey), data, rec.Version, c.ttl.Milliseconds()).Int()
	if err != nil {
		c.logger.Warn("failed to cache stock", zap.String("key", rec.StockKey.String()), zap.Error(err))
		return
	}
	if stored == 0 {
		c.logger.Debug("skip caching outdated stock record",
			zap.String("key", rec.StockKey.String()),
			zap.Int64("version", rec.Version),
		)
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, key model.StockKey, version int64) {
	if err := invalidateScript.Run(ctx, c.client.Client, cacheKeys(key), version, c.ttl.Milliseconds()).Err(); err != nil {
		c.logger.Warn("failed to invalidate stock cache", zap.String("key", key.String()), zap.Error(err))
	}
}

// NopCache never hits.
type NopCache struct{}

func (NopCache) Get(context.Context, model.StockKey) (*model.InventoryRecord, bool) {
	return nil, false
}
func (NopCache) Set(context.Context, *model.InventoryRecord)       {}
func (NopCache) Invalidate(context.Context, model.StockKey, int64) {}
