package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/platform/cache"
)

// Report TTL keeps admin dashboards fresh without rescanning every
// request.
const reportTTL = 5 * time.Minute

const cacheKeyPrefix = "analytics:"

// RedisReportCache stores computed reports in Redis. Cache errors are
// logged and treated as misses so reports stay available when the
// cache is down.
type RedisReportCache struct {
	cache   *cache.Cache
	timeout time.Duration
}

func NewRedisReportCache(c *cache.Cache) *RedisReportCache {
	return &RedisReportCache{cache: c, timeout: 3 * time.Second}
}

func (r *RedisReportCache) Get(key string, dest any) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	ok, err := r.cache.GetJSON(ctx, cacheKeyPrefix+key, dest)
	if err != nil {
		slog.Warn("report cache read failed", "report", key, "error", err)
		return false, err
	}
	return ok, nil
}

func (r *RedisReportCache) Set(key string, value any) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.cache.SetJSON(ctx, cacheKeyPrefix+key, value, reportTTL); err != nil {
		slog.Warn("report cache write failed", "report", key, "error", err)
		return err
	}
	return nil
}
