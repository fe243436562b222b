package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sells-group/planpilot/internal/model"
	"github.com/sells-group/planpilot/internal/monitoring"
)

// DefaultPrefix namespaces analysis keys in Redis.
const DefaultPrefix = "planpilot:analysis:"

// Redis is a Store shared between replicas. Entries expire server-side via
// SET EX. Redis errors are logged and treated as misses.
type Redis struct {
	client  redis.Cmdable
	ttl     time.Duration
	prefix  string
	metrics *monitoring.Metrics
}

// NewRedis creates a Redis-backed Store.
func NewRedis(client redis.Cmdable, ttl time.Duration, prefix string, metrics *monitoring.Metrics) *Redis {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Redis{client: client, ttl: ttl, prefix: prefix, metrics: metrics}
}

func (r *Redis) key(postcode string) string {
	return r.prefix + Key(postcode)
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, postcode string) (*model.AnalysisResult, bool) {
	data, err := r.client.Get(ctx, r.key(postcode)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zap.L().Warn("cache: redis get failed", zap.String("postcode", postcode), zap.Error(err))
		}
		r.metrics.CacheLookup("redis", false)
		return nil, false
	}

	var result model.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		zap.L().Warn("cache: discarding undecodable entry", zap.String("postcode", postcode), zap.Error(err))
		r.metrics.CacheLookup("redis", false)
		return nil, false
	}

	r.metrics.CacheLookup("redis", true)
	return &result, true
}

// Put implements Store.
func (r *Redis) Put(ctx context.Context, postcode string, result *model.AnalysisResult) {
	if result == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		zap.L().Warn("cache: encode result", zap.String("postcode", postcode), zap.Error(err))
		return
	}
	if err := r.client.Set(ctx, r.key(postcode), string(data), r.ttl).Err(); err != nil {
		zap.L().Warn("cache: redis set failed", zap.String("postcode", postcode), zap.Error(err))
	}
}
