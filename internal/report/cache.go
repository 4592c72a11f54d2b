package report

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/Clark-Hu/cinerank/internal/metrics"
)

const (
	dashboardKey  = "cinerank:dashboard"
	generationKey = "cinerank:dashboard:generation"
)

// dashboardKeyFor names the dashboard entry computed under generation gen.
// Invalidate bumps the generation, so an entry written by a computation that
// started before the bump lands under a key no later reader looks up.
func dashboardKeyFor(gen int64) string {
	return dashboardKey + ":" + strconv.FormatInt(gen, 10)
}

// ErrCacheMiss is returned by Cache.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// Cache stores serialized rollups.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Incr atomically increments the integer at key, starting from zero.
	Incr(ctx context.Context, key string) (int64, error)
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]byte, error) { return nil, ErrCacheMiss }

func (NopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NopCache) Incr(context.Context, string) (int64, error) { return 0, nil }

// RedisCache is a Cache backed by Redis.
type RedisCache struct {
	client redis.UniversalClient
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return payload, err
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Incr(ctx context.Context, key string) (int64, error) {
	return c.client.Incr(ctx, key).Result()
}

// generation reads the current dashboard generation. ok is false when the
// cache is disabled or unreadable, and the dashboard then bypasses it.
func (s *Service) generation(ctx context.Context) (gen int64, ok bool) {
	if s.ttl <= 0 {
		return 0, false
	}
	raw, err := s.cache.Get(ctx, generationKey)
	switch {
	case errors.Is(err, ErrCacheMiss):
		return 0, true
	case err != nil:
		metrics.DashboardCache.WithLabelValues("error").Inc()
		s.logger.Warn().Err(err).Msg("dashboard cache read failed")
		return 0, false
	}
	gen, err = strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		metrics.DashboardCache.WithLabelValues("error").Inc()
		s.logger.Warn().Err(err).Msg("dashboard generation undecodable")
		return 0, false
	}
	return gen, true
}

func (s *Service) cached(ctx context.Context, gen int64) (Dashboard, bool) {
	payload, err := s.cache.Get(ctx, dashboardKeyFor(gen))
	switch {
	case errors.Is(err, ErrCacheMiss):
		metrics.DashboardCache.WithLabelValues("miss").Inc()
		return Dashboard{}, false
	case err != nil:
		metrics.DashboardCache.WithLabelValues("error").Inc()
		s.logger.Warn().Err(err).Msg("dashboard cache read failed")
		return Dashboard{}, false
	}
	var d Dashboard
	if err := json.Unmarshal(payload, &d); err != nil {
		metrics.DashboardCache.WithLabelValues("error").Inc()
		s.logger.Warn().Err(err).Msg("dashboard cache entry undecodable")
		return Dashboard{}, false
	}
	metrics.DashboardCache.WithLabelValues("hit").Inc()
	return d, true
}

// store caches d under gen unless an invalidation happened meanwhile.
func (s *Service) store(ctx context.Context, gen int64, d Dashboard) {
	if current, ok := s.generation(ctx); !ok || current != gen {
		metrics.DashboardCache.WithLabelValues("stale").Inc()
		return
	}
	payload, err := json.Marshal(d)
	if err != nil {
		s.logger.Warn().Err(err).Msg("dashboard encode failed")
		return
	}
	if err := s.cache.Set(ctx, dashboardKeyFor(gen), payload, s.ttl); err != nil {
		metrics.DashboardCache.WithLabelValues("error").Inc()
		s.logger.Warn().Err(err).Msg("dashboard cache write failed")
	}
}
