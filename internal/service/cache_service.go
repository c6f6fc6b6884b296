package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	appErrors "github.com/noah-isme/miqaat-rms-api/pkg/errors"
)

// CacheRepository is the storage behind CacheService.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService adds metrics and logging around a CacheRepository. When
// disabled every read misses and writes are dropped, so callers never need
// to check whether Redis is configured.
type CacheService struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewCacheService wraps repo. With a nil repo or enabled false, reads miss and writes are no-ops.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, ttl: defaultTTL, logger: logger, enabled: enabled && repo != nil}
}

// Enabled reports whether reads and writes reach the backend.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled
}

// Get decodes the entry at key into dest and reports whether it was found.
// A plain miss is not an error.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, appErrors.ErrCacheMiss):
		return false, nil
	default:
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
}

// Set stores value at key; a non-positive ttl uses the service default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.ttl
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Invalidate drops every entry matching pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	err := s.repo.DeleteByPattern(ctx, pattern)
	if err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
	}
	return err
}

type cacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// cacheLoads collapses concurrent misses on the same key into one load.
var cacheLoads singleflight.Group

// cached serves key from cache and falls back to load on a miss or a cache
// failure, writing the loaded value back with ttl. The bool reports a hit.
func cached[T any](ctx context.Context, cache cacheStore, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, bool, error) {
	var value T
	if cache == nil {
		value, err := load(ctx)
		return value, false, err
	}
	if hit, err := cache.Get(ctx, key, &value); err == nil && hit {
		return value, true, nil
	}

	shared, err, _ := cacheLoads.Do(key, func() (interface{}, error) {
		loaded, err := load(ctx)
		if err != nil {
			return nil, err
		}
		_ = cache.Set(ctx, key, loaded, ttl)
		return loaded, nil
	})
	if err != nil {
		return value, false, err
	}
	return shared.(T), false, nil
}

// PingContext checks the cache backend when it supports health checks.
func (s *CacheService) PingContext(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	if p, ok := s.repo.(interface{ PingContext(context.Context) error }); ok {
		return p.PingContext(ctx)
	}
	return nil
}
