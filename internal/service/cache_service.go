package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type cacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService is a thin, nil-safe wrapper over the Redis-backed cache. All
// operations degrade to no-ops when caching is disabled, so callers never
// branch on availability.
type CacheService struct {
	store      cacheStore
	defaultTTL time.Duration
	logger     *zap.Logger
}

// NewCacheService constructs a CacheService. A nil store disables caching.
func NewCacheService(store cacheStore, defaultTTL time.Duration, logger *zap.Logger) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &CacheService{store: store, defaultTTL: defaultTTL, logger: logger}
}

// Get loads a cached value into dest. Returns pkg/errors.ErrCacheMiss via the
// underlying store when the key is absent.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("cache disabled")
	}
	return s.store.Get(ctx, key, dest)
}

// Set stores value under key with the default TTL.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) {
	if s == nil || s.store == nil {
		return
	}
	if err := s.store.Set(ctx, key, value, s.defaultTTL); err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateStats drops the cached dashboard counters of the given admin.
func (s *CacheService) InvalidateStats(ctx context.Context, adminEmail string) {
	if s == nil || s.store == nil {
		return
	}
	pattern := statsCacheKey(adminEmail)
	if err := s.store.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
	}
}

func statsCacheKey(adminEmail string) string {
	return "dashboard:stats:" + adminEmail
}
