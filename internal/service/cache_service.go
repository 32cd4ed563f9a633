package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/valokuva/cms-admin-api/internal/dto"
)

const (
	resourceCachePrefix = "resources:"
	siteContentPrefix   = "site:"
	resourceCacheTTL    = 2 * time.Minute
)

// CacheService fronts Redis for derived read models. A cache failure is never
// surfaced to callers; the underlying query runs instead.
type CacheService struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCacheService constructs a CacheService. A nil client disables caching.
func NewCacheService(client *redis.Client, logger *zap.Logger) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{client: client, logger: logger}
}

// GetResourceList returns a cached directory page, nil on miss.
func (s *CacheService) GetResourceList(ctx context.Context, key string) *dto.ResourceListResponse {
	if s.client == nil {
		return nil
	}
	raw, err := s.client.Get(ctx, resourceCachePrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Debug("resource cache read failed", zap.Error(err))
		}
		return nil
	}
	var resp dto.ResourceListResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil
	}
	return &resp
}

// SetResourceList stores a directory page.
func (s *CacheService) SetResourceList(ctx context.Context, key string, resp *dto.ResourceListResponse) {
	if s.client == nil || resp == nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, resourceCachePrefix+key, raw, resourceCacheTTL).Err(); err != nil {
		s.logger.Debug("resource cache write failed", zap.Error(err))
	}
}

// InvalidateSiteContent drops every cached read model derived from published
// content. Called after each publish so the site never serves stale pages.
func (s *CacheService) InvalidateSiteContent(ctx context.Context) {
	if s.client == nil {
		return
	}
	for _, prefix := range []string{resourceCachePrefix, siteContentPrefix} {
		iter := s.client.Scan(ctx, 0, prefix+"*", 200).Iterator()
		keys := make([]string, 0, 64)
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			s.logger.Warn("cache scan failed", zap.String("prefix", prefix), zap.Error(err))
			continue
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				s.logger.Warn("cache invalidation failed", zap.Error(err))
			}
		}
	}
}
