package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dnovoa/purchase-planner/internal/config"
	"github.com/dnovoa/purchase-planner/internal/domain"
)

const (
	recommendationKeyPrefix = "planner:recommendations"
	scanBatchSize           = 100
)

// RecommendationCache stores filtered recommendation sets per filter
// parameter combination. Entries expire on TTL; a write-back invalidates
// everything since the next run may see different source data.
type RecommendationCache interface {
	Get(ctx context.Context, params domain.FilterParams) ([]domain.RecommendationRow, bool, error)
	Set(ctx context.Context, params domain.FilterParams, rows []domain.RecommendationRow) error
	InvalidateAll(ctx context.Context) error
}

type redisRecommendationCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopRecommendationCache struct{}

// NewRecommendationCache returns a redis-backed cache, or a noop cache when
// caching is disabled.
func NewRecommendationCache(cfg config.CacheConfig) (RecommendationCache, error) {
	if !cfg.Enabled {
		return &noopRecommendationCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisRecommendationCache{client: client, ttl: ttl}, nil
}

// NewNoopRecommendationCache returns a cache that never hits.
func NewNoopRecommendationCache() RecommendationCache {
	return &noopRecommendationCache{}
}

func (c *redisRecommendationCache) Get(ctx context.Context, params domain.FilterParams) ([]domain.RecommendationRow, bool, error) {
	payload, err := c.client.Get(ctx, buildRecommendationKey(params)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var rows []domain.RecommendationRow
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached recommendations: %w", err)
	}
	return rows, true, nil
}

func (c *redisRecommendationCache) Set(ctx context.Context, params domain.FilterParams, rows []domain.RecommendationRow) error {
	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode recommendations: %w", err)
	}
	if err := c.client.Set(ctx, buildRecommendationKey(params), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisRecommendationCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, recommendationKeyPrefix, scanBatchSize)
}

func (c *noopRecommendationCache) Get(ctx context.Context, params domain.FilterParams) ([]domain.RecommendationRow, bool, error) {
	return nil, false, nil
}

func (c *noopRecommendationCache) Set(ctx context.Context, params domain.FilterParams, rows []domain.RecommendationRow) error {
	return nil
}

func (c *noopRecommendationCache) InvalidateAll(ctx context.Context) error {
	return nil
}

// buildRecommendationKey hashes the filter params so every distinct
// combination gets its own cache slot.
func buildRecommendationKey(params domain.FilterParams) string {
	payload, err := json.Marshal(params)
	if err != nil {
		return recommendationKeyPrefix + ":default"
	}
	sum := sha1.Sum(payload)
	return fmt.Sprintf("%s:%s", recommendationKeyPrefix, hex.EncodeToString(sum[:]))
}
