package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zonemap/zonemap/internal/model"
)

// Cache key prefixes and TTLs.
const (
	mapKeyPrefix      = "map:"
	negCacheKeySuffix = ":neg"

	// DefaultMapTTL is the TTL for cached map data.
	DefaultMapTTL = 24 * time.Hour

	// NegativeCacheTTL is the TTL for negative cache entries.
	NegativeCacheTTL = 5 * time.Minute
)

// ErrCacheMiss indicates the key was not in the cache.
var ErrCacheMiss = errors.New("cache miss")

// GetMap retrieves a map from cache by share code.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetMap(ctx context.Context, mapCode string) (*model.CachedMap, error) {
	key := mapKeyPrefix + mapCode

	result, err := c.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}

	if len(result) == 0 {
		return nil, ErrCacheMiss
	}

	return &model.CachedMap{
		ID:        result["id"],
		OwnerID:   result["owner_id"],
		Title:     result["title"],
		Lat:       result["lat"],
		Lng:       result["lng"],
		Zoom:      result["zoom"],
		Country:   result["country"],
		Active:    result["active"],
		UpdatedAt: result["updated_at"],
	}, nil
}

// SetMap stores a map in cache under its share code.
func (c *Cache) SetMap(ctx context.Context, mapCode string, m *model.Map) error {
	key := mapKeyPrefix + mapCode
	cached := m.ToCachedMap()

	fields := map[string]any{
		"id":         cached.ID,
		"owner_id":   cached.OwnerID,
		"title":      cached.Title,
		"lat":        cached.Lat,
		"lng":        cached.Lng,
		"zoom":       cached.Zoom,
		"active":     cached.Active,
		"updated_at": cached.UpdatedAt,
	}
	if cached.Country != "" {
		fields["country"] = cached.Country
	}

	pipe := c.client.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, DefaultMapTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache map: %w", err)
	}

	// Remove negative cache if exists
	c.client.Del(ctx, key+negCacheKeySuffix)

	return nil
}

// DeleteMap removes a map from cache.
func (c *Cache) DeleteMap(ctx context.Context, mapCode string) error {
	key := mapKeyPrefix + mapCode

	pipe := c.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.Del(ctx, key+negCacheKeySuffix)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete map from cache: %w", err)
	}

	return nil
}

// IsNegativelyCached checks if a share code is in negative cache.
func (c *Cache) IsNegativelyCached(ctx context.Context, mapCode string) (bool, error) {
	key := mapKeyPrefix + mapCode + negCacheKeySuffix

	exists, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check negative cache: %w", err)
	}

	return exists > 0, nil
}

// SetNegativeCache marks a share code as not found.
func (c *Cache) SetNegativeCache(ctx context.Context, mapCode string) error {
	key := mapKeyPrefix + mapCode + negCacheKeySuffix

	if err := c.client.SetEx(ctx, key, "", NegativeCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set negative cache: %w", err)
	}

	return nil
}
