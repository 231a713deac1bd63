package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

// viewsKeyPrefix namespaces per-map share-view counters.
const viewsKeyPrefix = "views:"

// IncrementViews increments the share-view counter for a map.
// This is fire-and-forget for the share resolution path.
func (c *Cache) IncrementViews(ctx context.Context, mapID int64) error {
	key := viewsKeyPrefix + strconv.FormatInt(mapID, 10)

	if err := c.client.Incr(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}

	return nil
}

// GetAndResetViews gets the current view count for a map and resets it.
// Used by the background worker to flush counters to PostgreSQL.
func (c *Cache) GetAndResetViews(ctx context.Context, mapID int64) (int64, error) {
	key := viewsKeyPrefix + strconv.FormatInt(mapID, 10)

	result, err := c.client.GetDel(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get and reset views: %w", err)
	}

	count, err := strconv.ParseInt(result, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse view count: %w", err)
	}

	return count, nil
}

// ScanViewKeys scans for all pending view counter keys.
func (c *Cache) ScanViewKeys(ctx context.Context) ([]string, error) {
	var keys []string
	var cursor uint64

	for {
		var scanKeys []string
		var err error

		scanKeys, cursor, err = c.client.Scan(ctx, cursor, viewsKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan view keys: %w", err)
		}

		keys = append(keys, scanKeys...)

		if cursor == 0 {
			break
		}
	}

	return keys, nil
}

// MapIDFromViewKey extracts the map id from a view counter key.
// Returns 0 for malformed keys.
func MapIDFromViewKey(key string) int64 {
	if !strings.HasPrefix(key, viewsKeyPrefix) || len(key) == len(viewsKeyPrefix) {
		return 0
	}
	id, err := strconv.ParseInt(key[len(viewsKeyPrefix):], 10, 64)
	if err != nil {
		return 0
	}
	return id
}
