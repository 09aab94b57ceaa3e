// Package cache holds small per-user read models, backed by redis when
// configured and by process memory otherwise.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Store is a string-keyed byte cache. Get returns (nil, nil) on a miss.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// CityChoicesKey is the cache key of a user's city picker list.
func CityChoicesKey(userID uint) string {
	return fmt.Sprintf("city_choices:%d", userID)
}
