package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"terrain-profile-service/internal/domain"
	"terrain-profile-service/internal/platform/obs"
	"time"

	"github.com/redis/go-redis/v9"
)

const profileKeyPrefix = "profile:"

// RedisProfileCache is a Redis-backed cache of elevation profiles keyed by the
// canonical upstream query. Entries expire after TTL.
type RedisProfileCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisProfileCache(client *redis.Client, ttl time.Duration) *RedisProfileCache {
	return &RedisProfileCache{Client: client, TTL: ttl}
}

// Fetch a cached profile; ok is false on a miss.
func (c *RedisProfileCache) Get(
	ctx context.Context,
	key string,
) (_ *domain.ProfileResult, ok bool, err error) {
	defer obs.Time(ctx, "profile.cache.Get")(&err)

	if c.Client == nil {
		return nil, false, errors.New("profile cache: redis client is nil")
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, errors.New("get profile cache: key must not be empty")
	}

	b, err := c.Client.Get(ctx, profileKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get profile cache: %w", err)
	}

	var result domain.ProfileResult
	if err := json.Unmarshal(b, &result); err != nil {
		return nil, false, fmt.Errorf("get profile cache: decode key=%q: %w", key, err)
	}

	return &result, true, nil
}

// Store a profile under key.
func (c *RedisProfileCache) Put(ctx context.Context, key string, result *domain.ProfileResult) error {
	if c.Client == nil {
		return errors.New("profile cache: redis client is nil")
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("insert profile cache: key must not be empty")
	}
	if result == nil {
		return errors.New("insert profile cache: result is nil")
	}

	b, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("insert profile cache: encode key=%q: %w", key, err)
	}

	if err := c.Client.Set(ctx, profileKeyPrefix+key, b, c.TTL).Err(); err != nil {
		return fmt.Errorf("insert profile cache key=%q: %w", key, err)
	}

	return nil
}
