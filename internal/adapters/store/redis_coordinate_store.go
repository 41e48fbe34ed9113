package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"terrain-profile-service/internal/domain"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCoordinateStore keeps the four coordinates as separate keys
// (profiler:<visitor>:<name>), each with its own TTL.
type RedisCoordinateStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisCoordinateStore(client *redis.Client, ttl time.Duration) *RedisCoordinateStore {
	return &RedisCoordinateStore{Client: client, TTL: ttlOrDefault(ttl)}
}

func redisKey(visitor, name string) string {
	return "profiler:" + visitor + ":" + name
}

func (s *RedisCoordinateStore) Load(ctx context.Context, visitor string) (domain.CoordinatePair, bool, error) {
	if s.Client == nil {
		return domain.CoordinatePair{}, false, errors.New("coordinate store: redis client is nil")
	}

	visitor = strings.TrimSpace(visitor)
	if visitor == "" {
		return domain.CoordinatePair{}, false, errors.New("load coordinates: visitor must not be empty")
	}

	keys := make([]string, 0, len(coordinateKeys))
	for _, name := range coordinateKeys {
		keys = append(keys, redisKey(visitor, name))
	}

	raw, err := s.Client.MGet(ctx, keys...).Result()
	if err != nil {
		return domain.CoordinatePair{}, false, fmt.Errorf("load coordinates: mget: %w", err)
	}

	values := make(map[string]float64, len(coordinateKeys))
	for i, v := range raw {
		str, ok := v.(string)
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return domain.CoordinatePair{}, false, fmt.Errorf("load coordinates: parse %q: %w", coordinateKeys[i], err)
		}
		values[coordinateKeys[i]] = f
	}

	pair, ok := pairFromValues(values)
	return pair, ok, nil
}

func (s *RedisCoordinateStore) Save(ctx context.Context, visitor string, pair domain.CoordinatePair) error {
	if s.Client == nil {
		return errors.New("coordinate store: redis client is nil")
	}

	visitor = strings.TrimSpace(visitor)
	if visitor == "" {
		return errors.New("save coordinates: visitor must not be empty")
	}
	if err := pair.Validate(); err != nil {
		return fmt.Errorf("save coordinates: %w", err)
	}

	_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for name, value := range pairToValues(pair) {
			pipe.Set(ctx, redisKey(visitor, name), strconv.FormatFloat(value, 'f', -1, 64), s.TTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save coordinates: %w", err)
	}

	return nil
}
