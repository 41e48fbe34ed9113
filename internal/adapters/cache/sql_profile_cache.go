package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"terrain-profile-service/internal/domain"
	"terrain-profile-service/internal/platform/obs"
	"time"
)

// SQLProfileCache is a Postgres-backed cache of elevation profiles.
type SQLProfileCache struct {
	DB  *sql.DB
	TTL time.Duration
	Now func() time.Time
}

func NewSQLProfileCache(db *sql.DB, ttl time.Duration) *SQLProfileCache {
	return &SQLProfileCache{DB: db, TTL: ttl, Now: time.Now}
}

// Fetch a cached, unexpired profile.
func (s *SQLProfileCache) Get(
	ctx context.Context,
	key string,
) (_ *domain.ProfileResult, ok bool, err error) {
	defer obs.Time(ctx, "profile.cache.sql.Get")(&err)

	if s.DB == nil {
		return nil, false, errors.New("profile cache: db is nil")
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, errors.New("get profile cache: key must not be empty")
	}

	q := `
	SELECT body
    FROM profile_cache
    WHERE query = $1
        AND expires_at > $2;
	`

	var body []byte
	err = s.DB.QueryRowContext(ctx, q, key, s.Now()).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get profile cache: query profile_cache table: %w", err)
	}

	var result domain.ProfileResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, false, fmt.Errorf("get profile cache: decode key=%q: %w", key, err)
	}

	return &result, true, nil
}

// Store a profile under key, replacing any previous entry.
func (s *SQLProfileCache) Put(ctx context.Context, key string, result *domain.ProfileResult) error {
	if s.DB == nil {
		return errors.New("profile cache: db is nil")
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("insert profile cache: key must not be empty")
	}
	if result == nil {
		return errors.New("insert profile cache: result is nil")
	}

	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("insert profile cache: encode key=%q: %w", key, err)
	}

	_, err = s.DB.ExecContext(ctx, `
	INSERT INTO profile_cache (query, body, expires_at)
    VALUES ($1, $2, $3)
	ON CONFLICT (query) DO UPDATE
	SET body = EXCLUDED.body,
		expires_at = EXCLUDED.expires_at;
	`, key, string(body), s.Now().Add(s.TTL))
	if err != nil {
		return fmt.Errorf("insert profile cache key=%q: %w", key, err)
	}

	return nil
}
