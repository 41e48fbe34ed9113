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

// SQLite backed cache of elevation profiles. Keys are the canonical
// upstream query; expiry is stored as unix seconds.
type SqliteProfileCache struct {
	DB  *sql.DB
	TTL time.Duration
	Now func() time.Time
}

func NewSqliteProfileCache(db *sql.DB, ttl time.Duration) *SqliteProfileCache {
	return &SqliteProfileCache{DB: db, TTL: ttl, Now: time.Now}
}

// Fetch a cached, unexpired profile.
func (s *SqliteProfileCache) Get(
	ctx context.Context,
	key string,
) (_ *domain.ProfileResult, ok bool, err error) {
	defer obs.Time(ctx, "profile.cache.sqlite.Get")(&err)

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
    WHERE query = ?
        AND expires_at > ?;
	`

	var body []byte
	err = s.DB.QueryRowContext(ctx, q, key, s.Now().Unix()).Scan(&body)
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
func (s *SqliteProfileCache) Put(ctx context.Context, key string, result *domain.ProfileResult) error {
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
	INSERT OR REPLACE INTO profile_cache (
        query,
        body,
        expires_at
    )
    VALUES (?, ?, ?);
	`, key, string(body), s.Now().Add(s.TTL).Unix())
	if err != nil {
		return fmt.Errorf("insert profile cache key=%q: %w", key, err)
	}

	return nil
}
