package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"terrain-profile-service/internal/domain"
	"terrain-profile-service/internal/platform/obs"
	"time"
)

// SQLCoordinateStore keeps each visitor's last coordinates in Postgres.
type SQLCoordinateStore struct {
	DB  *sql.DB
	TTL time.Duration
	Now func() time.Time
}

func NewSQLCoordinateStore(db *sql.DB, ttl time.Duration) *SQLCoordinateStore {
	return &SQLCoordinateStore{DB: db, TTL: ttlOrDefault(ttl), Now: time.Now}
}

// Fetch the visitor's unexpired coordinates.
func (s *SQLCoordinateStore) Load(
	ctx context.Context,
	visitor string,
) (_ domain.CoordinatePair, ok bool, err error) {
	defer obs.Time(ctx, "coordinates.store.Load")(&err)

	if s.DB == nil {
		return domain.CoordinatePair{}, false, errors.New("coordinate store: db is nil")
	}

	visitor = strings.TrimSpace(visitor)
	if visitor == "" {
		return domain.CoordinatePair{}, false, errors.New("load coordinates: visitor must not be empty")
	}

	q := `
	SELECT name, value
    FROM profile_coordinates
    WHERE visitor = $1
        AND expires_at > $2;
	`

	rows, err := s.DB.QueryContext(ctx, q, visitor, s.Now().UTC())
	if err != nil {
		return domain.CoordinatePair{}, false, fmt.Errorf("load coordinates: query profile_coordinates table: %w", err)
	}
	defer rows.Close()

	values := make(map[string]float64, len(coordinateKeys))
	for rows.Next() {
		var name string
		var value float64
		if err := rows.Scan(&name, &value); err != nil {
			return domain.CoordinatePair{}, false, fmt.Errorf("load coordinates: scan rows: %w", err)
		}
		values[name] = value
	}
	if err := rows.Err(); err != nil {
		return domain.CoordinatePair{}, false, fmt.Errorf("load coordinates: row iteration: %w", err)
	}

	pair, ok := pairFromValues(values)
	return pair, ok, nil
}

// Overwrite the visitor's coordinates, resetting their expiry.
func (s *SQLCoordinateStore) Save(ctx context.Context, visitor string, pair domain.CoordinatePair) error {
	if s.DB == nil {
		return errors.New("coordinate store: db is nil")
	}

	visitor = strings.TrimSpace(visitor)
	if visitor == "" {
		return errors.New("save coordinates: visitor must not be empty")
	}
	if err := pair.Validate(); err != nil {
		return fmt.Errorf("save coordinates: %w", err)
	}

	expires := s.Now().UTC().Add(s.TTL)

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save coordinates: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO profile_coordinates (visitor, name, value, expires_at)
    VALUES ($1, $2, $3, $4)
	ON CONFLICT (visitor, name) DO UPDATE
	SET value = EXCLUDED.value,
		expires_at = EXCLUDED.expires_at;
	`)
	if err != nil {
		return fmt.Errorf("save coordinates: db prepare: %w", err)
	}
	defer stmt.Close()

	for name, value := range pairToValues(pair) {
		if _, err := stmt.ExecContext(ctx, visitor, name, value, expires); err != nil {
			return fmt.Errorf("save coordinates name=%q: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save coordinates commit: %w", err)
	}

	return nil
}
