package ports

import (
	"context"
	"terrain-profile-service/internal/domain"
)

// Port: durable per-visitor storage of the last submitted coordinates.
// Entries expire after a multi-year TTL chosen by the implementation.
type CoordinateStore interface {
	// Load the visitor's last pair; ok is false when nothing (unexpired) is stored.
	Load(ctx context.Context, visitor string) (_ domain.CoordinatePair, ok bool, err error)
	// Overwrite the visitor's pair.
	Save(ctx context.Context, visitor string, pair domain.CoordinatePair) error
}
