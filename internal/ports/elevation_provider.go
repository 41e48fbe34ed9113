package ports

import (
	"context"
	"terrain-profile-service/internal/domain"
)

// Contract for retrieving an elevation profile between two points.
type ElevationProvider interface {
	// Return ordered elevation samples from tx to rx plus the service summary.
	// Any transport or decoding failure wraps domain.ErrLookupFailure.
	GetProfile(ctx context.Context, tx, rx domain.Coordinate) (*domain.ProfileResult, error)
}
