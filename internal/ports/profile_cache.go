package ports

import (
	"context"
	"terrain-profile-service/internal/domain"
)

// Optional cache for elevation profiles keyed by the canonical upstream query.
type ProfileCache interface {
	// Return the cached profile; ok is false on a miss.
	Get(ctx context.Context, key string) (_ *domain.ProfileResult, ok bool, err error)
	Put(ctx context.Context, key string, result *domain.ProfileResult) error
}
