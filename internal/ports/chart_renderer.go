package ports

import (
	"context"
	"terrain-profile-service/internal/domain"
)

// Draws a terrain profile: filled terrain area, line-of-sight line,
// unlabeled x ticks with the distance caption, y axis "Height (m)".
type ChartRenderer interface {
	RenderProfile(ctx context.Context, chart domain.ProfileChart) error
}
