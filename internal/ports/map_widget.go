package ports

import "terrain-profile-service/internal/domain"

// Map collaborator that owns marker geometry. Drag events flow back to the
// coordinator as MarkerDragged events; the coordinator only pushes positions.
type MapWidget interface {
	ShowMarkers(pair domain.CoordinatePair)
}
