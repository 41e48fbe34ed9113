package domain

import "errors"

var (
	// Coordinate is non-finite or outside the valid lat/lon range.
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// Profile has fewer than two samples and cannot be transformed.
	ErrInsufficientSamples = errors.New("insufficient samples")

	// Elevation service could not produce a usable profile.
	ErrLookupFailure = errors.New("elevation lookup failed")
)
