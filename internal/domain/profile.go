package domain

import "fmt"

// One point along the path between transmitter and receiver.
// GroundTrueHeight is metres above datum; ClutterHeight is the height
// subtracted from it to obtain the plotted terrain elevation.
type ElevationSample struct {
	Coordinate       Coordinate
	GroundTrueHeight float64
	ClutterHeight    float64
}

func (s ElevationSample) TerrainElevation() float64 {
	return s.GroundTrueHeight - s.ClutterHeight
}

// Summary statistics reported by the elevation service.
// Distances are kilometres, heights metres. The values are passed
// through for display and are never interpreted by the transform.
type ProfileSummary struct {
	DistanceKm        float64
	SurfaceDistanceKm float64
	AscentKm          float64
	LevelKm           float64
	DescentKm         float64
	MinHeightM        float64
	MaxHeightM        float64
	AverageHeightM    float64
	MinGradient       float64
	MaxGradient       float64
	AverageGradient   float64
	ComputeSeconds    float64
	PointCount        int
	PointsAvailable   int
}

// Ordered elevation samples (index 0 = transmitter, last = receiver) plus summary.
// A ProfileResult lives for one render cycle.
type ProfileResult struct {
	Samples []ElevationSample
	Summary ProfileSummary
}

func (r *ProfileResult) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: profile is nil", ErrInsufficientSamples)
	}
	if len(r.Samples) < 2 {
		return fmt.Errorf("%w: got %d, need at least 2", ErrInsufficientSamples, len(r.Samples))
	}
	return nil
}

func (r *ProfileResult) First() ElevationSample { return r.Samples[0] }

func (r *ProfileResult) Last() ElevationSample { return r.Samples[len(r.Samples)-1] }
