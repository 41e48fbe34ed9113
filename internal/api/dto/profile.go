package dto

import "terrain-profile-service/internal/domain"

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type ProfileRequest struct {
	Tx *Coordinate `json:"tx"`
	Rx *Coordinate `json:"rx"`
}

type Series struct {
	X []int     `json:"x"`
	Y []float64 `json:"y"`
}

type Summary struct {
	DistanceKm        float64 `json:"distance_km"`
	SurfaceDistanceKm float64 `json:"surface_distance_km"`
	AscentKm          float64 `json:"ascent_km"`
	LevelKm           float64 `json:"level_km"`
	DescentKm         float64 `json:"descent_km"`
	MinHeightM        float64 `json:"min_height_m"`
	MaxHeightM        float64 `json:"max_height_m"`
	AverageHeightM    float64 `json:"average_height_m"`
	MinGradient       float64 `json:"min_gradient"`
	MaxGradient       float64 `json:"max_gradient"`
	AverageGradient   float64 `json:"average_gradient"`
	ComputeSeconds    float64 `json:"compute_seconds"`
	PointCount        int     `json:"point_count"`
	PointsAvailable   int     `json:"points_available"`
}

type Chart struct {
	Title         string  `json:"title"`
	DistanceLabel string  `json:"distance_label"`
	HeightLabel   string  `json:"height_label"`
	Terrain       Series  `json:"terrain"`
	LineOfSight   Series  `json:"line_of_sight"`
	Summary       Summary `json:"summary"`
}

type ViewResponse struct {
	Phase         string     `json:"phase"`
	Tx            Coordinate `json:"tx"`
	Rx            Coordinate `json:"rx"`
	Busy          bool       `json:"busy"`
	SubmitEnabled bool       `json:"submit_enabled"`
	Shared        bool       `json:"shared"`
	Location      string     `json:"location,omitempty"`
	Notice        string     `json:"notice,omitempty"`
	Chart         *Chart     `json:"chart,omitempty"`
}

func FromCoordinate(c domain.Coordinate) Coordinate {
	return Coordinate{Lat: c.Lat, Lon: c.Lon}
}

func (c Coordinate) ToDomain() domain.Coordinate {
	return domain.Coordinate{Lat: c.Lat, Lon: c.Lon}
}

func FromChart(c *domain.ProfileChart) *Chart {
	if c == nil {
		return nil
	}
	s := c.Summary
	return &Chart{
		Title:         c.Title,
		DistanceLabel: c.DistanceLabel,
		HeightLabel:   c.HeightLabel,
		Terrain:       Series{X: c.Terrain.XValues, Y: c.Terrain.YValues},
		LineOfSight:   Series{X: c.LineOfSight.XValues, Y: c.LineOfSight.YValues},
		Summary: Summary{
			DistanceKm:        s.DistanceKm,
			SurfaceDistanceKm: s.SurfaceDistanceKm,
			AscentKm:          s.AscentKm,
			LevelKm:           s.LevelKm,
			DescentKm:         s.DescentKm,
			MinHeightM:        s.MinHeightM,
			MaxHeightM:        s.MaxHeightM,
			AverageHeightM:    s.AverageHeightM,
			MinGradient:       s.MinGradient,
			MaxGradient:       s.MaxGradient,
			AverageGradient:   s.AverageGradient,
			ComputeSeconds:    s.ComputeSeconds,
			PointCount:        s.PointCount,
			PointsAvailable:   s.PointsAvailable,
		},
	}
}
