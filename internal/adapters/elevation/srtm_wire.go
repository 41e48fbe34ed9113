package elevation

import (
	"errors"
	"fmt"
	"terrain-profile-service/internal/domain"
)

// Response body of the SRTM profile service.
type srtmResponse struct {
	Points []srtmPoint `json:"points"`
	Output srtmOutput  `json:"output"`
}

type srtmPoint struct {
	XCoord     *float64 `json:"xcoord"`
	YCoord     *float64 `json:"ycoord"`
	CurHeight  *float64 `json:"curheight"`
	TrueHeight *float64 `json:"trueheight"`
}

type srtmOutput struct {
	PointsAvailable int     `json:"pointsAvailable"`
	PointCount      int     `json:"pointCount"`
	Dist            float64 `json:"dist"`
	Surface         float64 `json:"surface"`
	Ascent          float64 `json:"ascent"`
	Level           float64 `json:"level"`
	Descent         float64 `json:"descent"`
	Min             float64 `json:"min"`
	Max             float64 `json:"max"`
	Average         float64 `json:"average"`
	MinGr           float64 `json:"minGr"`
	MaxGr           float64 `json:"maxGr"`
	AveGr           float64 `json:"aveGr"`
	TimeTaken       float64 `json:"timeTaken"`
}

// toDomain maps the wire profile, rejecting points with missing fields.
func (r *srtmResponse) toDomain() (*domain.ProfileResult, error) {
	if r == nil {
		return nil, errors.New("empty response")
	}

	samples := make([]domain.ElevationSample, 0, len(r.Points))
	for i, p := range r.Points {
		if p.XCoord == nil || p.YCoord == nil || p.TrueHeight == nil {
			return nil, fmt.Errorf("point %d: missing coordinate or height", i)
		}

		var clutter float64
		if p.CurHeight != nil {
			clutter = *p.CurHeight
		}

		samples = append(samples, domain.ElevationSample{
			Coordinate:       domain.Coordinate{Lat: *p.YCoord, Lon: *p.XCoord},
			GroundTrueHeight: *p.TrueHeight,
			ClutterHeight:    clutter,
		})
	}

	o := r.Output
	result := &domain.ProfileResult{
		Samples: samples,
		Summary: domain.ProfileSummary{
			DistanceKm:        o.Dist,
			SurfaceDistanceKm: o.Surface,
			AscentKm:          o.Ascent,
			LevelKm:           o.Level,
			DescentKm:         o.Descent,
			MinHeightM:        o.Min,
			MaxHeightM:        o.Max,
			AverageHeightM:    o.Average,
			MinGradient:       o.MinGr,
			MaxGradient:       o.MaxGr,
			AverageGradient:   o.AveGr,
			ComputeSeconds:    o.TimeTaken,
			PointCount:        o.PointCount,
			PointsAvailable:   o.PointsAvailable,
		},
	}

	if err := result.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}
