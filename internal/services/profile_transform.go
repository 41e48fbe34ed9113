package services

import (
	"fmt"
	"strconv"
	"terrain-profile-service/internal/domain"
)

// TransformProfile turns a validated elevation profile into the terrain and
// line-of-sight series plus the chart title and distance caption.
//
// The line of sight starts at the terrain height of the first sample and
// moves toward the last sample's height by (start-end)/n per index. The
// divisor is n, not n-1, so the line stops one step short of the end height.
func TransformProfile(result *domain.ProfileResult) (domain.ProfileChart, error) {
	if err := result.Validate(); err != nil {
		return domain.ProfileChart{}, fmt.Errorf("transform profile: %w", err)
	}

	n := len(result.Samples)
	terrain := domain.ChartSeries{
		XValues: make([]int, n),
		YValues: make([]float64, n),
	}
	for i, s := range result.Samples {
		terrain.XValues[i] = i
		terrain.YValues[i] = s.TerrainElevation()
	}

	startHeight := terrain.YValues[0]
	endHeight := terrain.YValues[n-1]
	step := (startHeight - endHeight) / float64(n)

	los := domain.ChartSeries{
		XValues: make([]int, n),
		YValues: make([]float64, n),
	}
	move := startHeight
	for i := 0; i < n; i++ {
		los.XValues[i] = i
		los.YValues[i] = move
		// step is negative when the receiver is higher, so the line climbs.
		move -= step
	}

	first := result.First().Coordinate
	last := result.Last().Coordinate

	return domain.ProfileChart{
		Terrain:       terrain,
		LineOfSight:   los,
		Title:         profileTitle(first, last),
		DistanceLabel: distanceLabel(result.Summary.DistanceKm),
		HeightLabel:   domain.HeightAxisLabel,
		Summary:       result.Summary,
	}, nil
}

func profileTitle(from, to domain.Coordinate) string {
	return "Point To Point Profile (" + latLon(from) + " to " + latLon(to) + ")"
}

// latLon formats with the shortest representation that round-trips.
func latLon(c domain.Coordinate) string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + " " + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}

func distanceLabel(km float64) string {
	return fmt.Sprintf("<-- Distance: %.3fkm -->", km)
}
