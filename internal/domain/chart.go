package domain

const HeightAxisLabel = "Height (m)"

// Plottable series; XValues are sample indexes 0..n-1.
type ChartSeries struct {
	XValues []int
	YValues []float64
}

func (s ChartSeries) Len() int { return len(s.YValues) }

// Everything a chart renderer needs to draw one terrain profile.
// Terrain is drawn as a filled area, LineOfSight as a plain line.
type ProfileChart struct {
	Terrain       ChartSeries
	LineOfSight   ChartSeries
	Title         string
	DistanceLabel string
	HeightLabel   string
	Summary       ProfileSummary
}
