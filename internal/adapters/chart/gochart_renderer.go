package chart

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"terrain-profile-service/internal/domain"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ParseFormat maps a file extension or format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "png":
		return FormatPNG, nil
	case "svg":
		return FormatSVG, nil
	default:
		return "", fmt.Errorf("unsupported chart format %q", s)
	}
}

func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

var (
	terrainStroke = drawing.ColorFromHex("009900")
	terrainFill   = drawing.ColorFromHex("009900").WithAlpha(96)
	sightStroke   = drawing.ColorFromHex("336699")
)

// Renderer draws profile charts with go-chart into w.
type Renderer struct {
	w      io.Writer
	format Format
	width  int
	height int
	last   *domain.ProfileChart
}

func NewRenderer(w io.Writer, format Format, width, height int) *Renderer {
	if width <= 0 {
		width = 1024
	}
	if height <= 0 {
		height = 400
	}
	return &Renderer{w: w, format: format, width: width, height: height}
}

func (r *Renderer) RenderProfile(ctx context.Context, c domain.ProfileChart) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.w == nil {
		return fmt.Errorf("render profile: writer is nil")
	}

	ch := Build(c, r.width, r.height)

	provider := gochart.PNG
	if r.format == FormatSVG {
		provider = gochart.SVG
	}
	if err := ch.Render(provider, r.w); err != nil {
		return fmt.Errorf("render profile %s: %w", r.format, err)
	}

	r.last = &c
	return nil
}

// Last returns the most recently rendered chart, or nil.
func (r *Renderer) Last() *domain.ProfileChart { return r.last }

// Build lays out the terrain as a filled area and the line of sight as a
// plain line. X tick labels are suppressed; the x axis only carries the
// distance caption.
func Build(c domain.ProfileChart, width, height int) gochart.Chart {
	minY, maxY := yBounds(c.Terrain, c.LineOfSight)

	return gochart.Chart{
		Title:  c.Title,
		Width:  width,
		Height: height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: gochart.XAxis{
			Name:           c.DistanceLabel,
			ValueFormatter: func(v interface{}) string { return "" },
		},
		YAxis: gochart.YAxis{
			Name:  c.HeightLabel,
			Range: &gochart.ContinuousRange{Min: minY, Max: maxY},
		},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name:    "Terrain",
				XValues: toFloats(c.Terrain.XValues),
				YValues: c.Terrain.YValues,
				Style: gochart.Style{
					StrokeColor: terrainStroke,
					StrokeWidth: 1.5,
					FillColor:   terrainFill,
				},
			},
			gochart.ContinuousSeries{
				Name:    "Line of sight",
				XValues: toFloats(c.LineOfSight.XValues),
				YValues: c.LineOfSight.YValues,
				Style: gochart.Style{
					StrokeColor: sightStroke,
					StrokeWidth: 2,
				},
			},
		},
	}
}

// yBounds spans both series with a margin above and below. The floor never
// drops below zero for profiles that stay above sea level, and flat
// profiles still get a non-empty range.
func yBounds(series ...domain.ChartSeries) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, y := range s.YValues {
			lo = math.Min(lo, y)
			hi = math.Max(hi, y)
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 1
	}

	pad := math.Max(1, (hi-lo)*0.05)
	floor := lo - pad
	if lo >= 0 && floor < 0 {
		floor = 0
	}
	return floor, hi + pad
}

func toFloats(xs []int) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = float64(x)
	}
	return out
}
