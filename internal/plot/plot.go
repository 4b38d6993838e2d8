// Package plot renders a set of telemetry series as a PNG line chart.
package plot

import (
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strings"

	"github.com/telemetry-viewer/backend/internal/models"
	"github.com/telemetry-viewer/backend/internal/parser"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("no data to plot")

const (
	xPadding = 0.05
	yPadding = 0.10
)

var hexColorRegex = regexp.MustCompile(`^#?(?:[0-9A-Fa-f]{3}|[0-9A-Fa-f]{6})$`)

var gridColor = drawing.ColorFromHex("d3d3d3")

// ParseColor converts "#RRGGBB" or "#RGB" to a drawing color.
func ParseColor(hex string) (drawing.Color, error) {
	if !hexColorRegex.MatchString(hex) {
		return drawing.Color{}, fmt.Errorf("invalid color: %q", hex)
	}
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#")), nil
}

// SeriesColor returns the palette color for a series color index.
// Invalid palette entries fall back to the default palette.
func SeriesColor(style *models.PlotStyle, colorIndex int) drawing.Color {
	palette := style.Palette
	if len(palette) == 0 {
		palette = parser.DefaultPalette
	}

	i := colorIndex % len(palette)
	if c, err := ParseColor(palette[i]); err == nil {
		return c
	}
	c, _ := ParseColor(parser.DefaultPalette[colorIndex%len(parser.DefaultPalette)])
	return c
}

// Title formats the chart title for a column.
func Title(style *models.PlotStyle, column string) string {
	if strings.Contains(style.TitleFormat, "%s") {
		return fmt.Sprintf(style.TitleFormat, column)
	}
	if style.TitleFormat == "" {
		return column
	}
	return style.TitleFormat
}

// Build assembles the chart for a series set without rendering it.
func Build(series []models.Series, column string, style *models.PlotStyle) (*chart.Chart, error) {
	if len(series) == 0 {
		return nil, ErrNoData
	}
	if style == nil {
		style = parser.DefaultPlotStyle()
	}

	xMin, xMax, yMin, yMax := bounds(series)

	ch := &chart.Chart{
		Title:      Title(style, column),
		Width:      style.Width,
		Height:     style.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:           style.XAxisTitle,
			Range:          paddedRange(xMin, xMax, xPadding),
			GridMajorStyle: gridStyle(),
		},
		YAxis: chart.YAxis{
			Name:           column,
			Range:          paddedRange(yMin, yMax, yPadding),
			GridMajorStyle: gridStyle(),
		},
	}

	for _, s := range series {
		color := SeriesColor(style, s.ColorIndex)
		ch.Series = append(ch.Series, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: s.XValues(),
			YValues: s.YValues(),
			Style: chart.Style{
				StrokeColor: color,
				StrokeWidth: style.StrokeWidth,
				DotColor:    color,
				DotWidth:    style.MarkerSize,
			},
		})
	}
	ch.Elements = []chart.Renderable{chart.Legend(ch)}

	return ch, nil
}

// Render draws the series set as a PNG.
func Render(w io.Writer, series []models.Series, column string, style *models.PlotStyle) error {
	ch, err := Build(series, column, style)
	if err != nil {
		return err
	}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	return nil
}

func gridStyle() chart.Style {
	return chart.Style{
		StrokeColor:     gridColor,
		StrokeWidth:     1,
		StrokeDashArray: []float64{1, 3},
	}
}

func bounds(series []models.Series) (xMin, xMax, yMin, yMax float64) {
	xMin, yMin = math.Inf(1), math.Inf(1)
	xMax, yMax = math.Inf(-1), math.Inf(-1)
	for _, s := range series {
		for _, p := range s.Points {
			xMin = math.Min(xMin, p.X)
			xMax = math.Max(xMax, p.X)
			yMin = math.Min(yMin, p.Y)
			yMax = math.Max(yMax, p.Y)
		}
	}
	return xMin, xMax, yMin, yMax
}

// paddedRange widens [lo, hi] by frac of its span on both sides.
// A zero span gets a unit margin so single points still render.
func paddedRange(lo, hi, frac float64) *chart.ContinuousRange {
	span := hi - lo
	pad := span * frac
	if span == 0 {
		pad = math.Max(math.Abs(lo)*frac, 1)
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}
