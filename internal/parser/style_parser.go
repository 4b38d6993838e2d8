package parser

import (
	"io"
	"os"

	"github.com/telemetry-viewer/backend/internal/models"
	"gopkg.in/yaml.v3"
)

// DefaultPalette is the line color cycle used when a style sets none.
var DefaultPalette = []string{
	"#0000FF", // blue
	"#FF0000", // red
	"#008000", // green
	"#FFA500", // orange
	"#800080", // purple
	"#A52A2A", // brown
	"#008080", // teal
}

// DefaultPlotStyle returns the built-in chart style.
func DefaultPlotStyle() *models.PlotStyle {
	palette := make([]string, len(DefaultPalette))
	copy(palette, DefaultPalette)

	return &models.PlotStyle{
		TitleFormat: "Chart: %s",
		XAxisTitle:  "Time, s",
		Width:       1024,
		Height:      600,
		StrokeWidth: 2,
		MarkerSize:  4,
		Palette:     palette,
	}
}

// ParsePlotStyle parses a YAML plot style file.
func ParsePlotStyle(filePath string) (*models.PlotStyle, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParsePlotStyleFromReader(file)
}

// ParsePlotStyleFromReader parses a style from an io.Reader. Fields missing
// from the document keep their DefaultPlotStyle values.
func ParsePlotStyleFromReader(r io.Reader) (*models.PlotStyle, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	style := DefaultPlotStyle()
	if err := yaml.Unmarshal(data, style); err != nil {
		return nil, err
	}
	if len(style.Palette) == 0 {
		style.Palette = append(style.Palette, DefaultPalette...)
	}

	return style, nil
}
