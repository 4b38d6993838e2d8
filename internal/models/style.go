package models

// PlotStyle defines the YAML configuration for chart rendering.
type PlotStyle struct {
	TitleFormat string   `json:"titleFormat" yaml:"title_format"` // fmt verb receives the column name
	XAxisTitle  string   `json:"xAxisTitle" yaml:"x_axis_title"`
	Width       int      `json:"width" yaml:"width"`
	Height      int      `json:"height" yaml:"height"`
	StrokeWidth float64  `json:"strokeWidth" yaml:"stroke_width"`
	MarkerSize  float64  `json:"markerSize" yaml:"marker_size"`
	Palette     []string `json:"palette" yaml:"palette"` // hex colors, cycled per series
}
