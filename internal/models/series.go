package models

// Point is one (time, value) sample of a series.
type Point struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// Series is the plottable line for one source file.
type Series struct {
	Name       string  `json:"name" msgpack:"name"`
	SourcePath string  `json:"sourcePath" msgpack:"sourcePath"`
	ColorIndex int     `json:"colorIndex" msgpack:"colorIndex"`
	Points     []Point `json:"points" msgpack:"points"`
}

// XValues returns the time coordinates of the series.
func (s *Series) XValues() []float64 {
	xs := make([]float64, len(s.Points))
	for i, p := range s.Points {
		xs[i] = p.X
	}
	return xs
}

// YValues returns the value coordinates of the series.
func (s *Series) YValues() []float64 {
	ys := make([]float64, len(s.Points))
	for i, p := range s.Points {
		ys[i] = p.Y
	}
	return ys
}
