package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// floatRegex is the locale-invariant grammar accepted by ParseNumeric:
// optional sign, digits, optional fraction, optional exponent.
var floatRegex = regexp.MustCompile(`^[+-]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][+-]?\d+)?$`)

// ParseNumeric converts a cell to a float64. Commas are read as decimal
// points. Text outside the grammar, or out of float64 range, yields NaN.
func ParseNumeric(text string) float64 {
	s := strings.TrimSpace(strings.ReplaceAll(text, ",", "."))
	if !floatRegex.MatchString(s) {
		return math.NaN()
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// ParseNumericColumn parses every value and drops the NaN results.
func ParseNumericColumn(values []string) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		f := ParseNumeric(v)
		if math.IsNaN(f) {
			continue
		}
		out = append(out, f)
	}
	return out
}
