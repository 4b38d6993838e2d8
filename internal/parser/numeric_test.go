package parser

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumeric(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"3.14", 3.14},
		{"3,14", 3.14},
		{"-2", -2},
		{"+7.5", 7.5},
		{" 42 ", 42},
		{".5", 0.5},
		{"5.", 5},
		{"1e3", 1000},
		{"1,5E-2", 0.015},
		{"0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParseNumeric(tt.in), 1e-12)
		})
	}
}

func TestParseNumeric_NaN(t *testing.T) {
	for _, in := range []string{"abc", "", "bad", "1.2.3", "1,234.5", "NaN", "Inf", "0x10", "1_000", "e5", "--1", "1e999"} {
		t.Run(in, func(t *testing.T) {
			assert.True(t, math.IsNaN(ParseNumeric(in)), "expected NaN for %q", in)
		})
	}
}

func TestParseNumericColumn(t *testing.T) {
	got := ParseNumericColumn([]string{"0", "bad", "2,5", "", "4"})
	assert.Equal(t, []float64{0, 2.5, 4}, got)

	assert.Empty(t, ParseNumericColumn(nil))
}
