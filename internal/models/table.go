// Package models contains domain types for the Telemetry Viewer.
package models

import (
	"path/filepath"
	"strings"
)

// Delimiter is the single field separator used throughout one telemetry file.
type Delimiter rune

const (
	DelimiterTab       Delimiter = '\t'
	DelimiterSemicolon Delimiter = ';'
	DelimiterComma     Delimiter = ','
)

// String returns a printable name for the delimiter.
func (d Delimiter) String() string {
	switch d {
	case DelimiterTab:
		return "tab"
	case DelimiterSemicolon:
		return "semicolon"
	case DelimiterComma:
		return "comma"
	default:
		return string(rune(d))
	}
}

// ParsedTable is the text content of one telemetry file.
// Every row has exactly len(Columns) fields. Cells are kept as text;
// numeric interpretation happens at query time.
type ParsedTable struct {
	SourcePath string     `json:"sourcePath"`
	Delimiter  Delimiter  `json:"-"`
	Columns    []string   `json:"columns"`
	Rows       [][]string `json:"-"`
}

// NewParsedTable creates an empty table for the given source.
func NewParsedTable(sourcePath string) *ParsedTable {
	return &ParsedTable{
		SourcePath: sourcePath,
		Delimiter:  DelimiterComma,
		Columns:    make([]string, 0),
		Rows:       make([][]string, 0),
	}
}

// Name returns the source file name without directory and extension.
func (t *ParsedTable) Name() string {
	base := filepath.Base(t.SourcePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ColumnIndex returns the position of the first column named exactly name, or -1.
func (t *ParsedTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// FindColumnFold returns the first column name equal to name under
// case-insensitive comparison.
func (t *ParsedTable) FindColumnFold(name string) (string, bool) {
	for _, c := range t.Columns {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}
	return "", false
}

// GetColumn returns the values of the named column in row order.
// An unknown column yields an empty slice.
func (t *ParsedTable) GetColumn(name string) []string {
	idx := t.ColumnIndex(name)
	if idx == -1 {
		return []string{}
	}

	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[idx]
	}
	return values
}
