// Package loader turns a directory of telemetry files into a FileCollection
// and extracts plottable series from it.
package loader

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/telemetry-viewer/backend/internal/models"
	"github.com/telemetry-viewer/backend/internal/parser"
)

const (
	// DefaultPattern selects the files of a directory that are loaded.
	DefaultPattern = "*.txt"
	// DefaultTimeColumn is the X axis column, matched case-insensitively.
	DefaultTimeColumn = "Time"
)

// Pairing selects how time and value cells become points.
type Pairing int

const (
	// PairByRow keeps a row only when both of its cells are numeric.
	PairByRow Pairing = iota
	// PairByIndex filters each column on its own and pairs the survivors by
	// position. A bad cell in only one column shifts every later point.
	PairByIndex
)

// Options controls which files are loaded, which column is time and how
// points are paired.
type Options struct {
	Pattern    string
	TimeColumn string
	Pairing    Pairing
}

// Loader loads directories and builds series. It holds no state between calls.
type Loader struct {
	pattern    string
	timeColumn string
	pairing    Pairing
}

// New creates a Loader. Empty options fall back to the defaults.
func New(opts Options) (*Loader, error) {
	if opts.Pattern == "" {
		opts.Pattern = DefaultPattern
	}
	if opts.TimeColumn == "" {
		opts.TimeColumn = DefaultTimeColumn
	}
	if !doublestar.ValidatePattern(opts.Pattern) {
		return nil, fmt.Errorf("invalid file pattern: %q", opts.Pattern)
	}
	if strings.ContainsAny(opts.Pattern, `/\`) {
		return nil, fmt.Errorf("file pattern must not contain a path separator: %q", opts.Pattern)
	}

	if opts.Pairing != PairByRow && opts.Pairing != PairByIndex {
		return nil, fmt.Errorf("unknown pairing mode: %d", opts.Pairing)
	}

	return &Loader{
		pattern:    opts.Pattern,
		timeColumn: opts.TimeColumn,
		pairing:    opts.Pairing,
	}, nil
}

var defaultLoader, _ = New(Options{})

// Default returns a Loader configured with DefaultPattern and DefaultTimeColumn.
func Default() *Loader {
	return defaultLoader
}

// LoadDirectory loads with the default Loader.
func LoadDirectory(dir string) (*models.FileCollection, error) {
	return defaultLoader.LoadDirectory(dir)
}

// BuildSeries builds series with the default Loader.
func BuildSeries(c *models.FileCollection, yColumn string) ([]models.Series, error) {
	return defaultLoader.BuildSeries(c, yColumn)
}

// TimeColumn returns the configured time column name.
func (l *Loader) TimeColumn() string {
	return l.timeColumn
}

// LoadDirectory parses every matching file directly inside dir.
// Files are visited in name order. A file that cannot be read is skipped
// and recorded as a diagnostic; only a failure to list dir is returned.
func (l *Loader) LoadDirectory(dir string) (*models.FileCollection, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &DirectoryError{Path: dir, Err: err}
	}

	collection := models.NewFileCollection(dir)
	columns := make(map[string]struct{})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		matched, err := doublestar.Match(l.pattern, entry.Name())
		if err != nil || !matched {
			continue
		}

		filePath := filepath.Join(dir, entry.Name())
		table, err := parser.ParseFile(filePath)
		if err != nil {
			readErr := &FileReadError{Path: filePath, Err: err}
			slog.Warn("load: skipping file", "file", filePath, "error", err)
			collection.Diagnostics = append(collection.Diagnostics, models.FileDiagnostic{
				Path:   filePath,
				Reason: readErr.Error(),
			})
			continue
		}

		collection.Tables = append(collection.Tables, table)
		for _, col := range table.Columns {
			if !strings.EqualFold(col, l.timeColumn) {
				columns[col] = struct{}{}
			}
		}
	}

	for col := range columns {
		collection.Columns = append(collection.Columns, col)
	}
	sort.Strings(collection.Columns)

	slog.Info("load: directory complete",
		"dir", dir,
		"files", len(collection.Tables),
		"skipped", len(collection.Diagnostics),
		"columns", len(collection.Columns))

	return collection, nil
}

// BuildSeries extracts one series per table that has both the time column
// and yColumn. Cells that are not numbers are dropped according to the
// Loader's Pairing. Tables that end with no points contribute no series.
func (l *Loader) BuildSeries(c *models.FileCollection, yColumn string) ([]models.Series, error) {
	if yColumn == "" {
		return nil, ErrEmptySelection
	}
	if c == nil || len(c.Tables) == 0 {
		return nil, ErrEmptyCollection
	}

	series := make([]models.Series, 0)
	colorIndex := 0

	for _, table := range c.Tables {
		timeName, ok := table.FindColumnFold(l.timeColumn)
		if !ok || table.ColumnIndex(yColumn) == -1 {
			continue
		}

		// Colors follow table position, including tables that end up empty.
		color := colorIndex
		colorIndex++

		var points []models.Point
		if l.pairing == PairByIndex {
			points = pairByIndex(table.GetColumn(timeName), table.GetColumn(yColumn))
		} else {
			points = pairByRow(table.GetColumn(timeName), table.GetColumn(yColumn))
		}
		if len(points) == 0 {
			continue
		}

		series = append(series, models.Series{
			Name:       table.Name(),
			SourcePath: table.SourcePath,
			ColorIndex: color,
			Points:     points,
		})
		slog.Debug("series: points added", "file", filepath.Base(table.SourcePath), "points", len(points))
	}

	return series, nil
}

func pairByRow(times, values []string) []models.Point {
	points := make([]models.Point, 0, len(times))
	for i := range times {
		x := parser.ParseNumeric(times[i])
		y := parser.ParseNumeric(values[i])
		if math.IsNaN(x) || math.IsNaN(y) {
			continue
		}
		points = append(points, models.Point{X: x, Y: y})
	}
	return points
}

func pairByIndex(times, values []string) []models.Point {
	xs := parser.ParseNumericColumn(times)
	ys := parser.ParseNumericColumn(values)

	n := min(len(xs), len(ys))
	points := make([]models.Point, n)
	for i := 0; i < n; i++ {
		points[i] = models.Point{X: xs[i], Y: ys[i]}
	}
	return points
}
