// Package export writes series sets to spreadsheet workbooks.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/telemetry-viewer/backend/internal/models"
	"github.com/xuri/excelize/v2"
)

// ErrNoData is returned when there are no series to export.
var ErrNoData = errors.New("no data to export")

const maxSheetNameLen = 31

// WriteXLSX writes one sheet per series with a "Time" and a column header.
func WriteXLSX(w io.Writer, series []models.Series, column string) error {
	if len(series) == 0 {
		return ErrNoData
	}

	f := excelize.NewFile()
	defer f.Close()

	names := SheetNames(series)
	for i, s := range series {
		sheet := names[i]
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("naming sheet %q: %w", sheet, err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("creating sheet %q: %w", sheet, err)
		}

		if err := f.SetSheetRow(sheet, "A1", &[]interface{}{"Time", column}); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
		for row, p := range s.Points {
			cell, err := excelize.CoordinatesToCellName(1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sheet, cell, &[]interface{}{p.X, p.Y}); err != nil {
				return fmt.Errorf("writing %s row %d: %w", sheet, row+2, err)
			}
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// SheetNames derives a unique, valid worksheet name for each series.
func SheetNames(series []models.Series) []string {
	used := make(map[string]struct{}, len(series))
	names := make([]string, len(series))

	for i, s := range series {
		base := sanitizeSheetName(s.Name)
		name := base
		for n := 2; ; n++ {
			if _, taken := used[strings.ToLower(name)]; !taken {
				break
			}
			suffix := fmt.Sprintf(" (%d)", n)
			name = truncateRunes(base, maxSheetNameLen-utf8.RuneCountInString(suffix)) + suffix
		}
		used[strings.ToLower(name)] = struct{}{}
		names[i] = name
	}
	return names
}

func sanitizeSheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, name)
	name = strings.Trim(name, "'")
	name = truncateRunes(name, maxSheetNameLen)
	if strings.TrimSpace(name) == "" {
		return "Series"
	}
	return name
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
