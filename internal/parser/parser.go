package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/telemetry-viewer/backend/internal/models"
)

// ErrInvalidEncoding is returned when a file is not valid UTF-8 text.
var ErrInvalidEncoding = errors.New("invalid text encoding")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadError reports that a telemetry file could not be read from storage.
// Malformed rows never produce a ReadError.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// DetectDelimiter picks the delimiter for a file from its header line.
// Priority is fixed: tab, then semicolon, then comma.
func DetectDelimiter(header string) models.Delimiter {
	switch {
	case strings.ContainsRune(header, '\t'):
		return models.DelimiterTab
	case strings.ContainsRune(header, ';'):
		return models.DelimiterSemicolon
	default:
		return models.DelimiterComma
	}
}

// splitFields splits a line on d and trims every field.
func splitFields(line string, d models.Delimiter) []string {
	fields := strings.Split(line, string(rune(d)))
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}
	return fields
}

// Parse builds a table from the lines of one file. The first line is the
// header; data lines whose field count differs from the header are dropped.
// Zero lines produce an empty table.
func Parse(sourcePath string, lines []string) *models.ParsedTable {
	table := models.NewParsedTable(sourcePath)
	if len(lines) == 0 {
		return table
	}

	table.Delimiter = DetectDelimiter(lines[0])
	table.Columns = splitFields(lines[0], table.Delimiter)

	for _, line := range lines[1:] {
		values := splitFields(line, table.Delimiter)
		if len(values) == len(table.Columns) {
			table.Rows = append(table.Rows, values)
		}
	}

	return table
}

// ParseReader reads the full content of r and parses it.
func ParseReader(sourcePath string, r io.Reader) (*models.ParsedTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ReadError{Path: sourcePath, Err: err}
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, &ReadError{Path: sourcePath, Err: ErrInvalidEncoding}
	}

	return Parse(sourcePath, SplitLines(string(data))), nil
}

// ParseFile opens, reads and parses a telemetry file. The handle is closed
// before returning.
func ParseFile(filePath string) (*models.ParsedTable, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, &ReadError{Path: filePath, Err: err}
	}
	defer file.Close()

	return ParseReader(filePath, file)
}

// SplitLines splits text on CRLF, LF or CR. A trailing line terminator
// does not produce an extra empty line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}
