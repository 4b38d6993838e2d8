package models

// FileDiagnostic records a file that was skipped during a directory load.
type FileDiagnostic struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// FileCollection is the result of loading one directory of telemetry files.
// It is built in full by a single load and never modified afterwards.
type FileCollection struct {
	Directory   string           `json:"directory"`
	Tables      []*ParsedTable   `json:"tables"`
	Columns     []string         `json:"columns"` // derived, excludes the time column, sorted
	Diagnostics []FileDiagnostic `json:"diagnostics,omitempty"`
}

// NewFileCollection creates an empty collection for a directory.
func NewFileCollection(dir string) *FileCollection {
	return &FileCollection{
		Directory:   dir,
		Tables:      make([]*ParsedTable, 0),
		Columns:     make([]string, 0),
		Diagnostics: make([]FileDiagnostic, 0),
	}
}

// NoColumns reports whether nothing in the collection can be plotted.
func (c *FileCollection) NoColumns() bool {
	return len(c.Columns) == 0
}
