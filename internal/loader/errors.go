package loader

import (
	"errors"
	"fmt"
)

// ErrEmptySelection indicates a series request without a column.
var ErrEmptySelection = errors.New("no column selected")

// ErrEmptyCollection indicates a series request against a collection with no files.
var ErrEmptyCollection = errors.New("no files loaded")

// DirectoryError reports that the directory itself could not be enumerated.
// A load that fails this way produces no collection.
type DirectoryError struct {
	Path string
	Err  error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("cannot read directory %s: %v", e.Path, e.Err)
}

func (e *DirectoryError) Unwrap() error {
	return e.Err
}

// FileReadError reports a single file that was skipped during a load.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("skipping %s: %v", e.Path, e.Err)
}

func (e *FileReadError) Unwrap() error {
	return e.Err
}
