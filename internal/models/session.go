package models

import "time"

// CollectionSession describes a loaded FileCollection held by the server.
type CollectionSession struct {
	ID           string    `json:"id"`
	Directory    string    `json:"directory"`
	WorkspaceID  string    `json:"workspaceId,omitempty"`
	LoadedAt     time.Time `json:"loadedAt"`
	FileCount    int       `json:"fileCount"`
	ColumnCount  int       `json:"columnCount"`
	SkippedCount int       `json:"skippedCount"`
}
