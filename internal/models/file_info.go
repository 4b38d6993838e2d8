package models

import "time"

// FileInfo represents metadata about an uploaded telemetry file.
type FileInfo struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Workspace is an upload folder that can be loaded as a FileCollection.
type Workspace struct {
	ID        string    `json:"id"`
	Dir       string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}
