// interfaces.go - Dependencies of the HTTP handlers
package api

import (
	"github.com/telemetry-viewer/backend/internal/models"
)

// SessionManager defines the collection operations the handlers need.
// This allows mocking in tests
type SessionManager interface {
	Load(dir, workspaceID string) (*models.CollectionSession, *models.FileCollection, error)
	Get(id string) (*models.CollectionSession, *models.FileCollection, bool)
	Reload(id string) (*models.CollectionSession, *models.FileCollection, error)
	Series(id, column string) ([]models.Series, error)
	Delete(id string) bool
	List() []*models.CollectionSession
}
