package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/telemetry-viewer/backend/internal/models"
)

// ErrNotFound is returned for unknown workspace ids.
var ErrNotFound = errors.New("workspace not found")

// ErrInvalidName is returned for upload names that are not plain file names.
var ErrInvalidName = errors.New("invalid file name")

// Store defines the interface for workspace storage.
type Store interface {
	CreateWorkspace() (*models.Workspace, error)
	GetWorkspace(id string) (*models.Workspace, error)
	SaveFile(workspaceID, name string, r io.Reader) (*models.FileInfo, error)
	ListFiles(workspaceID string) ([]*models.FileInfo, error)
	GetWorkspaceDir(workspaceID string) (string, error)
	DeleteWorkspace(workspaceID string) error
}

// LocalStore implements Store using one directory per workspace.
type LocalStore struct {
	mu         sync.RWMutex
	root       string
	workspaces map[string]*models.Workspace
}

// NewLocalStore creates a new LocalStore.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating workspaces directory: %w", err)
	}

	return &LocalStore{
		root:       root,
		workspaces: make(map[string]*models.Workspace),
	}, nil
}

// CreateWorkspace creates an empty upload folder.
func (s *LocalStore) CreateWorkspace() (*models.Workspace, error) {
	id := uuid.New().String()
	dir := filepath.Join(s.root, id)

	if err := os.Mkdir(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}

	ws := &models.Workspace{
		ID:        id,
		Dir:       dir,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.workspaces[id] = ws

	return ws, nil
}

// GetWorkspace retrieves workspace metadata by ID.
func (s *LocalStore) GetWorkspace(id string) (*models.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ws, ok := s.workspaces[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return ws, nil
}

// SaveFile writes an uploaded file into a workspace, replacing any file
// with the same name.
func (s *LocalStore) SaveFile(workspaceID, name string, r io.Reader) (*models.FileInfo, error) {
	ws, err := s.GetWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}

	path := filepath.Join(ws.Dir, name)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing file: %w", err)
	}

	return &models.FileInfo{
		Name:       name,
		Size:       size,
		UploadedAt: time.Now(),
	}, nil
}

// ListFiles returns the files of a workspace sorted by name.
func (s *LocalStore) ListFiles(workspaceID string) ([]*models.FileInfo, error) {
	ws, err := s.GetWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(ws.Dir)
	if err != nil {
		return nil, fmt.Errorf("listing workspace: %w", err)
	}

	list := make([]*models.FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // Removed while listing
		}
		list = append(list, &models.FileInfo{
			Name:       e.Name(),
			Size:       info.Size(),
			UploadedAt: info.ModTime(),
		})
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})

	return list, nil
}

// GetWorkspaceDir returns the absolute directory of a workspace.
func (s *LocalStore) GetWorkspaceDir(workspaceID string) (string, error) {
	ws, err := s.GetWorkspace(workspaceID)
	if err != nil {
		return "", err
	}
	return ws.Dir, nil
}

// DeleteWorkspace removes a workspace and its files.
func (s *LocalStore) DeleteWorkspace(workspaceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, ok := s.workspaces[workspaceID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, workspaceID)
	}

	if err := os.RemoveAll(ws.Dir); err != nil {
		return fmt.Errorf("deleting workspace: %w", err)
	}

	delete(s.workspaces, workspaceID)
	return nil
}

// validateName accepts plain file names only, so uploads cannot escape the workspace.
func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
