package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/telemetry-viewer/backend/internal/loader"
	"github.com/telemetry-viewer/backend/internal/models"
)

// ErrNotFound is returned for unknown session ids.
var ErrNotFound = errors.New("session not found")

// MaxSessions limits how many collections are held in memory at once
const MaxSessions = 10

// SessionKeepAliveWindow is how long to keep sessions that are actively being used
const SessionKeepAliveWindow = 5 * time.Minute

// Manager holds loaded FileCollections keyed by session id.
// Collections are immutable; a reload swaps in a new one.
type Manager struct {
	sessions map[string]*SessionState
	mu       sync.RWMutex
	loader   *loader.Loader
}

// SessionState holds the session metadata and its collection.
type SessionState struct {
	Session      *models.CollectionSession
	Collection   *models.FileCollection
	LastAccessed time.Time
}

// NewManager creates a session manager. A nil loader uses loader.Default().
func NewManager(l *loader.Loader) *Manager {
	if l == nil {
		l = loader.Default()
	}
	return &Manager{
		sessions: make(map[string]*SessionState),
		loader:   l,
	}
}

// Loader returns the loader used for loads and series queries.
func (m *Manager) Loader() *loader.Loader {
	return m.loader
}

// Load reads a directory and stores the result under a new session id.
// A DirectoryError leaves the manager unchanged.
func (m *Manager) Load(dir, workspaceID string) (*models.CollectionSession, *models.FileCollection, error) {
	collection, err := m.loader.LoadDirectory(dir)
	if err != nil {
		return nil, nil, err
	}

	m.cleanupOldSessionsIfNeeded()

	now := time.Now()
	sess := &models.CollectionSession{
		ID:          uuid.New().String(),
		Directory:   dir,
		WorkspaceID: workspaceID,
		LoadedAt:    now,
	}
	describe(sess, collection)

	m.mu.Lock()
	m.sessions[sess.ID] = &SessionState{
		Session:      sess,
		Collection:   collection,
		LastAccessed: now,
	}
	m.mu.Unlock()

	return sess, collection, nil
}

// Get returns a session and its collection, refreshing its access time.
func (m *Manager) Get(id string) (*models.CollectionSession, *models.FileCollection, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, nil, false
	}
	state.LastAccessed = time.Now()
	return state.Session, state.Collection, true
}

// Reload loads the session's directory again and replaces its collection
// wholesale. On error the previous collection is kept.
func (m *Manager) Reload(id string) (*models.CollectionSession, *models.FileCollection, error) {
	m.mu.RLock()
	state, ok := m.sessions[id]
	var dir string
	if ok {
		dir = state.Session.Directory
	}
	m.mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	collection, err := m.loader.LoadDirectory(dir)
	if err != nil {
		return nil, nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok = m.sessions[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	sess := *state.Session
	sess.LoadedAt = time.Now()
	describe(&sess, collection)

	state.Session = &sess
	state.Collection = collection
	state.LastAccessed = sess.LoadedAt

	return state.Session, state.Collection, nil
}

// Series builds the plot series of a session's collection for one column.
func (m *Manager) Series(id, column string) ([]models.Series, error) {
	_, collection, ok := m.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return m.loader.BuildSeries(collection, column)
}

// Delete drops a session. It reports whether the session existed.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// TouchSession updates the last accessed time without returning data.
func (m *Manager) TouchSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if ok {
		state.LastAccessed = time.Now()
	}
	return ok
}

// List returns all sessions, most recently loaded first.
func (m *Manager) List() []*models.CollectionSession {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*models.CollectionSession, 0, len(m.sessions))
	for _, state := range m.sessions {
		list = append(list, state.Session)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].LoadedAt.After(list[j].LoadedAt)
	})
	return list
}

// CleanupOldSessions removes sessions idle for longer than maxAge.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	keepAliveCutoff := time.Now().Add(-SessionKeepAliveWindow)

	for id, state := range m.sessions {
		// Don't clean up sessions that are actively being used
		if state.LastAccessed.After(keepAliveCutoff) {
			continue
		}
		if state.LastAccessed.Before(cutoff) {
			delete(m.sessions, id)
			slog.Info("session: cleaned up aged session",
				"session", id,
				"idle", time.Since(state.LastAccessed).Round(time.Second))
		}
	}
}

// cleanupOldSessionsIfNeeded evicts the least recently used sessions so a
// new one fits under MaxSessions.
func (m *Manager) cleanupOldSessionsIfNeeded() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) < MaxSessions {
		return
	}

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return m.sessions[ids[i]].LastAccessed.Before(m.sessions[ids[j]].LastAccessed)
	})

	toFree := len(m.sessions) - MaxSessions + 1
	for _, id := range ids[:toFree] {
		delete(m.sessions, id)
		slog.Info("session: evicted session to free memory", "session", id)
	}
}

func describe(sess *models.CollectionSession, c *models.FileCollection) {
	sess.FileCount = len(c.Tables)
	sess.ColumnCount = len(c.Columns)
	sess.SkippedCount = len(c.Diagnostics)
}
