package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telemetry-viewer/backend/internal/loader"
)

func writeTelemetry(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
}

func TestSessionManager(t *testing.T) {
	dir := t.TempDir()
	writeTelemetry(t, dir, "a.txt", "Time,Speed\n0,10\n1,20\n")

	m := NewManager(nil)

	sess, collection, err := m.Load(dir, "")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, dir, sess.Directory)
	assert.Equal(t, 1, sess.FileCount)
	assert.Equal(t, 1, sess.ColumnCount)
	assert.Equal(t, []string{"Speed"}, collection.Columns)

	gotSess, gotCollection, ok := m.Get(sess.ID)
	require.True(t, ok)
	assert.Equal(t, sess.ID, gotSess.ID)
	assert.Same(t, collection, gotCollection)

	assert.Len(t, m.List(), 1)
	assert.True(t, m.TouchSession(sess.ID))
	assert.True(t, m.Delete(sess.ID))
	assert.False(t, m.Delete(sess.ID))

	_, _, ok = m.Get(sess.ID)
	assert.False(t, ok)
}

func TestSessionManager_Series(t *testing.T) {
	dir := t.TempDir()
	writeTelemetry(t, dir, "a.txt", "Time,Speed\n0,10\n1,bad\n2,30\n")

	m := NewManager(nil)
	sess, _, err := m.Load(dir, "")
	require.NoError(t, err)

	series, err := m.Series(sess.ID, "Speed")
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Len(t, series[0].Points, 2)

	_, err = m.Series(sess.ID, "")
	assert.ErrorIs(t, err, loader.ErrEmptySelection)

	_, err = m.Series("missing", "Speed")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionManager_LoadMissingDirectory(t *testing.T) {
	m := NewManager(nil)

	_, _, err := m.Load(filepath.Join(t.TempDir(), "missing"), "")
	var dirErr *loader.DirectoryError
	assert.ErrorAs(t, err, &dirErr)
	assert.Empty(t, m.List())
}

func TestSessionManager_Reload(t *testing.T) {
	dir := t.TempDir()
	writeTelemetry(t, dir, "a.txt", "Time,Speed\n0,10\n")

	m := NewManager(nil)
	sess, first, err := m.Load(dir, "ws-1")
	require.NoError(t, err)

	writeTelemetry(t, dir, "b.txt", "Time,Alt\n0,100\n")

	reloaded, second, err := m.Reload(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, reloaded.ID)
	assert.Equal(t, "ws-1", reloaded.WorkspaceID)
	assert.Equal(t, 2, reloaded.FileCount)
	assert.Equal(t, []string{"Alt", "Speed"}, second.Columns)

	// The earlier collection is untouched
	assert.Equal(t, []string{"Speed"}, first.Columns)
	assert.Equal(t, 1, sess.FileCount)

	t.Run("failed reload keeps previous collection", func(t *testing.T) {
		require.NoError(t, os.RemoveAll(dir))

		_, _, err := m.Reload(sess.ID)
		assert.Error(t, err)

		_, current, ok := m.Get(sess.ID)
		require.True(t, ok)
		assert.Same(t, second, current)
	})

	t.Run("unknown session", func(t *testing.T) {
		_, _, err := m.Reload("nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSessionManager_Cleanup(t *testing.T) {
	dir := t.TempDir()
	writeTelemetry(t, dir, "a.txt", "Time,Speed\n0,10\n")

	m := NewManager(nil)
	stale, _, err := m.Load(dir, "")
	require.NoError(t, err)
	fresh, _, err := m.Load(dir, "")
	require.NoError(t, err)

	m.mu.Lock()
	m.sessions[stale.ID].LastAccessed = time.Now().Add(-time.Hour)
	m.mu.Unlock()

	m.CleanupOldSessions(30 * time.Minute)

	_, _, ok := m.Get(stale.ID)
	assert.False(t, ok)
	_, _, ok = m.Get(fresh.ID)
	assert.True(t, ok)
}

func TestSessionManager_MaxSessions(t *testing.T) {
	dir := t.TempDir()
	writeTelemetry(t, dir, "a.txt", "Time,Speed\n0,10\n")

	m := NewManager(nil)
	first, _, err := m.Load(dir, "")
	require.NoError(t, err)

	m.mu.Lock()
	m.sessions[first.ID].LastAccessed = time.Now().Add(-time.Minute)
	m.mu.Unlock()

	for i := 1; i < MaxSessions+1; i++ {
		_, _, err := m.Load(dir, "")
		require.NoError(t, err)
	}

	assert.Len(t, m.List(), MaxSessions)
	_, _, ok := m.Get(first.ID)
	assert.False(t, ok, "least recently used session should be evicted")
}
