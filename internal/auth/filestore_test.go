// ABOUTME: Tests for the file-backed and in-memory token stores
// ABOUTME: Validates persistence across instances, permissions and clear semantics

package auth_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/markalston/ticketdesk/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_EmptyWhenNoFile(t *testing.T) {
	s, err := auth.OpenFileStore(t.TempDir())
	require.NoError(t, err)

	_, ok := s.Access()
	assert.False(t, ok)
	_, ok = s.Refresh()
	assert.False(t, ok)
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	s, err := auth.OpenFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set("access-1", "refresh-1"))

	reopened, err := auth.OpenFileStore(dir)
	require.NoError(t, err)

	access, ok := reopened.Access()
	assert.True(t, ok)
	assert.Equal(t, "access-1", access)
	refresh, ok := reopened.Refresh()
	assert.True(t, ok)
	assert.Equal(t, "refresh-1", refresh)
}

func TestFileStore_FileIsPrivate(t *testing.T) {
	dir := t.TempDir()
	s := auth.NewFileStore(dir)
	require.NoError(t, s.Set("a", "r"))

	info, err := os.Stat(filepath.Join(dir, auth.SessionFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStore_SetLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := auth.NewFileStore(dir)
	require.NoError(t, s.Set("a1", "r1"))
	require.NoError(t, s.Set("a2", "r2"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, auth.SessionFileName, entries[0].Name())
}

func TestFileStore_SetOverwritesBoth(t *testing.T) {
	s := auth.NewFileStore(t.TempDir())
	require.NoError(t, s.Set("a1", "r1"))
	require.NoError(t, s.Set("a2", ""))

	access, _ := s.Access()
	assert.Equal(t, "a2", access)
	_, ok := s.Refresh()
	assert.False(t, ok)
}

func TestFileStore_FailedWriteKeepsNewTokensInMemory(t *testing.T) {
	dir := t.TempDir()
	s := auth.NewFileStore(dir)
	require.NoError(t, s.Set("a1", "r1"))

	// Replace the session file with a directory so the rename fails
	require.NoError(t, os.Remove(s.Path()))
	require.NoError(t, os.Mkdir(s.Path(), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(s.Path(), "keep"), []byte("x"), 0600))

	assert.Error(t, s.Set("a2", "r2"))
	access, _ := s.Access()
	assert.Equal(t, "a2", access)
	refresh, _ := s.Refresh()
	assert.Equal(t, "r2", refresh)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "failed write leaves no temp file behind")
}

func TestFileStore_CorruptFileIsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, auth.SessionFileName), []byte("{not json"), 0600))

	s, err := auth.OpenFileStore(dir)
	require.NoError(t, err)
	_, ok := s.Access()
	assert.False(t, ok)
}

func TestFileStore_ClearIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	s := auth.NewFileStore(dir)

	require.NoError(t, s.Clear())
	require.NoError(t, s.Set("a", "r"))
	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear())

	_, ok := s.Access()
	assert.False(t, ok)
	_, err := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_NoConfigDir(t *testing.T) {
	s := auth.NewFileStore("")
	assert.Error(t, s.Set("a", "r"))
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	s := auth.NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Set("access", "refresh")
		}()
		go func() {
			defer wg.Done()
			access, ok := s.Access()
			if ok {
				assert.Equal(t, "access", access)
			}
		}()
	}
	wg.Wait()

	require.NoError(t, s.Clear())
	_, ok := s.Refresh()
	assert.False(t, ok)
}
