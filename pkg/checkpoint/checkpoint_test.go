package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManagerWithPath(filepath.Join(t.TempDir(), "truthuser.statuses.checkpoint.json"))
}

func TestCreateAndLoad(t *testing.T) {
	m := newTestManager(t)

	created, err := m.Create("truthuser", "12345", "statuses")
	require.NoError(t, err)
	assert.True(t, m.Exists())

	loaded, err := m.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "truthuser", loaded.Handle)
	assert.Equal(t, "12345", loaded.AccountID)
	assert.Equal(t, "statuses", loaded.Stream)
	assert.Equal(t, 1, loaded.Version)
	assert.Equal(t, created.CreatedAt.Unix(), loaded.CreatedAt.Unix())
}

func TestLoadMissingReturnsNil(t *testing.T) {
	m := newTestManager(t)

	loaded, err := m.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)
	assert.False(t, m.Exists())
}

func TestUpdateProgress(t *testing.T) {
	m := newTestManager(t)

	cp, err := m.Create("truthuser", "12345", "statuses")
	require.NoError(t, err)

	require.NoError(t, m.UpdateProgress(cp, "110", "111", 20))
	require.NoError(t, m.UpdateProgress(cp, "90", "91", 40))

	loaded, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, "90", loaded.Cursor)
	assert.Equal(t, "91", loaded.LastStatusID)
	assert.Equal(t, 40, loaded.ItemsFetched)
	assert.Equal(t, 2, loaded.PagesFetched)
}

func TestUpdateProgressKeepsLastStatusID(t *testing.T) {
	m := newTestManager(t)

	cp, err := m.Create("truthuser", "12345", "statuses")
	require.NoError(t, err)

	require.NoError(t, m.UpdateProgress(cp, "110", "111", 20))
	require.NoError(t, m.UpdateProgress(cp, "90", "", 40))

	loaded, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, "111", loaded.LastStatusID)
}

func TestDelete(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Create("truthuser", "12345", "statuses")
	require.NoError(t, err)
	require.True(t, m.Exists())

	require.NoError(t, m.Delete())
	assert.False(t, m.Exists())

	// Deleting a missing checkpoint is not an error.
	require.NoError(t, m.Delete())
}

func TestSaveIsAtomic(t *testing.T) {
	m := newTestManager(t)

	cp, err := m.Create("truthuser", "12345", "statuses")
	require.NoError(t, err)
	require.NoError(t, m.Save(cp))

	// No temp file may survive a successful save.
	_, err = os.Stat(m.checkpointPath + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestLoadCorruptFile(t *testing.T) {
	m := newTestManager(t)

	require.NoError(t, os.WriteFile(m.checkpointPath, []byte("{not json"), 0644))
	_, err := m.Load()
	assert.Error(t, err)
}
