// ABOUTME: Tests for blob open, save, and locking behavior
// ABOUTME: Uses temp dirs; every handle is closed before reopening
package persist

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/fieldwork/models"
)

func blobPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "store.json")
}

func TestOpenMissingFileGivesFreshState(t *testing.T) {
	path := blobPath(t)

	h, state, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = h.Close() }()

	assert.Equal(t, models.SchemaVersion, state.SchemaVersion)
	assert.NotNil(t, state.DataByWorkspace)
	assert.NotNil(t, state.Outbox)
	assert.Equal(t, "USD", state.Settings.Currency)
	assert.Nil(t, state.CurrentUser)
}

func TestSaveRoundTrip(t *testing.T) {
	path := blobPath(t)
	when := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	h, state, err := Open(path)
	require.NoError(t, err)

	state.CurrentUser = &models.User{ID: "user-1", Email: "tech@example.com", AccessToken: "tok"}
	state.Workspace = &models.WorkspaceLink{ID: "ws-1", Name: "Shop", Role: models.RoleOwner}
	state.DataByWorkspace["ws-1"] = &models.WorkspaceData{
		Customers: []models.Customer{{ID: uuid.New(), Name: "Ada", CreatedAt: when, UpdatedAt: when}},
	}
	state.SyncCursors["user-1"] = &when
	require.NoError(t, h.Save(state))
	require.NoError(t, h.Close())

	h2, loaded, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = h2.Close() }()

	require.NotNil(t, loaded.CurrentUser)
	assert.Equal(t, "user-1", loaded.CurrentUser.ID)
	assert.Equal(t, "tok", loaded.CurrentUser.AccessToken)
	require.Contains(t, loaded.DataByWorkspace, "ws-1")
	require.Len(t, loaded.DataByWorkspace["ws-1"].Customers, 1)
	assert.Equal(t, "Ada", loaded.DataByWorkspace["ws-1"].Customers[0].Name)
	require.NotNil(t, loaded.SyncCursors["user-1"])
	assert.True(t, loaded.SyncCursors["user-1"].Equal(when))
}

func TestSaveIsAtomic(t *testing.T) {
	path := blobPath(t)

	h, state, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = h.Close() }()

	require.NoError(t, h.Save(state))

	// No temp file left behind after a successful write.
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "blob holds tokens")
}

func TestOpenRefusesSecondHandle(t *testing.T) {
	path := blobPath(t)

	h, _, err := Open(path)
	require.NoError(t, err)

	_, _, err = Open(path)
	require.Error(t, err, "a second process must not share the blob")

	require.NoError(t, h.Close())

	h2, _, err := Open(path)
	require.NoError(t, err)
	_ = h2.Close()
}

func TestOpenEmptyFileGivesFreshState(t *testing.T) {
	path := blobPath(t)
	require.NoError(t, os.WriteFile(path, nil, 0600))

	h, state, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = h.Close() }()

	assert.Equal(t, models.SchemaVersion, state.SchemaVersion)
}

func TestOpenRejectsCorruptBlob(t *testing.T) {
	path := blobPath(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, _, err := Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")

	// The failed open released the lock, so the retry fails on parsing
	// again rather than timing out on the sidecar lock.
	_, _, err = Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}
