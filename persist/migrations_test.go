// ABOUTME: Tests for blob schema migrations across historical layouts
// ABOUTME: Real v1 and v2 payloads, not synthetic minimal ones
package persist

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/fieldwork/models"
)

const v1Blob = `{
  "current_user": {"id": "user-1", "email": "tech@example.com"},
  "customers": [
    {"id": "7d444840-9dc0-11d1-b245-5ffdce74fad2", "name": "Ada",
     "created_at": "2024-01-02T03:04:05Z", "updated_at": "2024-01-02T03:04:05Z"}
  ],
  "parts": [
    {"id": "8d444840-9dc0-11d1-b245-5ffdce74fad2", "name": "Bolt",
     "unit_price": 2.5, "stock": 40,
     "created_at": "2024-01-02T03:04:05Z", "updated_at": "2024-01-02T03:04:05Z"}
  ],
  "settings": {"currency": "USD", "quote_prefix": "Q", "invoice_prefix": "INV"}
}`

const v1AnonymousBlob = `{
  "jobs": [
    {"id": "9d444840-9dc0-11d1-b245-5ffdce74fad2",
     "customer_id": "7d444840-9dc0-11d1-b245-5ffdce74fad2",
     "title": "Furnace tune-up", "status": "scheduled",
     "created_at": "2024-01-02T03:04:05Z", "updated_at": "2024-01-02T03:04:05Z"}
  ]
}`

const v2Blob = `{
  "schema_version": 2,
  "current_user": {"id": "user-1", "email": "tech@example.com"},
  "data_by_user": {
    "user-1": {
      "customers": [
        {"id": "7d444840-9dc0-11d1-b245-5ffdce74fad2", "name": "Ada",
         "created_at": "2024-01-02T03:04:05Z", "updated_at": "2024-01-02T03:04:05Z"}
      ]
    }
  }
}`

func TestMigrateV1MovesDataUnderUser(t *testing.T) {
	state, err := Migrate([]byte(v1Blob))
	require.NoError(t, err)

	assert.Equal(t, models.SchemaVersion, state.SchemaVersion)
	require.Contains(t, state.DataByUser, "user-1")
	require.Len(t, state.DataByUser["user-1"].Customers, 1)
	assert.Equal(t, "Ada", state.DataByUser["user-1"].Customers[0].Name)
	require.Len(t, state.DataByUser["user-1"].Parts, 1)
	assert.InDelta(t, 40, state.DataByUser["user-1"].Parts[0].Stock, 1e-9)

	assert.NotNil(t, state.DataByWorkspace)
	assert.NotNil(t, state.Outbox)
	assert.NotNil(t, state.SyncCursors)
	assert.Equal(t, "user-1", state.CurrentUser.ID, "session survives migration")
}

func TestMigrateV1AnonymousUsesDefaultKey(t *testing.T) {
	state, err := Migrate([]byte(v1AnonymousBlob))
	require.NoError(t, err)

	require.Contains(t, state.DataByUser, "default")
	require.Len(t, state.DataByUser["default"].Jobs, 1)
	assert.Equal(t, "Furnace tune-up", state.DataByUser["default"].Jobs[0].Title)
}

func TestMigrateV2AddsWorkspaceMaps(t *testing.T) {
	state, err := Migrate([]byte(v2Blob))
	require.NoError(t, err)

	assert.Equal(t, models.SchemaVersion, state.SchemaVersion)
	require.Contains(t, state.DataByUser, "user-1", "per-user data is preserved for lazy adoption")
	assert.NotNil(t, state.DataByWorkspace)
	assert.Empty(t, state.DataByWorkspace)
	assert.NotNil(t, state.Outbox)
	assert.NotNil(t, state.SyncCursors)
}

func TestMigrateIsIdempotent(t *testing.T) {
	once, err := Migrate([]byte(v1Blob))
	require.NoError(t, err)

	// Re-encode and run the chain again; nothing should move or duplicate.
	buf, err := json.Marshal(once)
	require.NoError(t, err)
	reencoded, err := Migrate(buf)
	require.NoError(t, err)

	assert.Equal(t, once.SchemaVersion, reencoded.SchemaVersion)
	require.Contains(t, reencoded.DataByUser, "user-1")
	assert.Len(t, reencoded.DataByUser["user-1"].Customers, 1)
	assert.Len(t, reencoded.DataByUser["user-1"].Parts, 1)
}

func TestMigrateRefusesNewerSchema(t *testing.T) {
	_, err := Migrate([]byte(`{"schema_version": 99}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer")
}

func TestBlobVersion(t *testing.T) {
	v, err := BlobVersion([]byte(v1Blob))
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = BlobVersion([]byte(v2Blob))
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	_, err = BlobVersion([]byte("not json"))
	require.Error(t, err)
}
