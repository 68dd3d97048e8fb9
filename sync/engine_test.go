// ABOUTME: Engine tests over an httptest sync server
// ABOUTME: Push/pull flow, single-flight, auth sign-out, cursor behavior
package sync

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/fieldwork/models"
	"github.com/harperreed/fieldwork/store"
)

func newSyncedStore(t *testing.T) *store.Store {
	t.Helper()
	s := store.New(nil, log.New(io.Discard, "", 0))
	s.SignIn(models.User{ID: "user-1", Email: "tech@example.com", AccessToken: "tok", RefreshToken: "refresh"})
	s.LinkWorkspace(models.WorkspaceLink{ID: "ws-1", Name: "Shop", Role: models.RoleOwner})
	return s
}

func newTestEngine(t *testing.T, st *store.Store, handler http.Handler) *Engine {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := &Config{ServerURL: srv.URL, DeviceID: "dev-1"}
	return NewEngine(st, NewClient(srv.URL), cfg, log.New(io.Discard, "", 0))
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestSyncPushPullMerge(t *testing.T) {
	st := newSyncedStore(t)
	_, err := st.AddCustomer(models.Customer{Name: "Local"})
	require.NoError(t, err)
	require.Equal(t, 1, st.OutboxLen("user-1"))

	serverTime := time.Now().UTC().Add(time.Second)
	remote := models.Customer{ID: uuid.New(), Name: "Remote", UpdatedAt: serverTime}
	remoteEv, err := models.NewChangeEvent(models.EntityCustomers, models.OpCreate, remote, serverTime)
	require.NoError(t, err)

	var pushed PushRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/sync/push", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&pushed))
		writeJSON(t, w, PushResponse{Success: true, Accepted: len(pushed.Changes)})
	})
	mux.HandleFunc("/api/v1/sync/pull", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ws-1", r.URL.Query().Get("workspace_id"))
		assert.Empty(t, r.URL.Query().Get("since"), "first pull asks for everything")
		writeJSON(t, w, PullResponse{Changes: []models.ChangeEvent{remoteEv}, ServerTime: serverTime})
	})

	eng := newTestEngine(t, st, mux)
	require.NoError(t, eng.SyncNow(context.Background()))

	assert.Equal(t, "ws-1", pushed.WorkspaceID)
	assert.Equal(t, "dev-1", pushed.DeviceID)
	require.Len(t, pushed.Changes, 1)

	assert.Zero(t, st.OutboxLen("user-1"), "pushed events leave the outbox")
	require.NotNil(t, st.CustomerByID(remote.ID), "pulled events are merged")

	cursor := st.Cursor("user-1")
	require.NotNil(t, cursor)
	assert.True(t, cursor.Equal(serverTime), "cursor advances to server time")

	status := eng.Status()
	assert.Equal(t, models.SyncStatusIdle, status.Status)
	assert.Empty(t, status.ErrorMessage)
	assert.NotNil(t, status.LastSyncTime)
}

func TestSyncSingleFlight(t *testing.T) {
	st := newSyncedStore(t)
	_, err := st.AddCustomer(models.Customer{Name: "Local"})
	require.NoError(t, err)

	var pushCalls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/sync/push", func(w http.ResponseWriter, r *http.Request) {
		pushCalls.Add(1)
		close(entered)
		<-release
		writeJSON(t, w, PushResponse{Success: true, Accepted: 1})
	})
	mux.HandleFunc("/api/v1/sync/pull", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, PullResponse{ServerTime: time.Now().UTC()})
	})

	eng := newTestEngine(t, st, mux)

	done := make(chan error, 1)
	go func() { done <- eng.SyncNow(context.Background()) }()
	<-entered

	// The second call must bounce off the in-flight pass without touching
	// the server.
	require.NoError(t, eng.SyncNow(context.Background()))
	assert.Equal(t, int32(1), pushCalls.Load())

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), pushCalls.Load(), "exactly one push for two concurrent calls")
}

func TestSyncEventsDuringPushSurvive(t *testing.T) {
	st := newSyncedStore(t)
	_, err := st.AddCustomer(models.Customer{Name: "E1"})
	require.NoError(t, err)
	_, err = st.AddCustomer(models.Customer{Name: "E2"})
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/sync/push", func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		writeJSON(t, w, PushResponse{Success: true, Accepted: 2})
	})
	mux.HandleFunc("/api/v1/sync/pull", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, PullResponse{ServerTime: time.Now().UTC()})
	})

	eng := newTestEngine(t, st, mux)

	done := make(chan error, 1)
	go func() { done <- eng.SyncNow(context.Background()) }()
	<-entered

	// E3 lands while E1/E2 are on the wire.
	_, err = st.AddCustomer(models.Customer{Name: "E3"})
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-done)

	remaining := st.PendingChanges("user-1")
	require.Len(t, remaining, 1, "the racing event must stay queued")
	var row models.Customer
	require.NoError(t, json.Unmarshal(remaining[0].Row, &row))
	assert.Equal(t, "E3", row.Name)
}

func TestSyncPreconditions(t *testing.T) {
	eng := newTestEngine(t, store.New(nil, log.New(io.Discard, "", 0)), http.NewServeMux())

	err := eng.SyncNow(context.Background())
	assert.ErrorIs(t, err, ErrNotSignedIn)
	assert.Equal(t, models.SyncStatusError, eng.Status().Status)
	assert.Equal(t, "not signed in", eng.Status().ErrorMessage)

	st := store.New(nil, log.New(io.Discard, "", 0))
	st.SignIn(models.User{ID: "user-1", AccessToken: "tok"})
	eng = newTestEngine(t, st, http.NewServeMux())
	assert.ErrorIs(t, eng.SyncNow(context.Background()), ErrNoWorkspace)

	st = store.New(nil, log.New(io.Discard, "", 0))
	st.SignIn(models.User{AccessToken: "tok"})
	st.LinkWorkspace(models.WorkspaceLink{ID: "ws-1"})
	eng = newTestEngine(t, st, http.NewServeMux())
	assert.ErrorIs(t, eng.SyncNow(context.Background()), ErrNoUserID)
}

func TestSyncAuthFailureForcesSignOut(t *testing.T) {
	st := newSyncedStore(t)
	_, err := st.AddCustomer(models.Customer{Name: "Local"})
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/sync/push", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		writeJSON(t, w, map[string]string{"error": "token expired"})
	})

	eng := newTestEngine(t, st, mux)
	err = eng.SyncNow(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)

	assert.Nil(t, st.CurrentUser(), "dead session forces a local sign-out")
	assert.Equal(t, 1, st.OutboxLen("user-1"), "pending events survive for the next session")
	assert.Equal(t, "session expired", eng.Status().ErrorMessage)
}

func TestSyncTransportErrorLeavesStateUntouched(t *testing.T) {
	st := newSyncedStore(t)
	_, err := st.AddCustomer(models.Customer{Name: "Local"})
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/sync/push", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	eng := newTestEngine(t, st, mux)
	err = eng.SyncNow(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionExpired)

	assert.NotNil(t, st.CurrentUser(), "transport failures keep the session")
	assert.Equal(t, 1, st.OutboxLen("user-1"))
	assert.Nil(t, st.Cursor("user-1"))
	assert.Equal(t, models.SyncStatusError, eng.Status().Status)

	// The guard resets, so the next pass can run.
	assert.False(t, eng.syncing.Load())
}

func TestSyncEmptyPullAdvancesCursor(t *testing.T) {
	st := newSyncedStore(t)
	serverTime := time.Now().UTC()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/sync/pull", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, PullResponse{ServerTime: serverTime})
	})

	eng := newTestEngine(t, st, mux)
	require.NoError(t, eng.SyncNow(context.Background()))

	cursor := st.Cursor("user-1")
	require.NotNil(t, cursor, "empty pulls still advance the cursor")
	assert.True(t, cursor.Equal(serverTime))
	assert.NotNil(t, eng.LastSyncedAt("user-1"))
}

func TestSyncMergeFailureKeepsCursor(t *testing.T) {
	st := newSyncedStore(t)

	bad := models.ChangeEvent{
		ID:        uuid.New(),
		Entity:    "widgets",
		Op:        models.OpCreate,
		Row:       json.RawMessage(`{}`),
		UpdatedAt: time.Now().UTC(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/sync/pull", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, PullResponse{Changes: []models.ChangeEvent{bad}, ServerTime: time.Now().UTC()})
	})

	eng := newTestEngine(t, st, mux)
	require.Error(t, eng.SyncNow(context.Background()))

	assert.Nil(t, st.Cursor("user-1"), "failed merge must not advance the cursor")
	assert.Equal(t, models.SyncStatusError, eng.Status().Status)
}

func TestSyncSecondPullUsesCursor(t *testing.T) {
	st := newSyncedStore(t)
	first := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	var sinceSeen []string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/sync/pull", func(w http.ResponseWriter, r *http.Request) {
		sinceSeen = append(sinceSeen, r.URL.Query().Get("since"))
		writeJSON(t, w, PullResponse{ServerTime: first})
	})

	eng := newTestEngine(t, st, mux)
	require.NoError(t, eng.SyncNow(context.Background()))
	require.NoError(t, eng.SyncNow(context.Background()))

	require.Len(t, sinceSeen, 2)
	assert.Empty(t, sinceSeen[0])
	assert.Equal(t, first.Format(time.RFC3339Nano), sinceSeen[1])
}
