// ABOUTME: HTTP tests for the sync server API
// ABOUTME: Auth flows, workspace membership, and the push/pull change feed
package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/fieldwork/db"
	"github.com/harperreed/fieldwork/models"
	"github.com/harperreed/fieldwork/sync"
)

type errorPayload struct {
	Error string `json:"error"`
}

func newTestServer(t *testing.T) (*httptest.Server, *sql.DB) {
	t.Helper()

	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	srv := NewServer(database, NewJWTManager(testSecret, 30*time.Minute), 720*time.Hour, log.New(io.Discard, "", 0))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, database
}

// doJSON fires a request and decodes the response body into out when given.
func doJSON(t *testing.T, method, url, token string, body, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func registerTestUser(t *testing.T, ts *httptest.Server, email string) authResponse {
	t.Helper()

	var out authResponse
	status := doJSON(t, http.MethodPost, ts.URL+"/api/v1/auth/register", "", map[string]string{
		"email":    email,
		"password": "correct-horse-battery",
		"name":     "Test User",
	}, &out)
	require.Equal(t, http.StatusCreated, status)
	return out
}

func createTestWorkspace(t *testing.T, ts *httptest.Server, token, name string) workspaceResponse {
	t.Helper()

	var out workspaceResponse
	status := doJSON(t, http.MethodPost, ts.URL+"/api/v1/workspaces", token, map[string]string{"name": name}, &out)
	require.Equal(t, http.StatusCreated, status)
	return out
}

func customerEvent(t *testing.T, name string, at time.Time) models.ChangeEvent {
	t.Helper()

	row := models.Customer{ID: uuid.New(), Name: name, CreatedAt: at, UpdatedAt: at}
	ev, err := models.NewChangeEvent(models.EntityCustomers, models.OpCreate, row, at)
	require.NoError(t, err)
	return ev
}

func TestRegisterIssuesSession(t *testing.T) {
	ts, database := newTestServer(t)

	out := registerTestUser(t, ts, "amy@example.com")
	assert.NotEmpty(t, out.User.ID)
	assert.Equal(t, "amy@example.com", out.User.Email)
	assert.Equal(t, "Test User", out.User.Name)
	assert.NotEmpty(t, out.AccessToken)
	assert.Len(t, out.RefreshToken, 64)

	// Only the hash of the refresh token is stored.
	stored, err := db.GetRefreshToken(database, HashToken(out.RefreshToken))
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, out.User.ID, stored.UserID)

	raw, err := db.GetRefreshToken(database, out.RefreshToken)
	require.NoError(t, err)
	assert.Nil(t, raw, "raw refresh token must never be a valid lookup key")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ts, _ := newTestServer(t)
	registerTestUser(t, ts, "amy@example.com")

	var out errorPayload
	status := doJSON(t, http.MethodPost, ts.URL+"/api/v1/auth/register", "", map[string]string{
		"email":    "amy@example.com",
		"password": "another-password",
	}, &out)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "email already registered", out.Error)
}

func TestRegisterRequiresEmailAndPassword(t *testing.T) {
	ts, _ := newTestServer(t)

	var out errorPayload
	status := doJSON(t, http.MethodPost, ts.URL+"/api/v1/auth/register", "", map[string]string{
		"email": "amy@example.com",
	}, &out)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, out.Error, "required")
}

func TestLogin(t *testing.T) {
	ts, _ := newTestServer(t)
	registerTestUser(t, ts, "amy@example.com")

	var ok authResponse
	status := doJSON(t, http.MethodPost, ts.URL+"/api/v1/auth/login", "", map[string]string{
		"email":    "amy@example.com",
		"password": "correct-horse-battery",
	}, &ok)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, ok.AccessToken)
	assert.NotEmpty(t, ok.RefreshToken)

	var bad errorPayload
	status = doJSON(t, http.MethodPost, ts.URL+"/api/v1/auth/login", "", map[string]string{
		"email":    "amy@example.com",
		"password": "wrong",
	}, &bad)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid email or password", bad.Error)

	// Unknown accounts get the same answer as bad passwords.
	status = doJSON(t, http.MethodPost, ts.URL+"/api/v1/auth/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "whatever",
	}, &bad)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid email or password", bad.Error)
}

func TestRefreshRotatesTokens(t *testing.T) {
	ts, database := newTestServer(t)
	session := registerTestUser(t, ts, "amy@example.com")

	var rotated tokenResponse
	status := doJSON(t, http.MethodPost, ts.URL+"/api/v1/auth/refresh", "", map[string]string{
		"refresh_token": session.RefreshToken,
	}, &rotated)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, rotated.AccessToken)
	assert.NotEqual(t, session.RefreshToken, rotated.RefreshToken, "refresh must rotate the token")

	// The presented token is revoked, so replaying it fails.
	var replay errorPayload
	status = doJSON(t, http.MethodPost, ts.URL+"/api/v1/auth/refresh", "", map[string]string{
		"refresh_token": session.RefreshToken,
	}, &replay)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid refresh token", replay.Error)

	stored, err := db.GetRefreshToken(database, HashToken(session.RefreshToken))
	require.NoError(t, err)
	assert.Nil(t, stored, "revoked token should be gone from storage")
}

func TestRefreshRejectsExpired(t *testing.T) {
	ts, database := newTestServer(t)
	session := registerTestUser(t, ts, "amy@example.com")

	const raw = "expired-refresh-token"
	require.NoError(t, db.InsertRefreshToken(database, HashToken(raw), session.User.ID, time.Now().UTC().Add(-time.Hour)))

	var out errorPayload
	status := doJSON(t, http.MethodPost, ts.URL+"/api/v1/auth/refresh", "", map[string]string{
		"refresh_token": raw,
	}, &out)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "refresh token expired", out.Error)

	stored, err := db.GetRefreshToken(database, HashToken(raw))
	require.NoError(t, err)
	assert.Nil(t, stored, "expired token should be deleted on use")
}

func TestWorkspaceCreate(t *testing.T) {
	ts, _ := newTestServer(t)
	session := registerTestUser(t, ts, "amy@example.com")

	ws := createTestWorkspace(t, ts, session.AccessToken, "Amy's Shop")
	assert.Equal(t, "Amy's Shop", ws.Name)
	assert.Len(t, ws.InviteCode, 8)
	_, err := uuid.Parse(ws.WorkspaceID)
	assert.NoError(t, err, "workspace id should be a UUID")

	// The creator can push immediately, so the owner membership exists.
	var push pushResponse
	status := doJSON(t, http.MethodPost, ts.URL+"/api/v1/sync/push", session.AccessToken, map[string]any{
		"workspace_id": ws.WorkspaceID,
		"device_id":    "dev-1",
		"changes":      []models.ChangeEvent{},
	}, &push)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, push.Success)
}

func TestWorkspaceRequiresAuth(t *testing.T) {
	ts, _ := newTestServer(t)

	var out errorPayload
	status := doJSON(t, http.MethodPost, ts.URL+"/api/v1/workspaces", "", map[string]string{"name": "X"}, &out)
	assert.Equal(t, http.StatusUnauthorized, status)

	status = doJSON(t, http.MethodPost, ts.URL+"/api/v1/workspaces/join", "garbage-token", map[string]string{"invite_code": "AAAA2222"}, &out)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestWorkspaceJoinFlow(t *testing.T) {
	ts, _ := newTestServer(t)
	owner := registerTestUser(t, ts, "amy@example.com")
	ws := createTestWorkspace(t, ts, owner.AccessToken, "Shared Shop")

	joiner := registerTestUser(t, ts, "bob@example.com")
	body := map[string]string{
		"email":       "bob@example.com",
		"invite_code": ws.InviteCode,
		"device_id":   "dev-b",
	}

	var joined joinResponse
	status := doJSON(t, http.MethodPost, ts.URL+"/api/v1/workspaces/join", joiner.AccessToken, body, &joined)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, ws.WorkspaceID, joined.WorkspaceID)
	assert.Equal(t, "Shared Shop", joined.Name)
	assert.Equal(t, models.RoleMember, joined.Role)

	// Joining again is idempotent.
	status = doJSON(t, http.MethodPost, ts.URL+"/api/v1/workspaces/join", joiner.AccessToken, body, &joined)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.RoleMember, joined.Role)

	// The owner joining through the invite keeps the owner role.
	var rejoined joinResponse
	status = doJSON(t, http.MethodPost, ts.URL+"/api/v1/workspaces/join", owner.AccessToken, map[string]string{
		"invite_code": ws.InviteCode,
		"device_id":   "dev-a",
	}, &rejoined)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.RoleOwner, rejoined.Role)

	var missing errorPayload
	status = doJSON(t, http.MethodPost, ts.URL+"/api/v1/workspaces/join", joiner.AccessToken, map[string]string{
		"invite_code": "NOPE9999",
	}, &missing)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "invite code not found", missing.Error)
}

func TestPushPull(t *testing.T) {
	ts, _ := newTestServer(t)
	session := registerTestUser(t, ts, "amy@example.com")
	ws := createTestWorkspace(t, ts, session.AccessToken, "Shop")

	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)
	e1 := customerEvent(t, "First", t1)
	e2 := customerEvent(t, "Second", t2)

	pushBody := map[string]any{
		"workspace_id": ws.WorkspaceID,
		"device_id":    "dev-1",
		"changes":      []models.ChangeEvent{e1, e2},
	}

	var push pushResponse
	status := doJSON(t, http.MethodPost, ts.URL+"/api/v1/sync/push", session.AccessToken, pushBody, &push)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, push.Success)
	assert.Equal(t, 2, push.Accepted)

	// Re-sending the same events is harmless.
	status = doJSON(t, http.MethodPost, ts.URL+"/api/v1/sync/push", session.AccessToken, pushBody, &push)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, push.Success)
	assert.Equal(t, 0, push.Accepted, "duplicate events should be ignored")

	var pull pullResponse
	status = doJSON(t, http.MethodGet, ts.URL+"/api/v1/sync/pull?workspace_id="+ws.WorkspaceID, session.AccessToken, nil, &pull)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, pull.Changes, 2)
	assert.Equal(t, e1.ID, pull.Changes[0].ID, "changes should come back oldest first")
	assert.Equal(t, e2.ID, pull.Changes[1].ID)
	assert.False(t, pull.ServerTime.IsZero())

	// The cursor is strict, so an exact timestamp match is excluded.
	sinceURL := ts.URL + "/api/v1/sync/pull?workspace_id=" + ws.WorkspaceID + "&since=" + t1.Format(time.RFC3339Nano)
	status = doJSON(t, http.MethodGet, sinceURL, session.AccessToken, nil, &pull)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, pull.Changes, 1)
	assert.Equal(t, e2.ID, pull.Changes[0].ID)

	// Pulling from the reported server time yields nothing new.
	sinceURL = ts.URL + "/api/v1/sync/pull?workspace_id=" + ws.WorkspaceID + "&since=" + pull.ServerTime.Format(time.RFC3339Nano)
	status = doJSON(t, http.MethodGet, sinceURL, session.AccessToken, nil, &pull)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, pull.Changes)
}

func TestPushPullRequireMembership(t *testing.T) {
	ts, _ := newTestServer(t)
	owner := registerTestUser(t, ts, "amy@example.com")
	ws := createTestWorkspace(t, ts, owner.AccessToken, "Shop")

	outsider := registerTestUser(t, ts, "eve@example.com")

	var out errorPayload
	status := doJSON(t, http.MethodPost, ts.URL+"/api/v1/sync/push", outsider.AccessToken, map[string]any{
		"workspace_id": ws.WorkspaceID,
		"device_id":    "dev-x",
		"changes":      []models.ChangeEvent{customerEvent(t, "Sneaky", time.Now().UTC())},
	}, &out)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "not a member of this workspace", out.Error)

	status = doJSON(t, http.MethodGet, ts.URL+"/api/v1/sync/pull?workspace_id="+ws.WorkspaceID, outsider.AccessToken, nil, &out)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestMethodNotAllowed(t *testing.T) {
	ts, _ := newTestServer(t)

	var out errorPayload
	status := doJSON(t, http.MethodGet, ts.URL+"/api/v1/auth/register", "", nil, &out)
	assert.Equal(t, http.StatusMethodNotAllowed, status)

	status = doJSON(t, http.MethodPost, ts.URL+"/api/v1/sync/pull", "", nil, &out)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}

// TestSyncClientCompatibility drives the real client against the server to
// pin the wire contract from both sides.
func TestSyncClientCompatibility(t *testing.T) {
	ts, _ := newTestServer(t)
	ctx := context.Background()
	client := sync.NewClient(ts.URL)

	amy, err := client.Register(ctx, "amy@example.com", "correct-horse-battery", "Amy")
	require.NoError(t, err)
	require.NotEmpty(t, amy.AccessToken)

	ws, err := client.CreateWorkspace(ctx, amy.AccessToken, "Shop")
	require.NoError(t, err)
	require.Len(t, ws.InviteCode, 8)

	bob, err := client.Register(ctx, "bob@example.com", "correct-horse-battery", "Bob")
	require.NoError(t, err)

	joined, err := client.AcceptInvite(ctx, bob.AccessToken, "bob@example.com", ws.InviteCode, "dev-b")
	require.NoError(t, err)
	assert.Equal(t, ws.WorkspaceID, joined.WorkspaceID)
	assert.Equal(t, models.RoleMember, joined.Role)

	at := time.Now().UTC().Truncate(time.Second)
	pushed, err := client.Push(ctx, amy.AccessToken, ws.WorkspaceID, "dev-a", []models.ChangeEvent{
		customerEvent(t, "Wire Format", at),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, pushed.Accepted)

	pulled, err := client.Pull(ctx, bob.AccessToken, ws.WorkspaceID, nil)
	require.NoError(t, err)
	require.Len(t, pulled.Changes, 1)
	assert.Equal(t, models.EntityCustomers, pulled.Changes[0].Entity)
	assert.True(t, pulled.Changes[0].UpdatedAt.Equal(at))

	_, err = client.Pull(ctx, "garbage-token", ws.WorkspaceID, nil)
	require.ErrorIs(t, err, sync.ErrUnauthorized)

	pair, err := client.Refresh(ctx, bob.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, bob.RefreshToken, pair.RefreshToken)
}
