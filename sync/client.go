// ABOUTME: HTTP client for the fieldwork sync server
// ABOUTME: Auth, workspace membership, and push/pull of change events
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/harperreed/fieldwork/models"
)

// ErrUnauthorized marks a 401 from the server. The engine treats it as a
// dead session and forces a local sign-out.
var ErrUnauthorized = errors.New("unauthorized")

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User         models.User `json:"user"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
}

// TokenPair is returned by refresh. The old refresh token is revoked.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// WorkspaceResponse is returned by workspace creation.
type WorkspaceResponse struct {
	WorkspaceID string `json:"workspace_id"`
	Name        string `json:"name"`
	InviteCode  string `json:"invite_code"`
}

// JoinResponse is returned by invite acceptance.
type JoinResponse struct {
	WorkspaceID string `json:"workspace_id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
}

// PushRequest carries the device's pending outbox to the server.
type PushRequest struct {
	WorkspaceID string               `json:"workspace_id"`
	DeviceID    string               `json:"device_id"`
	Changes     []models.ChangeEvent `json:"changes"`
}

// PushResponse acknowledges accepted change events.
type PushResponse struct {
	Success  bool `json:"success"`
	Accepted int  `json:"accepted"`
}

// PullResponse carries workspace changes since the requested cursor.
// ServerTime is the pull cursor for the next sync.
type PullResponse struct {
	Changes    []models.ChangeEvent `json:"changes"`
	ServerTime time.Time            `json:"server_time"`
}

// Client talks to a fieldwork sync server over HTTP JSON.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given server base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Register creates a server account and returns the signed-in identity.
func (c *Client) Register(ctx context.Context, email, password, name string) (*AuthResponse, error) {
	body := map[string]string{"email": email, "password": password, "name": name}
	var out AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/register", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login authenticates an existing account.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var out AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/login", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh exchanges a refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	body := map[string]string{"refresh_token": refreshToken}
	var out TokenPair
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/refresh", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateWorkspace creates a workspace owned by the caller.
func (c *Client) CreateWorkspace(ctx context.Context, token, name string) (*WorkspaceResponse, error) {
	body := map[string]string{"name": name}
	var out WorkspaceResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/workspaces", token, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AcceptInvite joins the caller to the workspace behind an invite code.
func (c *Client) AcceptInvite(ctx context.Context, token, email, inviteCode, deviceID string) (*JoinResponse, error) {
	body := map[string]string{"email": email, "invite_code": inviteCode, "device_id": deviceID}
	var out JoinResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/workspaces/join", token, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Push uploads pending change events for a workspace.
func (c *Client) Push(ctx context.Context, token, workspaceID, deviceID string, changes []models.ChangeEvent) (*PushResponse, error) {
	body := PushRequest{WorkspaceID: workspaceID, DeviceID: deviceID, Changes: changes}
	var out PushResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/sync/push", token, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Pull downloads workspace changes newer than since. A nil since asks for
// the full history.
func (c *Client) Pull(ctx context.Context, token, workspaceID string, since *time.Time) (*PullResponse, error) {
	query := url.Values{"workspace_id": {workspaceID}}
	if since != nil {
		query.Set("since", since.UTC().Format(time.RFC3339Nano))
	}
	var out PullResponse
	path := "/api/v1/sync/pull?" + query.Encode()
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s", ErrUnauthorized, serverMessage(resp.Body))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, serverMessage(resp.Body))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// serverMessage extracts the error string from a JSON error body, falling
// back to the raw text for non-JSON responses.
func serverMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return "no details"
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(data))
}
