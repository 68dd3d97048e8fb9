// ABOUTME: HTTP JSON server for multi-device sync
// ABOUTME: Auth, workspace membership, and the push/pull change feed
package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/harperreed/fieldwork/db"
	"github.com/harperreed/fieldwork/models"
)

var errMissingToken = errors.New("missing bearer token")

// Server exposes the sync API over HTTP.
type Server struct {
	db         *sql.DB
	auth       *JWTManager
	refreshTTL time.Duration
	logger     *log.Logger
	mux        *http.ServeMux
}

// NewServer wires the API routes onto a fresh mux. A nil logger falls back
// to the process default.
func NewServer(database *sql.DB, auth *JWTManager, refreshTTL time.Duration, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		db:         database,
		auth:       auth,
		refreshTTL: refreshTTL,
		logger:     logger,
		mux:        http.NewServeMux(),
	}

	s.mux.HandleFunc("/api/v1/auth/register", s.handleRegister)
	s.mux.HandleFunc("/api/v1/auth/login", s.handleLogin)
	s.mux.HandleFunc("/api/v1/auth/refresh", s.handleRefresh)
	s.mux.HandleFunc("/api/v1/workspaces", s.handleCreateWorkspace)
	s.mux.HandleFunc("/api/v1/workspaces/join", s.handleJoinWorkspace)
	s.mux.HandleFunc("/api/v1/sync/push", s.handlePush)
	s.mux.HandleFunc("/api/v1/sync/pull", s.handlePull)

	return s
}

// Handler returns the route table for serving or testing.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start blocks serving the API at addr.
func (s *Server) Start(addr string) error {
	s.logger.Printf("Starting sync server at %s", addr)
	return http.ListenAndServe(addr, s.mux)
}

type userPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type authResponse struct {
	User         userPayload `json:"user"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type workspaceResponse struct {
	WorkspaceID string `json:"workspace_id"`
	Name        string `json:"name"`
	InviteCode  string `json:"invite_code"`
}

type joinResponse struct {
	WorkspaceID string `json:"workspace_id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
}

type pushResponse struct {
	Success  bool `json:"success"`
	Accepted int  `json:"accepted"`
}

type pullResponse struct {
	Changes    []models.ChangeEvent `json:"changes"`
	ServerTime time.Time            `json:"server_time"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// authenticate resolves the bearer token to a user id.
func (s *Server) authenticate(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", errMissingToken
	}
	return s.auth.ValidateAccessToken(strings.TrimPrefix(header, prefix))
}

// issueTokens creates an access/refresh pair and stores the refresh hash.
func (s *Server) issueTokens(userID string) (string, string, error) {
	access, err := s.auth.GenerateAccessToken(userID)
	if err != nil {
		return "", "", err
	}
	refresh, hash, err := NewRefreshToken()
	if err != nil {
		return "", "", err
	}
	if err := db.InsertRefreshToken(s.db, hash, userID, time.Now().UTC().Add(s.refreshTTL)); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	existing, err := db.GetUserByEmail(s.db, req.Email)
	if err != nil {
		s.internalError(w, "look up user", err)
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.internalError(w, "hash password", err)
		return
	}

	user, err := db.CreateUser(s.db, req.Email, req.Name, string(hash))
	if err != nil {
		s.internalError(w, "create user", err)
		return
	}

	access, refresh, err := s.issueTokens(user.ID)
	if err != nil {
		s.internalError(w, "issue tokens", err)
		return
	}

	s.logger.Printf("Registered user %s", user.Email)
	writeJSON(w, http.StatusCreated, authResponse{
		User:         userPayload{ID: user.ID, Email: user.Email, Name: user.Name},
		AccessToken:  access,
		RefreshToken: refresh,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := db.GetUserByEmail(s.db, req.Email)
	if err != nil {
		s.internalError(w, "look up user", err)
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	access, refresh, err := s.issueTokens(user.ID)
	if err != nil {
		s.internalError(w, "issue tokens", err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		User:         userPayload{ID: user.ID, Email: user.Email, Name: user.Name},
		AccessToken:  access,
		RefreshToken: refresh,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	stored, err := db.GetRefreshToken(s.db, HashToken(req.RefreshToken))
	if err != nil {
		s.internalError(w, "look up refresh token", err)
		return
	}
	if stored == nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	if time.Now().UTC().After(stored.ExpiresAt) {
		_ = db.DeleteRefreshToken(s.db, stored.TokenHash)
		writeError(w, http.StatusUnauthorized, "refresh token expired")
		return
	}

	// Rotation: the presented token is revoked before a new pair is issued.
	if err := db.DeleteRefreshToken(s.db, stored.TokenHash); err != nil {
		s.internalError(w, "revoke refresh token", err)
		return
	}
	if err := db.DeleteExpiredRefreshTokens(s.db); err != nil {
		s.logger.Printf("Failed to prune expired refresh tokens: %v", err)
	}

	access, refresh, err := s.issueTokens(stored.UserID)
	if err != nil {
		s.internalError(w, "issue tokens", err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: access, RefreshToken: refresh})
}

func (s *Server) handleCreateWorkspace(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID, err := s.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "workspace name is required")
		return
	}

	ws, err := db.CreateWorkspace(s.db, req.Name)
	if err != nil {
		s.internalError(w, "create workspace", err)
		return
	}
	if err := db.AddMember(s.db, ws.ID, userID, models.RoleOwner); err != nil {
		s.internalError(w, "add owner", err)
		return
	}

	s.logger.Printf("Created workspace %q (%s)", ws.Name, ws.ID)
	writeJSON(w, http.StatusCreated, workspaceResponse{
		WorkspaceID: ws.ID,
		Name:        ws.Name,
		InviteCode:  ws.InviteCode,
	})
}

func (s *Server) handleJoinWorkspace(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID, err := s.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req struct {
		Email      string `json:"email"`
		InviteCode string `json:"invite_code"`
		DeviceID   string `json:"device_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.InviteCode == "" {
		writeError(w, http.StatusBadRequest, "invite code is required")
		return
	}

	ws, err := db.GetWorkspaceByInviteCode(s.db, req.InviteCode)
	if err != nil {
		s.internalError(w, "look up invite code", err)
		return
	}
	if ws == nil {
		writeError(w, http.StatusNotFound, "invite code not found")
		return
	}

	// Joining twice is harmless; an existing membership keeps its role.
	if err := db.AddMember(s.db, ws.ID, userID, models.RoleMember); err != nil {
		s.internalError(w, "add member", err)
		return
	}
	membership, err := db.GetMembership(s.db, ws.ID, userID)
	if err != nil || membership == nil {
		s.internalError(w, "read membership", err)
		return
	}

	s.logger.Printf("User %s joined workspace %q (device %s)", userID, ws.Name, req.DeviceID)
	writeJSON(w, http.StatusOK, joinResponse{
		WorkspaceID: ws.ID,
		Name:        ws.Name,
		Role:        membership.Role,
	})
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID, err := s.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req struct {
		WorkspaceID string               `json:"workspace_id"`
		DeviceID    string               `json:"device_id"`
		Changes     []models.ChangeEvent `json:"changes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.WorkspaceID == "" {
		writeError(w, http.StatusBadRequest, "workspace_id is required")
		return
	}

	if !s.requireMembership(w, req.WorkspaceID, userID) {
		return
	}

	accepted := 0
	for _, ev := range req.Changes {
		inserted, err := db.InsertChange(s.db, req.WorkspaceID, req.DeviceID, ev)
		if err != nil {
			s.internalError(w, "store change", err)
			return
		}
		if inserted {
			accepted++
		}
	}

	writeJSON(w, http.StatusOK, pushResponse{Success: true, Accepted: accepted})
}

func (s *Server) handlePull(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID, err := s.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	workspaceID := r.URL.Query().Get("workspace_id")
	if workspaceID == "" {
		writeError(w, http.StatusBadRequest, "workspace_id is required")
		return
	}

	var since *time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid since timestamp")
			return
		}
		since = &parsed
	}

	if !s.requireMembership(w, workspaceID, userID) {
		return
	}

	// Captured before the query so nothing received mid-pull can land
	// between the returned cursor and the returned changes.
	serverTime := time.Now().UTC()

	changes, err := db.ChangesSince(s.db, workspaceID, since)
	if err != nil {
		s.internalError(w, "read changes", err)
		return
	}
	if changes == nil {
		changes = []models.ChangeEvent{}
	}

	writeJSON(w, http.StatusOK, pullResponse{Changes: changes, ServerTime: serverTime})
}

// requireMembership writes a 403 and returns false when the user does not
// belong to the workspace.
func (s *Server) requireMembership(w http.ResponseWriter, workspaceID, userID string) bool {
	membership, err := db.GetMembership(s.db, workspaceID, userID)
	if err != nil {
		s.internalError(w, "check membership", err)
		return false
	}
	if membership == nil {
		writeError(w, http.StatusForbidden, "not a member of this workspace")
		return false
	}
	return true
}

func (s *Server) internalError(w http.ResponseWriter, action string, err error) {
	s.logger.Printf("Failed to %s: %v", action, err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
