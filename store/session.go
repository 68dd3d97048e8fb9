// ABOUTME: Session and workspace link operations
// ABOUTME: Sign-in/out and workspace membership state on this device
package store

import (
	"time"

	"github.com/harperreed/fieldwork/models"
)

// SignIn records the authenticated user. Workspace linkage is separate;
// a fresh account has none until it creates or joins one.
func (s *Store) SignIn(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CurrentUser = &user
	s.refreshViewLocked()
	s.snapshotLocked()
}

// SignOut clears the authenticated user and workspace linkage. Local data,
// outboxes, and cursors stay on disk so a later sign-in picks them back up.
// The sync engine calls this on auth failures ("forced sign-out").
func (s *Store) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CurrentUser = nil
	s.state.Workspace = nil
	s.refreshViewLocked()
	s.snapshotLocked()
}

// LinkWorkspace attaches this device to a workspace and resolves its slice
// right away so legacy data is adopted before the next mutation.
func (s *Store) LinkWorkspace(ws models.WorkspaceLink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Workspace = &ws
	s.resolveWorkspaceLocked()
	s.refreshViewLocked()
	s.snapshotLocked()
}

// UpdateTokens replaces the session tokens after a refresh.
func (s *Store) UpdateTokens(accessToken, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.CurrentUser == nil {
		return
	}
	s.state.CurrentUser.AccessToken = accessToken
	s.state.CurrentUser.RefreshToken = refreshToken
	s.snapshotLocked()
}

// CurrentUser returns a copy of the signed-in user, or nil.
func (s *Store) CurrentUser() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.CurrentUser == nil {
		return nil
	}
	u := *s.state.CurrentUser
	return &u
}

// Workspace returns a copy of the linked workspace, or nil.
func (s *Store) Workspace() *models.WorkspaceLink {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Workspace == nil {
		return nil
	}
	ws := *s.state.Workspace
	return &ws
}

// Cursor returns the user's last successful pull time; nil means "pull
// everything".
func (s *Store) Cursor(userID string) *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.state.SyncCursors[userID]
	if cur == nil {
		return nil
	}
	t := *cur
	return &t
}

// RecordSyncSuccess advances the user's pull cursor to the server-reported
// time and stamps last-synced-at. Called only after a fully successful
// push/pull/merge pass; an empty pull still lands here.
func (s *Store) RecordSyncSuccess(userID string, serverTime, syncedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := serverTime.UTC()
	sy := syncedAt.UTC()
	s.state.SyncCursors[userID] = &st
	s.state.LastSyncedAt[userID] = &sy
	s.snapshotLocked()
}

// LastSyncedAt returns when the user last completed a sync, or nil.
func (s *Store) LastSyncedAt(userID string) *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.state.LastSyncedAt[userID]
	if ts == nil {
		return nil
	}
	t := *ts
	return &t
}
