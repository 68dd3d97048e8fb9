// ABOUTME: Sync engine: push outbox, pull changes, merge, advance cursor
// ABOUTME: Single-flight guard, auth failure sign-out, observable state
package sync

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/fieldwork/models"
	"github.com/harperreed/fieldwork/store"
)

// Precondition errors. SyncNow records these in its observable state and
// returns them without touching the server.
var (
	ErrNotSignedIn = errors.New("not signed in")
	ErrNoWorkspace = errors.New("no workspace linked")
	ErrNoUserID    = errors.New("no user id")
)

// ErrSessionExpired replaces auth-class failures after the forced local
// sign-out.
var ErrSessionExpired = errors.New("session expired")

// Engine drives push-then-pull synchronization between the local store and
// the remote server. At most one pass runs at a time.
type Engine struct {
	store  *store.Store
	client *Client
	cfg    *Config
	logger *log.Logger

	syncing atomic.Bool

	mu    sync.Mutex
	state models.SyncState
}

// NewEngine wires the store, remote client, and machine config together.
// A nil logger falls back to the standard logger.
func NewEngine(st *store.Store, client *Client, cfg *Config, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		store:  st,
		client: client,
		cfg:    cfg,
		logger: logger,
		state:  models.SyncState{Status: models.SyncStatusIdle},
	}
}

// SyncNow runs one push-then-pull pass. A pass already in flight makes
// this a silent no-op. Every failure is recorded in Status(); the return
// value mirrors it.
func (e *Engine) SyncNow(ctx context.Context) error {
	if !e.syncing.CompareAndSwap(false, true) {
		return nil
	}
	defer e.syncing.Store(false)

	user := e.store.CurrentUser()
	if user == nil || user.AccessToken == "" {
		return e.fail(ErrNotSignedIn)
	}
	ws := e.store.Workspace()
	if ws == nil {
		return e.fail(ErrNoWorkspace)
	}
	if user.ID == "" {
		return e.fail(ErrNoUserID)
	}

	e.setStatus(models.SyncStatusSyncing, "")

	// Push the full pending outbox, then clear exactly those events so
	// mutations landing mid-push stay queued for the next pass.
	pending := e.store.PendingChanges(user.ID)
	if len(pending) > 0 {
		resp, err := e.client.Push(ctx, user.AccessToken, ws.ID, e.cfg.DeviceID, pending)
		if err != nil {
			return e.fail(err)
		}
		ids := make([]uuid.UUID, len(pending))
		for i, ev := range pending {
			ids[i] = ev.ID
		}
		e.store.RemoveFromOutbox(user.ID, ids)
		e.logger.Printf("Pushed %d changes (%d accepted)", len(pending), resp.Accepted)
	}

	since := e.store.Cursor(user.ID)
	pull, err := e.client.Pull(ctx, user.AccessToken, ws.ID, since)
	if err != nil {
		return e.fail(err)
	}
	if len(pull.Changes) > 0 {
		if err := e.store.MergeRemoteChanges(pull.Changes); err != nil {
			return e.fail(err)
		}
		e.logger.Printf("Merged %d remote changes", len(pull.Changes))
	}

	// The cursor advances even on an empty pull; the merge above either
	// fully succeeded or we never got here.
	now := time.Now().UTC()
	e.store.RecordSyncSuccess(user.ID, pull.ServerTime, now)

	e.mu.Lock()
	e.state = models.SyncState{Status: models.SyncStatusIdle, LastSyncTime: &now}
	e.mu.Unlock()
	return nil
}

// Trigger starts a background sync pass and returns immediately.
// Overlapping triggers collapse into the in-flight pass.
func (e *Engine) Trigger() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = e.SyncNow(ctx)
	}()
}

// Status returns a copy of the current sync state.
func (e *Engine) Status() models.SyncState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// LastSyncedAt reports when the user last completed a successful pass.
func (e *Engine) LastSyncedAt(userID string) *time.Time {
	return e.store.LastSyncedAt(userID)
}

func (e *Engine) fail(err error) error {
	if isAuthError(err) {
		e.logger.Printf("Sync auth failure, signing out: %v", err)
		e.store.SignOut()
		err = ErrSessionExpired
	} else {
		e.logger.Printf("Sync failed: %v", err)
	}
	e.setStatus(models.SyncStatusError, err.Error())
	return err
}

func (e *Engine) setStatus(status, message string) {
	e.mu.Lock()
	e.state.Status = status
	e.state.ErrorMessage = message
	e.mu.Unlock()
}

// isAuthError classifies failures that mean the session is dead rather
// than the network or server being unhappy.
func isAuthError(err error) bool {
	if errors.Is(err, ErrUnauthorized) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "jwt") ||
		strings.Contains(msg, "token expired") ||
		strings.Contains(msg, "invalid token")
}
