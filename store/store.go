// ABOUTME: In-memory authoritative store for all workspace data
// ABOUTME: Serializes access, derives the active view, and snapshots on change
package store

import (
	"log"
	"sync"
	"time"

	"github.com/harperreed/fieldwork/models"
)

// Store owns the whole application state. All reads and writes go through
// one mutex; mutators re-read current state inside the lock immediately
// before writing, so no stale reference can clobber a concurrent change.
type Store struct {
	mu      sync.Mutex
	state   *models.AppState
	view    *models.WorkspaceData
	save    func(*models.AppState) error
	trigger func()
	logger  *log.Logger
}

func New(state *models.AppState, logger *log.Logger) *Store {
	if state == nil {
		state = models.NewAppState()
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &Store{state: state, logger: logger}
	s.normalizeStateLocked()
	s.refreshViewLocked()
	return s
}

// SetSaver installs the persistence hook invoked after every state change.
func (s *Store) SetSaver(fn func(*models.AppState) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.save = fn
}

// SetSyncTrigger installs the fire-and-forget sync trigger scheduled after
// every mutation.
func (s *Store) SetSyncTrigger(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trigger = fn
}

// Older blobs may omit maps entirely.
func (s *Store) normalizeStateLocked() {
	if s.state.DataByUser == nil {
		s.state.DataByUser = map[string]*models.WorkspaceData{}
	}
	if s.state.DataByWorkspace == nil {
		s.state.DataByWorkspace = map[string]*models.WorkspaceData{}
	}
	if s.state.Outbox == nil {
		s.state.Outbox = map[string][]models.ChangeEvent{}
	}
	if s.state.SyncCursors == nil {
		s.state.SyncCursors = map[string]*time.Time{}
	}
	if s.state.LastSyncedAt == nil {
		s.state.LastSyncedAt = map[string]*time.Time{}
	}
}

// refreshViewLocked re-derives the mounted view from the active workspace
// slice. Must run after every mutation or merge, before the lock is
// released, so no reader observes a stale view.
func (s *Store) refreshViewLocked() {
	ws := s.state.Workspace
	if ws == nil || ws.ID == "" {
		s.view = &models.WorkspaceData{}
		return
	}
	data := s.state.DataByWorkspace[ws.ID]
	if data == nil {
		s.view = &models.WorkspaceData{}
		return
	}
	s.view = data.Clone()
}

func (s *Store) snapshotLocked() {
	if s.save == nil {
		return
	}
	if err := s.save(s.state); err != nil {
		s.logger.Printf("Failed to persist store: %v", err)
	}
}

// scheduleSync fires the async sync trigger. Best effort: failures inside
// the triggered sync surface through sync state, never here.
func (s *Store) scheduleSync() {
	s.mu.Lock()
	fn := s.trigger
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// View returns the currently mounted workspace slice. The returned data is
// a derived snapshot; callers must treat it as read-only.
func (s *Store) View() *models.WorkspaceData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

func (s *Store) Customers() []models.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.Customers
}

func (s *Store) Parts() []models.Part {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.Parts
}

func (s *Store) LaborItems() []models.LaborItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.LaborItems
}

func (s *Store) Jobs() []models.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.Jobs
}

func (s *Store) Quotes() []models.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.Quotes
}

func (s *Store) Invoices() []models.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.Invoices
}
