// ABOUTME: Per-user outbox of change events awaiting upload
// ABOUTME: Append-only until a push succeeds, then cleared by event id
package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/fieldwork/models"
)

// appendChangeLocked queues one change event for the acting user. Callers
// hold the lock and have already applied the mutation the event describes.
func (s *Store) appendChangeLocked(ev models.ChangeEvent) {
	user := s.state.CurrentUser
	if user == nil || user.ID == "" {
		return
	}
	s.state.Outbox[user.ID] = append(s.state.Outbox[user.ID], ev)
}

// newChangeLocked builds the event for a mutation before the slice is
// touched, so a marshal failure aborts with nothing half-applied.
func (s *Store) newChangeLocked(entity, op string, row any, ts time.Time) (models.ChangeEvent, error) {
	return models.NewChangeEvent(entity, op, row, ts)
}

// PendingChanges returns a copy of the user's queued events in append order.
func (s *Store) PendingChanges(userID string) []models.ChangeEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	queue := s.state.Outbox[userID]
	if len(queue) == 0 {
		return nil
	}
	return append([]models.ChangeEvent(nil), queue...)
}

func (s *Store) OutboxLen(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.Outbox[userID])
}

// RemoveFromOutbox drops exactly the given event ids from the user's queue.
// It re-reads the live queue under the lock, so events appended while a
// push was in flight survive the clear.
func (s *Store) RemoveFromOutbox(userID string, eventIDs []uuid.UUID) {
	if len(eventIDs) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[uuid.UUID]struct{}, len(eventIDs))
	for _, id := range eventIDs {
		drop[id] = struct{}{}
	}

	queue := s.state.Outbox[userID]
	kept := queue[:0]
	for _, ev := range queue {
		if _, ok := drop[ev.ID]; !ok {
			kept = append(kept, ev)
		}
	}

	if len(kept) == 0 {
		delete(s.state.Outbox, userID)
	} else {
		s.state.Outbox[userID] = kept
	}
	s.snapshotLocked()
}
