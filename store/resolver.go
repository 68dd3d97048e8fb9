// ABOUTME: Workspace resolver mapping the active identity to its data slice
// ABOUTME: Adopts legacy per-user slices into workspace slices on first touch
package store

import (
	"github.com/harperreed/fieldwork/models"
)

// resolveWorkspaceLocked returns the active workspace's slice, or nil when
// no user or workspace is active (mutators treat that as a silent no-op,
// since UI may call in before auth settles).
//
// Resolution order: an existing workspace slice wins; otherwise a legacy
// per-user slice is adopted as the workspace's initial data (one-time move,
// persisted immediately); otherwise an empty slice is initialized. Adoption
// removes the per-user entry, so resolving again finds the workspace slice
// and the migration stays idempotent.
func (s *Store) resolveWorkspaceLocked() *models.WorkspaceData {
	user := s.state.CurrentUser
	ws := s.state.Workspace
	if user == nil || ws == nil || ws.ID == "" {
		return nil
	}

	if data, ok := s.state.DataByWorkspace[ws.ID]; ok && data != nil {
		return data
	}

	if legacy, ok := s.state.DataByUser[user.ID]; ok && legacy != nil {
		s.state.DataByWorkspace[ws.ID] = legacy
		delete(s.state.DataByUser, user.ID)
		s.logger.Printf("Adopted legacy data for user %s into workspace %s", user.ID, ws.ID)
		s.snapshotLocked()
		return legacy
	}

	data := &models.WorkspaceData{}
	s.state.DataByWorkspace[ws.ID] = data
	return data
}
