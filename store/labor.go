// ABOUTME: Labor catalog store operations
// ABOUTME: Hourly rate items referenced by job, quote, and invoice lines
package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/fieldwork/models"
)

func (s *Store) AddLaborItem(l models.LaborItem) (*models.LaborItem, error) {
	s.mu.Lock()
	data := s.resolveWorkspaceLocked()
	if data == nil {
		s.mu.Unlock()
		return nil, nil
	}

	now := time.Now().UTC()
	l.ID = uuid.New()
	l.CreatedAt = now
	l.UpdatedAt = now

	ev, err := s.newChangeLocked(models.EntityLaborItems, models.OpCreate, l, now)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	data.LaborItems = append(data.LaborItems, l)
	s.appendChangeLocked(ev)
	s.refreshViewLocked()
	s.snapshotLocked()
	s.mu.Unlock()

	s.scheduleSync()
	return &l, nil
}

func (s *Store) UpdateLaborItem(id uuid.UUID, upd models.LaborItemUpdate) (*models.LaborItem, error) {
	s.mu.Lock()
	data := s.resolveWorkspaceLocked()
	if data == nil {
		s.mu.Unlock()
		return nil, nil
	}

	idx := -1
	for i := range data.LaborItems {
		if data.LaborItems[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return nil, nil
	}

	l := data.LaborItems[idx]
	if upd.Name != nil {
		l.Name = *upd.Name
	}
	if upd.Description != nil {
		l.Description = *upd.Description
	}
	if upd.Rate != nil {
		l.Rate = *upd.Rate
	}
	l.UpdatedAt = time.Now().UTC()

	ev, err := s.newChangeLocked(models.EntityLaborItems, models.OpUpdate, l, l.UpdatedAt)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	data.LaborItems[idx] = l
	s.appendChangeLocked(ev)
	s.refreshViewLocked()
	s.snapshotLocked()
	s.mu.Unlock()

	s.scheduleSync()
	return &l, nil
}

func (s *Store) DeleteLaborItem(id uuid.UUID) (bool, error) {
	s.mu.Lock()
	data := s.resolveWorkspaceLocked()
	if data == nil {
		s.mu.Unlock()
		return false, nil
	}

	idx := -1
	for i := range data.LaborItems {
		if data.LaborItems[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false, nil
	}

	l := data.LaborItems[idx]
	now := time.Now().UTC()
	l.UpdatedAt = now

	ev, err := s.newChangeLocked(models.EntityLaborItems, models.OpDelete, l, now)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}

	data.LaborItems = append(data.LaborItems[:idx], data.LaborItems[idx+1:]...)
	s.appendChangeLocked(ev)
	s.refreshViewLocked()
	s.snapshotLocked()
	s.mu.Unlock()

	s.scheduleSync()
	return true, nil
}

func (s *Store) LaborItemByID(id uuid.UUID) *models.LaborItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.view.LaborItems {
		if s.view.LaborItems[i].ID == id {
			l := s.view.LaborItems[i]
			return &l
		}
	}
	return nil
}
