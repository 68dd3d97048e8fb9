// ABOUTME: Part catalog store operations
// ABOUTME: Mutators and lookups; stock also moves via invoice line items
package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/fieldwork/models"
)

func (s *Store) AddPart(p models.Part) (*models.Part, error) {
	s.mu.Lock()
	data := s.resolveWorkspaceLocked()
	if data == nil {
		s.mu.Unlock()
		return nil, nil
	}

	now := time.Now().UTC()
	p.ID = uuid.New()
	p.CreatedAt = now
	p.UpdatedAt = now

	ev, err := s.newChangeLocked(models.EntityParts, models.OpCreate, p, now)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	data.Parts = append(data.Parts, p)
	s.appendChangeLocked(ev)
	s.refreshViewLocked()
	s.snapshotLocked()
	s.mu.Unlock()

	s.scheduleSync()
	return &p, nil
}

func (s *Store) UpdatePart(id uuid.UUID, upd models.PartUpdate) (*models.Part, error) {
	s.mu.Lock()
	data := s.resolveWorkspaceLocked()
	if data == nil {
		s.mu.Unlock()
		return nil, nil
	}

	idx := -1
	for i := range data.Parts {
		if data.Parts[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return nil, nil
	}

	p := data.Parts[idx]
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.SKU != nil {
		p.SKU = *upd.SKU
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.UnitPrice != nil {
		p.UnitPrice = *upd.UnitPrice
	}
	if upd.Cost != nil {
		p.Cost = *upd.Cost
	}
	if upd.Stock != nil {
		p.Stock = *upd.Stock
	}
	p.UpdatedAt = time.Now().UTC()

	ev, err := s.newChangeLocked(models.EntityParts, models.OpUpdate, p, p.UpdatedAt)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	data.Parts[idx] = p
	s.appendChangeLocked(ev)
	s.refreshViewLocked()
	s.snapshotLocked()
	s.mu.Unlock()

	s.scheduleSync()
	return &p, nil
}

func (s *Store) DeletePart(id uuid.UUID) (bool, error) {
	s.mu.Lock()
	data := s.resolveWorkspaceLocked()
	if data == nil {
		s.mu.Unlock()
		return false, nil
	}

	idx := -1
	for i := range data.Parts {
		if data.Parts[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false, nil
	}

	p := data.Parts[idx]
	now := time.Now().UTC()
	p.UpdatedAt = now

	ev, err := s.newChangeLocked(models.EntityParts, models.OpDelete, p, now)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}

	data.Parts = append(data.Parts[:idx], data.Parts[idx+1:]...)
	s.appendChangeLocked(ev)
	s.refreshViewLocked()
	s.snapshotLocked()
	s.mu.Unlock()

	s.scheduleSync()
	return true, nil
}

func (s *Store) PartByID(id uuid.UUID) *models.Part {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.view.Parts {
		if s.view.Parts[i].ID == id {
			p := s.view.Parts[i]
			return &p
		}
	}
	return nil
}
