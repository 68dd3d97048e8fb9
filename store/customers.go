// ABOUTME: Customer store operations
// ABOUTME: Mutators and lookups over the active workspace slice
package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/fieldwork/models"
)

// AddCustomer creates a customer in the active workspace. Returns nil with
// no error when no workspace is active; callers treat that as a no-op.
func (s *Store) AddCustomer(c models.Customer) (*models.Customer, error) {
	s.mu.Lock()
	data := s.resolveWorkspaceLocked()
	if data == nil {
		s.mu.Unlock()
		return nil, nil
	}

	now := time.Now().UTC()
	c.ID = uuid.New()
	c.CreatedAt = now
	c.UpdatedAt = now

	ev, err := s.newChangeLocked(models.EntityCustomers, models.OpCreate, c, now)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	data.Customers = append(data.Customers, c)
	s.appendChangeLocked(ev)
	s.refreshViewLocked()
	s.snapshotLocked()
	s.mu.Unlock()

	s.scheduleSync()
	return &c, nil
}

func (s *Store) UpdateCustomer(id uuid.UUID, upd models.CustomerUpdate) (*models.Customer, error) {
	s.mu.Lock()
	data := s.resolveWorkspaceLocked()
	if data == nil {
		s.mu.Unlock()
		return nil, nil
	}

	idx := -1
	for i := range data.Customers {
		if data.Customers[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return nil, nil
	}

	c := data.Customers[idx]
	if upd.Name != nil {
		c.Name = *upd.Name
	}
	if upd.Email != nil {
		c.Email = *upd.Email
	}
	if upd.Phone != nil {
		c.Phone = *upd.Phone
	}
	if upd.Address != nil {
		c.Address = *upd.Address
	}
	if upd.Notes != nil {
		c.Notes = *upd.Notes
	}
	c.UpdatedAt = time.Now().UTC()

	ev, err := s.newChangeLocked(models.EntityCustomers, models.OpUpdate, c, c.UpdatedAt)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	data.Customers[idx] = c
	s.appendChangeLocked(ev)
	s.refreshViewLocked()
	s.snapshotLocked()
	s.mu.Unlock()

	s.scheduleSync()
	return &c, nil
}

// DeleteCustomer removes the record locally and queues a tombstone event.
// The tombstone carries a fresh updated_at so the delete wins on peers.
func (s *Store) DeleteCustomer(id uuid.UUID) (bool, error) {
	s.mu.Lock()
	data := s.resolveWorkspaceLocked()
	if data == nil {
		s.mu.Unlock()
		return false, nil
	}

	idx := -1
	for i := range data.Customers {
		if data.Customers[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false, nil
	}

	c := data.Customers[idx]
	now := time.Now().UTC()
	c.UpdatedAt = now

	ev, err := s.newChangeLocked(models.EntityCustomers, models.OpDelete, c, now)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}

	data.Customers = append(data.Customers[:idx], data.Customers[idx+1:]...)
	s.appendChangeLocked(ev)
	s.refreshViewLocked()
	s.snapshotLocked()
	s.mu.Unlock()

	s.scheduleSync()
	return true, nil
}

func (s *Store) CustomerByID(id uuid.UUID) *models.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.view.Customers {
		if s.view.Customers[i].ID == id {
			c := s.view.Customers[i]
			return &c
		}
	}
	return nil
}
