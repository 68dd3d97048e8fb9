// ABOUTME: Job store operations
// ABOUTME: Scheduled work for a customer, with its own line items
package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/fieldwork/models"
)

func (s *Store) AddJob(j models.Job) (*models.Job, error) {
	s.mu.Lock()
	data := s.resolveWorkspaceLocked()
	if data == nil {
		s.mu.Unlock()
		return nil, nil
	}

	now := time.Now().UTC()
	j.ID = uuid.New()
	j.CreatedAt = now
	j.UpdatedAt = now
	if j.Status == "" {
		j.Status = models.JobStatusScheduled
	}
	j.LineItems = models.NormalizeLineItems(j.LineItems)

	ev, err := s.newChangeLocked(models.EntityJobs, models.OpCreate, j, now)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	data.Jobs = append(data.Jobs, j)
	s.appendChangeLocked(ev)
	s.refreshViewLocked()
	s.snapshotLocked()
	s.mu.Unlock()

	s.scheduleSync()
	return &j, nil
}

func (s *Store) UpdateJob(id uuid.UUID, upd models.JobUpdate) (*models.Job, error) {
	s.mu.Lock()
	data := s.resolveWorkspaceLocked()
	if data == nil {
		s.mu.Unlock()
		return nil, nil
	}

	idx := -1
	for i := range data.Jobs {
		if data.Jobs[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return nil, nil
	}

	j := data.Jobs[idx]
	if upd.CustomerID != nil {
		j.CustomerID = *upd.CustomerID
	}
	if upd.Title != nil {
		j.Title = *upd.Title
	}
	if upd.Description != nil {
		j.Description = *upd.Description
	}
	if upd.Status != nil {
		j.Status = *upd.Status
	}
	if upd.ScheduledAt != nil {
		ts := *upd.ScheduledAt
		j.ScheduledAt = &ts
	}
	if upd.LineItems != nil {
		j.LineItems = models.NormalizeLineItems(*upd.LineItems)
	}
	if upd.Notes != nil {
		j.Notes = *upd.Notes
	}
	j.UpdatedAt = time.Now().UTC()

	ev, err := s.newChangeLocked(models.EntityJobs, models.OpUpdate, j, j.UpdatedAt)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	data.Jobs[idx] = j
	s.appendChangeLocked(ev)
	s.refreshViewLocked()
	s.snapshotLocked()
	s.mu.Unlock()

	s.scheduleSync()
	return &j, nil
}

func (s *Store) DeleteJob(id uuid.UUID) (bool, error) {
	s.mu.Lock()
	data := s.resolveWorkspaceLocked()
	if data == nil {
		s.mu.Unlock()
		return false, nil
	}

	idx := -1
	for i := range data.Jobs {
		if data.Jobs[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false, nil
	}

	j := data.Jobs[idx]
	now := time.Now().UTC()
	j.UpdatedAt = now

	ev, err := s.newChangeLocked(models.EntityJobs, models.OpDelete, j, now)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}

	data.Jobs = append(data.Jobs[:idx], data.Jobs[idx+1:]...)
	s.appendChangeLocked(ev)
	s.refreshViewLocked()
	s.snapshotLocked()
	s.mu.Unlock()

	s.scheduleSync()
	return true, nil
}

func (s *Store) JobByID(id uuid.UUID) *models.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.view.Jobs {
		if s.view.Jobs[i].ID == id {
			j := s.view.Jobs[i]
			return &j
		}
	}
	return nil
}

func (s *Store) JobsForCustomer(customerID uuid.UUID) []models.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Job
	for _, j := range s.view.Jobs {
		if j.CustomerID == customerID {
			out = append(out, j)
		}
	}
	return out
}
