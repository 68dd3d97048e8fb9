// ABOUTME: Quote store operations
// ABOUTME: Sequence numbering and totals recomputed on every write
package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/fieldwork/models"
)

func (s *Store) AddQuote(q models.Quote) (*models.Quote, error) {
	s.mu.Lock()
	data := s.resolveWorkspaceLocked()
	if data == nil {
		s.mu.Unlock()
		return nil, nil
	}

	now := time.Now().UTC()
	q.ID = uuid.New()
	q.CreatedAt = now
	q.UpdatedAt = now
	if q.Status == "" {
		q.Status = models.QuoteStatusDraft
	}
	if q.Number == "" {
		labels := make([]string, 0, len(data.Quotes))
		for _, existing := range data.Quotes {
			labels = append(labels, existing.Number)
		}
		q.Number = models.NextNumber(s.state.Settings.QuotePrefix, labels)
	}
	if q.TaxRate == 0 {
		q.TaxRate = s.state.Settings.TaxRate
	}
	q.LineItems = models.NormalizeLineItems(q.LineItems)
	totals := models.ComputeTotals(q.LineItems, q.TaxRate, s.state.Settings.TaxEnabled)
	q.Subtotal, q.Tax, q.Total = totals.Subtotal, totals.Tax, totals.Total

	ev, err := s.newChangeLocked(models.EntityQuotes, models.OpCreate, q, now)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	data.Quotes = append(data.Quotes, q)
	s.appendChangeLocked(ev)
	s.refreshViewLocked()
	s.snapshotLocked()
	s.mu.Unlock()

	s.scheduleSync()
	return &q, nil
}

func (s *Store) UpdateQuote(id uuid.UUID, upd models.QuoteUpdate) (*models.Quote, error) {
	s.mu.Lock()
	data := s.resolveWorkspaceLocked()
	if data == nil {
		s.mu.Unlock()
		return nil, nil
	}

	idx := -1
	for i := range data.Quotes {
		if data.Quotes[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return nil, nil
	}

	q := data.Quotes[idx]
	if upd.CustomerID != nil {
		q.CustomerID = *upd.CustomerID
	}
	if upd.JobID != nil {
		jid := *upd.JobID
		q.JobID = &jid
	}
	if upd.Status != nil {
		q.Status = *upd.Status
	}
	if upd.LineItems != nil {
		q.LineItems = models.NormalizeLineItems(*upd.LineItems)
	}
	if upd.TaxRate != nil {
		q.TaxRate = *upd.TaxRate
	}
	if upd.Notes != nil {
		q.Notes = *upd.Notes
	}
	q.UpdatedAt = time.Now().UTC()

	// Inputs may have changed; always recompute rather than trusting the
	// stored triple.
	totals := models.ComputeTotals(q.LineItems, q.TaxRate, s.state.Settings.TaxEnabled)
	q.Subtotal, q.Tax, q.Total = totals.Subtotal, totals.Tax, totals.Total

	ev, err := s.newChangeLocked(models.EntityQuotes, models.OpUpdate, q, q.UpdatedAt)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	data.Quotes[idx] = q
	s.appendChangeLocked(ev)
	s.refreshViewLocked()
	s.snapshotLocked()
	s.mu.Unlock()

	s.scheduleSync()
	return &q, nil
}

func (s *Store) DeleteQuote(id uuid.UUID) (bool, error) {
	s.mu.Lock()
	data := s.resolveWorkspaceLocked()
	if data == nil {
		s.mu.Unlock()
		return false, nil
	}

	idx := -1
	for i := range data.Quotes {
		if data.Quotes[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false, nil
	}

	q := data.Quotes[idx]
	now := time.Now().UTC()
	q.UpdatedAt = now

	ev, err := s.newChangeLocked(models.EntityQuotes, models.OpDelete, q, now)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}

	data.Quotes = append(data.Quotes[:idx], data.Quotes[idx+1:]...)
	s.appendChangeLocked(ev)
	s.refreshViewLocked()
	s.snapshotLocked()
	s.mu.Unlock()

	s.scheduleSync()
	return true, nil
}

func (s *Store) QuoteByID(id uuid.UUID) *models.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.view.Quotes {
		if s.view.Quotes[i].ID == id {
			q := s.view.Quotes[i]
			return &q
		}
	}
	return nil
}

func (s *Store) QuotesForCustomer(customerID uuid.UUID) []models.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Quote
	for _, q := range s.view.Quotes {
		if q.CustomerID == customerID {
			out = append(out, q)
		}
	}
	return out
}

func (s *Store) QuotesForJob(jobID uuid.UUID) []models.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Quote
	for _, q := range s.view.Quotes {
		if q.JobID != nil && *q.JobID == jobID {
			out = append(out, q)
		}
	}
	return out
}
