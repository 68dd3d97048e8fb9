// ABOUTME: Invoice store operations with part stock adjustment
// ABOUTME: Invoice writes and their stock side effects share one transaction
package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/fieldwork/models"
)

// stockDeltas computes the net stock movement per referenced part from a
// line item diff in a single pass: old quantities are restored, new
// quantities consumed. Zero net entries are left in and skipped on apply.
func stockDeltas(oldItems, newItems []models.LineItem) map[uuid.UUID]float64 {
	deltas := map[uuid.UUID]float64{}
	for _, li := range oldItems {
		if li.Type == models.LineItemPart && li.ItemID != nil {
			deltas[*li.ItemID] += li.Quantity
		}
	}
	for _, li := range newItems {
		if li.Type == models.LineItemPart && li.ItemID != nil {
			deltas[*li.ItemID] -= li.Quantity
		}
	}
	return deltas
}

type partAdjustment struct {
	idx  int
	part models.Part
	ev   models.ChangeEvent
}

// prepareStockLocked builds the adjusted part records and their change
// events without touching the slice, so the whole invoice mutation can
// still abort cleanly. Stock is clamped at zero.
func (s *Store) prepareStockLocked(data *models.WorkspaceData, deltas map[uuid.UUID]float64, now time.Time) ([]partAdjustment, error) {
	var adjs []partAdjustment
	for i := range data.Parts {
		delta, ok := deltas[data.Parts[i].ID]
		if !ok || delta == 0 {
			continue
		}
		part := data.Parts[i]
		part.Stock += delta
		if part.Stock < 0 {
			part.Stock = 0
		}
		part.UpdatedAt = now

		ev, err := s.newChangeLocked(models.EntityParts, models.OpUpdate, part, now)
		if err != nil {
			return nil, err
		}
		adjs = append(adjs, partAdjustment{idx: i, part: part, ev: ev})
	}
	return adjs, nil
}

func (s *Store) applyStockLocked(data *models.WorkspaceData, adjs []partAdjustment) {
	for _, adj := range adjs {
		data.Parts[adj.idx] = adj.part
		s.appendChangeLocked(adj.ev)
	}
}

// AddInvoice creates an invoice and decrements stock for every line of type
// part, in the same logical transaction.
func (s *Store) AddInvoice(inv models.Invoice) (*models.Invoice, error) {
	s.mu.Lock()
	data := s.resolveWorkspaceLocked()
	if data == nil {
		s.mu.Unlock()
		return nil, nil
	}

	now := time.Now().UTC()
	inv.ID = uuid.New()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	if inv.Status == "" {
		inv.Status = models.InvoiceStatusDraft
	}
	if inv.Number == "" {
		labels := make([]string, 0, len(data.Invoices))
		for _, existing := range data.Invoices {
			labels = append(labels, existing.Number)
		}
		inv.Number = models.NextNumber(s.state.Settings.InvoicePrefix, labels)
	}
	if inv.TaxRate == 0 {
		inv.TaxRate = s.state.Settings.TaxRate
	}
	inv.LineItems = models.NormalizeLineItems(inv.LineItems)
	totals := models.ComputeTotals(inv.LineItems, inv.TaxRate, s.state.Settings.TaxEnabled)
	inv.Subtotal, inv.Tax, inv.Total = totals.Subtotal, totals.Tax, totals.Total

	ev, err := s.newChangeLocked(models.EntityInvoices, models.OpCreate, inv, now)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	adjs, err := s.prepareStockLocked(data, stockDeltas(nil, inv.LineItems), now)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	data.Invoices = append(data.Invoices, inv)
	s.appendChangeLocked(ev)
	s.applyStockLocked(data, adjs)
	s.refreshViewLocked()
	s.snapshotLocked()
	s.mu.Unlock()

	s.scheduleSync()
	return &inv, nil
}

// UpdateInvoice merges partial changes. When line items change, the net
// stock delta per part (old restored, new consumed) is applied alongside.
func (s *Store) UpdateInvoice(id uuid.UUID, upd models.InvoiceUpdate) (*models.Invoice, error) {
	s.mu.Lock()
	data := s.resolveWorkspaceLocked()
	if data == nil {
		s.mu.Unlock()
		return nil, nil
	}

	idx := -1
	for i := range data.Invoices {
		if data.Invoices[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return nil, nil
	}

	inv := data.Invoices[idx]
	oldItems := inv.LineItems

	if upd.CustomerID != nil {
		inv.CustomerID = *upd.CustomerID
	}
	if upd.JobID != nil {
		jid := *upd.JobID
		inv.JobID = &jid
	}
	if upd.QuoteID != nil {
		qid := *upd.QuoteID
		inv.QuoteID = &qid
	}
	if upd.Status != nil {
		inv.Status = *upd.Status
	}
	if upd.LineItems != nil {
		inv.LineItems = models.NormalizeLineItems(*upd.LineItems)
	}
	if upd.TaxRate != nil {
		inv.TaxRate = *upd.TaxRate
	}
	if upd.Notes != nil {
		inv.Notes = *upd.Notes
	}
	if upd.DueAt != nil {
		ts := *upd.DueAt
		inv.DueAt = &ts
	}
	if upd.PaidAt != nil {
		ts := *upd.PaidAt
		inv.PaidAt = &ts
	}
	inv.UpdatedAt = time.Now().UTC()

	totals := models.ComputeTotals(inv.LineItems, inv.TaxRate, s.state.Settings.TaxEnabled)
	inv.Subtotal, inv.Tax, inv.Total = totals.Subtotal, totals.Tax, totals.Total

	ev, err := s.newChangeLocked(models.EntityInvoices, models.OpUpdate, inv, inv.UpdatedAt)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	var adjs []partAdjustment
	if upd.LineItems != nil {
		adjs, err = s.prepareStockLocked(data, stockDeltas(oldItems, inv.LineItems), inv.UpdatedAt)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}

	data.Invoices[idx] = inv
	s.appendChangeLocked(ev)
	s.applyStockLocked(data, adjs)
	s.refreshViewLocked()
	s.snapshotLocked()
	s.mu.Unlock()

	s.scheduleSync()
	return &inv, nil
}

func (s *Store) DeleteInvoice(id uuid.UUID) (bool, error) {
	s.mu.Lock()
	data := s.resolveWorkspaceLocked()
	if data == nil {
		s.mu.Unlock()
		return false, nil
	}

	idx := -1
	for i := range data.Invoices {
		if data.Invoices[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false, nil
	}

	inv := data.Invoices[idx]
	now := time.Now().UTC()
	inv.UpdatedAt = now

	ev, err := s.newChangeLocked(models.EntityInvoices, models.OpDelete, inv, now)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}

	data.Invoices = append(data.Invoices[:idx], data.Invoices[idx+1:]...)
	s.appendChangeLocked(ev)
	s.refreshViewLocked()
	s.snapshotLocked()
	s.mu.Unlock()

	s.scheduleSync()
	return true, nil
}

func (s *Store) InvoiceByID(id uuid.UUID) *models.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.view.Invoices {
		if s.view.Invoices[i].ID == id {
			inv := s.view.Invoices[i]
			return &inv
		}
	}
	return nil
}

func (s *Store) InvoicesForCustomer(customerID uuid.UUID) []models.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Invoice
	for _, inv := range s.view.Invoices {
		if inv.CustomerID == customerID {
			out = append(out, inv)
		}
	}
	return out
}

func (s *Store) InvoicesForJob(jobID uuid.UUID) []models.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Invoice
	for _, inv := range s.view.Invoices {
		if inv.JobID != nil && *inv.JobID == jobID {
			out = append(out, inv)
		}
	}
	return out
}
