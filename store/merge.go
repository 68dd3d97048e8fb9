// ABOUTME: Last-write-wins merge of pulled remote changes
// ABOUTME: All-or-nothing; a failed pass leaves the local slice untouched
package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/fieldwork/models"
)

var ErrNoActiveWorkspace = errors.New("no active workspace")

// MergeRemoteChanges applies pulled events to the active slice. Work happens
// on a deep copy; the copy is committed, the view re-derived, and the state
// snapshotted only when every event applied. Deletes remove by id; upserts
// keep the local record only when it is strictly newer than the incoming
// one, so ties favor the incoming record.
func (s *Store) MergeRemoteChanges(events []models.ChangeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.resolveWorkspaceLocked()
	if data == nil {
		return ErrNoActiveWorkspace
	}
	if len(events) == 0 {
		return nil
	}

	merged := data.Clone()
	for _, ev := range events {
		if err := applyChange(merged, ev); err != nil {
			return fmt.Errorf("apply %s %s: %w", ev.Op, ev.Entity, err)
		}
	}

	s.state.DataByWorkspace[s.state.Workspace.ID] = merged
	s.refreshViewLocked()
	s.snapshotLocked()
	return nil
}

func applyChange(data *models.WorkspaceData, ev models.ChangeEvent) error {
	switch ev.Op {
	case models.OpCreate, models.OpUpdate, models.OpDelete:
	default:
		return fmt.Errorf("unknown operation %q", ev.Op)
	}

	switch ev.Entity {
	case models.EntityCustomers:
		var row models.Customer
		if err := json.Unmarshal(ev.Row, &row); err != nil {
			return err
		}
		if ev.Op == models.OpDelete {
			data.Customers = removeCustomer(data.Customers, row.ID)
		} else {
			data.Customers = upsertCustomer(data.Customers, row)
		}

	case models.EntityParts:
		var row models.Part
		if err := json.Unmarshal(ev.Row, &row); err != nil {
			return err
		}
		if ev.Op == models.OpDelete {
			data.Parts = removePart(data.Parts, row.ID)
		} else {
			data.Parts = upsertPart(data.Parts, row)
		}

	case models.EntityLaborItems:
		var row models.LaborItem
		if err := json.Unmarshal(ev.Row, &row); err != nil {
			return err
		}
		if ev.Op == models.OpDelete {
			data.LaborItems = removeLaborItem(data.LaborItems, row.ID)
		} else {
			data.LaborItems = upsertLaborItem(data.LaborItems, row)
		}

	case models.EntityJobs:
		var row models.Job
		if err := json.Unmarshal(ev.Row, &row); err != nil {
			return err
		}
		if ev.Op == models.OpDelete {
			data.Jobs = removeJob(data.Jobs, row.ID)
		} else {
			data.Jobs = upsertJob(data.Jobs, row)
		}

	case models.EntityQuotes:
		var row models.Quote
		if err := json.Unmarshal(ev.Row, &row); err != nil {
			return err
		}
		if ev.Op == models.OpDelete {
			data.Quotes = removeQuote(data.Quotes, row.ID)
		} else {
			data.Quotes = upsertQuote(data.Quotes, row)
		}

	case models.EntityInvoices:
		var row models.Invoice
		if err := json.Unmarshal(ev.Row, &row); err != nil {
			return err
		}
		if ev.Op == models.OpDelete {
			data.Invoices = removeInvoice(data.Invoices, row.ID)
		} else {
			data.Invoices = upsertInvoice(data.Invoices, row)
		}

	default:
		return fmt.Errorf("unknown entity %q", ev.Entity)
	}
	return nil
}

func upsertCustomer(list []models.Customer, row models.Customer) []models.Customer {
	for i := range list {
		if list[i].ID == row.ID {
			if list[i].UpdatedAt.After(row.UpdatedAt) {
				return list
			}
			list[i] = row
			return list
		}
	}
	return append(list, row)
}

func removeCustomer(list []models.Customer, id uuid.UUID) []models.Customer {
	for i := range list {
		if list[i].ID == id {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func upsertPart(list []models.Part, row models.Part) []models.Part {
	for i := range list {
		if list[i].ID == row.ID {
			if list[i].UpdatedAt.After(row.UpdatedAt) {
				return list
			}
			list[i] = row
			return list
		}
	}
	return append(list, row)
}

func removePart(list []models.Part, id uuid.UUID) []models.Part {
	for i := range list {
		if list[i].ID == id {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func upsertLaborItem(list []models.LaborItem, row models.LaborItem) []models.LaborItem {
	for i := range list {
		if list[i].ID == row.ID {
			if list[i].UpdatedAt.After(row.UpdatedAt) {
				return list
			}
			list[i] = row
			return list
		}
	}
	return append(list, row)
}

func removeLaborItem(list []models.LaborItem, id uuid.UUID) []models.LaborItem {
	for i := range list {
		if list[i].ID == id {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func upsertJob(list []models.Job, row models.Job) []models.Job {
	for i := range list {
		if list[i].ID == row.ID {
			if list[i].UpdatedAt.After(row.UpdatedAt) {
				return list
			}
			list[i] = row
			return list
		}
	}
	return append(list, row)
}

func removeJob(list []models.Job, id uuid.UUID) []models.Job {
	for i := range list {
		if list[i].ID == id {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func upsertQuote(list []models.Quote, row models.Quote) []models.Quote {
	for i := range list {
		if list[i].ID == row.ID {
			if list[i].UpdatedAt.After(row.UpdatedAt) {
				return list
			}
			list[i] = row
			return list
		}
	}
	return append(list, row)
}

func removeQuote(list []models.Quote, id uuid.UUID) []models.Quote {
	for i := range list {
		if list[i].ID == id {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func upsertInvoice(list []models.Invoice, row models.Invoice) []models.Invoice {
	for i := range list {
		if list[i].ID == row.ID {
			if list[i].UpdatedAt.After(row.UpdatedAt) {
				return list
			}
			list[i] = row
			return list
		}
	}
	return append(list, row)
}

func removeInvoice(list []models.Invoice, id uuid.UUID) []models.Invoice {
	for i := range list {
		if list[i].ID == id {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
