// ABOUTME: Change events recorded for every local mutation
// ABOUTME: Defines the outbox entry shape shared with the sync protocol
package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entity table names carried on change events.
const (
	EntityCustomers  = "customers"
	EntityParts      = "parts"
	EntityLaborItems = "labor_items"
	EntityJobs       = "jobs"
	EntityQuotes     = "quotes"
	EntityInvoices   = "invoices"
)

// Change operations.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// ChangeEvent is one pending mutation awaiting upload. Row holds the full
// record snapshot at mutation time; delete events still carry the last
// known snapshot so peers can match it by id.
type ChangeEvent struct {
	ID        uuid.UUID       `json:"id"`
	Entity    string          `json:"entity"`
	Op        string          `json:"operation"`
	Row       json.RawMessage `json:"row"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt *time.Time      `json:"deleted_at,omitempty"`
}

// NewChangeEvent snapshots row into a change event. updatedAt must be the
// record's own update timestamp so merge ordering stays consistent.
func NewChangeEvent(entity, op string, row any, updatedAt time.Time) (ChangeEvent, error) {
	raw, err := json.Marshal(row)
	if err != nil {
		return ChangeEvent{}, fmt.Errorf("marshal %s row: %w", entity, err)
	}

	ev := ChangeEvent{
		ID:        uuid.New(),
		Entity:    entity,
		Op:        op,
		Row:       raw,
		UpdatedAt: updatedAt.UTC(),
	}
	if op == OpDelete {
		ts := ev.UpdatedAt
		ev.DeletedAt = &ts
	}
	return ev, nil
}
