// ABOUTME: Data models for field service entities
// ABOUTME: Defines Customer, Part, LaborItem, Job, Quote, and Invoice structs
package models

import (
	"time"

	"github.com/google/uuid"
)

type Customer struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Part struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	SKU         string    `json:"sku,omitempty"`
	Description string    `json:"description,omitempty"`
	UnitPrice   float64   `json:"unit_price"`
	Cost        float64   `json:"cost,omitempty"`
	Stock       float64   `json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type LaborItem struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Rate        float64   `json:"rate"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LineItem belongs to exactly one Job, Quote, or Invoice. ItemID references
// a Part or LaborItem from the catalog and is nil for freeform service lines.
type LineItem struct {
	ID          uuid.UUID  `json:"id"`
	Type        string     `json:"type"`
	ItemID      *uuid.UUID `json:"item_id,omitempty"`
	Description string     `json:"description,omitempty"`
	Quantity    float64    `json:"quantity"`
	UnitPrice   float64    `json:"unit_price"`
	Total       float64    `json:"total"`
}

type Job struct {
	ID          uuid.UUID  `json:"id"`
	CustomerID  uuid.UUID  `json:"customer_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	LineItems   []LineItem `json:"line_items,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Quote struct {
	ID         uuid.UUID  `json:"id"`
	CustomerID uuid.UUID  `json:"customer_id"`
	JobID      *uuid.UUID `json:"job_id,omitempty"`
	Number     string     `json:"number"`
	Status     string     `json:"status"`
	LineItems  []LineItem `json:"line_items,omitempty"`
	TaxRate    float64    `json:"tax_rate"`
	Subtotal   float64    `json:"subtotal"`
	Tax        float64    `json:"tax"`
	Total      float64    `json:"total"`
	Notes      string     `json:"notes,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type Invoice struct {
	ID         uuid.UUID  `json:"id"`
	CustomerID uuid.UUID  `json:"customer_id"`
	JobID      *uuid.UUID `json:"job_id,omitempty"`
	QuoteID    *uuid.UUID `json:"quote_id,omitempty"`
	Number     string     `json:"number"`
	Status     string     `json:"status"`
	LineItems  []LineItem `json:"line_items,omitempty"`
	TaxRate    float64    `json:"tax_rate"`
	Subtotal   float64    `json:"subtotal"`
	Tax        float64    `json:"tax"`
	Total      float64    `json:"total"`
	Notes      string     `json:"notes,omitempty"`
	DueAt      *time.Time `json:"due_at,omitempty"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Job status constants.
const (
	JobStatusScheduled  = "scheduled"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusCancelled  = "cancelled"
)

// Quote status constants.
const (
	QuoteStatusDraft    = "draft"
	QuoteStatusSent     = "sent"
	QuoteStatusAccepted = "accepted"
	QuoteStatusDeclined = "declined"
)

// Invoice status constants.
const (
	InvoiceStatusDraft = "draft"
	InvoiceStatusSent  = "sent"
	InvoiceStatusPaid  = "paid"
	InvoiceStatusVoid  = "void"
)

// Line item type constants.
const (
	LineItemPart    = "part"
	LineItemLabor   = "labor"
	LineItemService = "service"
)

// Workspace role constants.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// WorkspaceData is the complete entity set for one workspace. Exactly one
// slice is mounted as the store's active view at a time.
type WorkspaceData struct {
	Customers  []Customer  `json:"customers"`
	Parts      []Part      `json:"parts"`
	LaborItems []LaborItem `json:"labor_items"`
	Jobs       []Job       `json:"jobs"`
	Quotes     []Quote     `json:"quotes"`
	Invoices   []Invoice   `json:"invoices"`
}

// Clone returns a deep copy. Merge works on a copy so a failed pass never
// leaves the slice half-applied.
func (w *WorkspaceData) Clone() *WorkspaceData {
	if w == nil {
		return &WorkspaceData{}
	}
	out := &WorkspaceData{
		Customers:  append([]Customer(nil), w.Customers...),
		Parts:      append([]Part(nil), w.Parts...),
		LaborItems: append([]LaborItem(nil), w.LaborItems...),
		Jobs:       make([]Job, len(w.Jobs)),
		Quotes:     make([]Quote, len(w.Quotes)),
		Invoices:   make([]Invoice, len(w.Invoices)),
	}
	for i, j := range w.Jobs {
		j.LineItems = append([]LineItem(nil), j.LineItems...)
		out.Jobs[i] = j
	}
	for i, q := range w.Quotes {
		q.LineItems = append([]LineItem(nil), q.LineItems...)
		out.Quotes[i] = q
	}
	for i, inv := range w.Invoices {
		inv.LineItems = append([]LineItem(nil), inv.LineItems...)
		out.Invoices[i] = inv
	}
	return out
}

// User is the authenticated identity on this device. The ID is a string
// rather than a uuid.UUID because legacy profiles predate server accounts.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name,omitempty"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// WorkspaceLink records which workspace this device is joined to.
type WorkspaceLink struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	Role       string `json:"role"`
	InviteCode string `json:"invite_code,omitempty"`
}

type Settings struct {
	BusinessName  string  `json:"business_name,omitempty"`
	Currency      string  `json:"currency"`
	TaxEnabled    bool    `json:"tax_enabled"`
	TaxRate       float64 `json:"tax_rate"`
	QuotePrefix   string  `json:"quote_prefix"`
	InvoicePrefix string  `json:"invoice_prefix"`
}

func DefaultSettings() Settings {
	return Settings{
		Currency:      "USD",
		TaxEnabled:    false,
		TaxRate:       0,
		QuotePrefix:   "Q",
		InvoicePrefix: "INV",
	}
}

// SettingsUpdate carries partial settings changes; nil fields are unchanged.
type SettingsUpdate struct {
	BusinessName  *string  `json:"business_name,omitempty"`
	Currency      *string  `json:"currency,omitempty"`
	TaxEnabled    *bool    `json:"tax_enabled,omitempty"`
	TaxRate       *float64 `json:"tax_rate,omitempty"`
	QuotePrefix   *string  `json:"quote_prefix,omitempty"`
	InvoicePrefix *string  `json:"invoice_prefix,omitempty"`
}

// SchemaVersion is the current persisted blob version. Bumped on every
// breaking shape change; migrations are keyed on it.
const SchemaVersion = 3

// AppState is everything persisted to the local blob: all workspace slices,
// the per-user outbox and cursors, the session, and settings.
type AppState struct {
	SchemaVersion   int                       `json:"schema_version"`
	CurrentUser     *User                     `json:"current_user,omitempty"`
	Workspace       *WorkspaceLink            `json:"workspace,omitempty"`
	DataByUser      map[string]*WorkspaceData `json:"data_by_user,omitempty"`
	DataByWorkspace map[string]*WorkspaceData `json:"data_by_workspace"`
	Outbox          map[string][]ChangeEvent  `json:"outbox"`
	SyncCursors     map[string]*time.Time     `json:"sync_cursors"`
	LastSyncedAt    map[string]*time.Time     `json:"last_synced_at,omitempty"`
	Settings        Settings                  `json:"settings"`
}

func NewAppState() *AppState {
	return &AppState{
		SchemaVersion:   SchemaVersion,
		DataByUser:      map[string]*WorkspaceData{},
		DataByWorkspace: map[string]*WorkspaceData{},
		Outbox:          map[string][]ChangeEvent{},
		SyncCursors:     map[string]*time.Time{},
		LastSyncedAt:    map[string]*time.Time{},
		Settings:        DefaultSettings(),
	}
}

// Sync status constants.
const (
	SyncStatusIdle    = "idle"
	SyncStatusSyncing = "syncing"
	SyncStatusError   = "error"
)

type SyncState struct {
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	LastSyncTime *time.Time `json:"last_sync_time,omitempty"`
}
