// ABOUTME: Partial update inputs for store mutators
// ABOUTME: Nil fields mean "leave unchanged"
package models

import (
	"time"

	"github.com/google/uuid"
)

type CustomerUpdate struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	Notes   *string `json:"notes,omitempty"`
}

type PartUpdate struct {
	Name        *string  `json:"name,omitempty"`
	SKU         *string  `json:"sku,omitempty"`
	Description *string  `json:"description,omitempty"`
	UnitPrice   *float64 `json:"unit_price,omitempty"`
	Cost        *float64 `json:"cost,omitempty"`
	Stock       *float64 `json:"stock,omitempty"`
}

type LaborItemUpdate struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Rate        *float64 `json:"rate,omitempty"`
}

type JobUpdate struct {
	CustomerID  *uuid.UUID  `json:"customer_id,omitempty"`
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	Status      *string     `json:"status,omitempty"`
	ScheduledAt *time.Time  `json:"scheduled_at,omitempty"`
	LineItems   *[]LineItem `json:"line_items,omitempty"`
	Notes       *string     `json:"notes,omitempty"`
}

type QuoteUpdate struct {
	CustomerID *uuid.UUID  `json:"customer_id,omitempty"`
	JobID      *uuid.UUID  `json:"job_id,omitempty"`
	Status     *string     `json:"status,omitempty"`
	LineItems  *[]LineItem `json:"line_items,omitempty"`
	TaxRate    *float64    `json:"tax_rate,omitempty"`
	Notes      *string     `json:"notes,omitempty"`
}

type InvoiceUpdate struct {
	CustomerID *uuid.UUID  `json:"customer_id,omitempty"`
	JobID      *uuid.UUID  `json:"job_id,omitempty"`
	QuoteID    *uuid.UUID  `json:"quote_id,omitempty"`
	Status     *string     `json:"status,omitempty"`
	LineItems  *[]LineItem `json:"line_items,omitempty"`
	TaxRate    *float64    `json:"tax_rate,omitempty"`
	Notes      *string     `json:"notes,omitempty"`
	DueAt      *time.Time  `json:"due_at,omitempty"`
	PaidAt     *time.Time  `json:"paid_at,omitempty"`
}
