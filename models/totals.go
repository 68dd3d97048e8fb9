// ABOUTME: Totals calculator and line item helpers for quotes and invoices
// ABOUTME: Pure functions; recomputed on every write so totals are never stale
package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// ComputeTotals derives the subtotal/tax/total triple from line items and
// the tax rate (a percentage). Tax is zero whenever taxEnabled is false.
func ComputeTotals(items []LineItem, taxRate float64, taxEnabled bool) Totals {
	var subtotal float64
	for _, item := range items {
		subtotal += item.Total
	}

	var tax float64
	if taxEnabled {
		tax = subtotal * taxRate / 100
	}

	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal + tax,
	}
}

// NormalizeLineItems assigns ids to new lines and recomputes each line total
// from quantity and unit price. Returns a fresh slice; the input is not
// modified.
func NormalizeLineItems(items []LineItem) []LineItem {
	if len(items) == 0 {
		return nil
	}

	out := make([]LineItem, len(items))
	for i, item := range items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.Total = item.Quantity * item.UnitPrice
		out[i] = item
	}
	return out
}

// NextNumber produces the next sequence label for a prefix, e.g. "Q-0001".
// It scans existing labels for the highest numeric suffix; labels that do
// not match the prefix or carry a non-numeric suffix are skipped.
func NextNumber(prefix string, existing []string) string {
	max := 0
	for _, label := range existing {
		rest, ok := strings.CutPrefix(label, prefix+"-")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s-%04d", prefix, max+1)
}
