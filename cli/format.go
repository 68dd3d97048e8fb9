// ABOUTME: Output formatting helpers for list and show commands
// ABOUTME: Short ids, money, and optional timestamps
package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

func formatMoney(currency string, amount float64) string {
	return fmt.Sprintf("%s %.2f", currency, amount)
}

// formatWhen renders an optional timestamp, "-" when absent.
func formatWhen(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// dash substitutes "-" for empty table cells.
func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
