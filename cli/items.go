// ABOUTME: Line item spec parsing for quote and invoice commands
// ABOUTME: Resolves part/labor references against the catalog
package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/harperreed/fieldwork/models"
)

// parseLineItems parses a comma-separated item spec into line items priced
// from the catalog. Each entry is "part:<id>:<qty>" or "labor:<id>:<hours>".
// Totals are computed by the store on write.
func parseLineItems(app *App, spec string) ([]models.LineItem, error) {
	var items []models.LineItem
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		fields := strings.Split(entry, ":")
		if len(fields) != 3 {
			return nil, fmt.Errorf("invalid item %q (expected part:<id>:<qty> or labor:<id>:<hours>)", entry)
		}

		id, err := uuid.Parse(fields[1])
		if err != nil {
			return nil, fmt.Errorf("invalid item id in %q: %w", entry, err)
		}
		qty, err := strconv.ParseFloat(fields[2], 64)
		if err != nil || qty <= 0 {
			return nil, fmt.Errorf("invalid quantity in %q", entry)
		}

		switch fields[0] {
		case "part":
			part := app.Store.PartByID(id)
			if part == nil {
				return nil, fmt.Errorf("part not found: %s", id)
			}
			items = append(items, models.LineItem{
				ID:          uuid.New(),
				Type:        models.LineItemPart,
				ItemID:      &part.ID,
				Description: part.Name,
				Quantity:    qty,
				UnitPrice:   part.UnitPrice,
			})
		case "labor":
			labor := app.Store.LaborItemByID(id)
			if labor == nil {
				return nil, fmt.Errorf("labor item not found: %s", id)
			}
			items = append(items, models.LineItem{
				ID:          uuid.New(),
				Type:        models.LineItemLabor,
				ItemID:      &labor.ID,
				Description: labor.Name,
				Quantity:    qty,
				UnitPrice:   labor.Rate,
			})
		default:
			return nil, fmt.Errorf("unknown item type %q (expected part or labor)", fields[0])
		}
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("no line items in %q", spec)
	}
	return items, nil
}
