// ABOUTME: Part catalog CLI commands
// ABOUTME: add, list, show, update, and delete parts with stock levels
package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/harperreed/fieldwork/models"
)

// PartsCommand dispatches part subcommands.
func PartsCommand(app *App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: fieldwork parts <add|list|show|update|delete>")
	}

	switch args[0] {
	case "add":
		return partAdd(app, args[1:])
	case "list":
		return partList(app, args[1:])
	case "show":
		return partShow(app, args[1:])
	case "update":
		return partUpdate(app, args[1:])
	case "delete":
		return partDelete(app, args[1:])
	default:
		return fmt.Errorf("unknown parts subcommand: %s", args[0])
	}
}

func partAdd(app *App, args []string) error {
	fs := flag.NewFlagSet("parts add", flag.ExitOnError)
	name := fs.String("name", "", "Part name (required)")
	sku := fs.String("sku", "", "Stock keeping unit")
	description := fs.String("description", "", "Description")
	price := fs.Float64("price", 0, "Unit price")
	cost := fs.Float64("cost", 0, "Unit cost")
	stock := fs.Float64("stock", 0, "Units on hand")
	_ = fs.Parse(args)

	if *name == "" {
		return fmt.Errorf("--name is required")
	}
	if *price < 0 || *cost < 0 || *stock < 0 {
		return fmt.Errorf("price, cost, and stock must not be negative")
	}

	created, err := app.Store.AddPart(models.Part{
		Name:        *name,
		SKU:         *sku,
		Description: *description,
		UnitPrice:   *price,
		Cost:        *cost,
		Stock:       *stock,
	})
	if err != nil {
		return fmt.Errorf("failed to add part: %w", err)
	}
	if created == nil {
		return fmt.Errorf("no workspace linked. Run 'fieldwork workspace create' first")
	}

	fmt.Printf("✓ Part created: %s (ID: %s)\n", created.Name, created.ID)
	fmt.Printf("  Price: %s  Stock: %.2f\n", formatMoney(app.Store.Settings().Currency, created.UnitPrice), created.Stock)
	return nil
}

func partList(app *App, args []string) error {
	fs := flag.NewFlagSet("parts list", flag.ExitOnError)
	query := fs.String("query", "", "Filter by name or SKU")
	_ = fs.Parse(args)

	parts := app.Store.Parts()
	if *query != "" {
		needle := strings.ToLower(*query)
		var filtered []models.Part
		for _, p := range parts {
			if strings.Contains(strings.ToLower(p.Name), needle) ||
				strings.Contains(strings.ToLower(p.SKU), needle) {
				filtered = append(filtered, p)
			}
		}
		parts = filtered
	}

	if len(parts) == 0 {
		fmt.Println("No parts found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tSKU\tPRICE\tSTOCK\tID")
	_, _ = fmt.Fprintln(w, "----\t---\t-----\t-----\t--")
	for _, p := range parts {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\t%s\n", p.Name, dash(p.SKU), p.UnitPrice, p.Stock, shortID(p.ID))
	}
	_ = w.Flush()

	fmt.Printf("\nTotal: %d part(s)\n", len(parts))
	return nil
}

func partShow(app *App, args []string) error {
	fs := flag.NewFlagSet("parts show", flag.ExitOnError)
	_ = fs.Parse(args)

	if len(fs.Args()) < 1 {
		return fmt.Errorf("part ID is required")
	}
	id, err := uuid.Parse(fs.Args()[0])
	if err != nil {
		return fmt.Errorf("invalid part ID: %w", err)
	}

	part := app.Store.PartByID(id)
	if part == nil {
		return fmt.Errorf("part not found: %s", id)
	}

	currency := app.Store.Settings().Currency
	fmt.Printf("Part: %s\n", part.Name)
	fmt.Printf("  ID:          %s\n", part.ID)
	fmt.Printf("  SKU:         %s\n", dash(part.SKU))
	fmt.Printf("  Price:       %s\n", formatMoney(currency, part.UnitPrice))
	fmt.Printf("  Cost:        %s\n", formatMoney(currency, part.Cost))
	fmt.Printf("  Stock:       %.2f\n", part.Stock)
	if part.Description != "" {
		fmt.Printf("  Description: %s\n", part.Description)
	}
	return nil
}

func partUpdate(app *App, args []string) error {
	fs := flag.NewFlagSet("parts update", flag.ExitOnError)
	name := fs.String("name", "", "Part name")
	sku := fs.String("sku", "", "Stock keeping unit")
	description := fs.String("description", "", "Description")
	price := fs.Float64("price", 0, "Unit price")
	cost := fs.Float64("cost", 0, "Unit cost")
	stock := fs.Float64("stock", 0, "Units on hand")
	_ = fs.Parse(args)

	if len(fs.Args()) < 1 {
		return fmt.Errorf("part ID is required (flags must come before the ID)")
	}
	id, err := uuid.Parse(fs.Args()[0])
	if err != nil {
		return fmt.Errorf("invalid part ID: %w", err)
	}

	var upd models.PartUpdate
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			upd.Name = name
		case "sku":
			upd.SKU = sku
		case "description":
			upd.Description = description
		case "price":
			upd.UnitPrice = price
		case "cost":
			upd.Cost = cost
		case "stock":
			upd.Stock = stock
		}
	})
	if (upd.UnitPrice != nil && *upd.UnitPrice < 0) ||
		(upd.Cost != nil && *upd.Cost < 0) ||
		(upd.Stock != nil && *upd.Stock < 0) {
		return fmt.Errorf("price, cost, and stock must not be negative")
	}

	updated, err := app.Store.UpdatePart(id, upd)
	if err != nil {
		return fmt.Errorf("failed to update part: %w", err)
	}
	if updated == nil {
		return fmt.Errorf("part not found: %s", id)
	}

	fmt.Printf("✓ Part updated: %s (stock %.2f)\n", updated.Name, updated.Stock)
	return nil
}

func partDelete(app *App, args []string) error {
	fs := flag.NewFlagSet("parts delete", flag.ExitOnError)
	_ = fs.Parse(args)

	if len(fs.Args()) < 1 {
		return fmt.Errorf("part ID is required")
	}
	id, err := uuid.Parse(fs.Args()[0])
	if err != nil {
		return fmt.Errorf("invalid part ID: %w", err)
	}

	ok, err := app.Store.DeletePart(id)
	if err != nil {
		return fmt.Errorf("failed to delete part: %w", err)
	}
	if !ok {
		return fmt.Errorf("part not found: %s", id)
	}

	fmt.Printf("✓ Part deleted: %s\n", id)
	return nil
}
