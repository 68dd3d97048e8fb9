// ABOUTME: Labor rate CLI commands
// ABOUTME: add, list, update, and delete hourly labor items
package cli

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/harperreed/fieldwork/models"
)

// LaborCommand dispatches labor item subcommands.
func LaborCommand(app *App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: fieldwork labor <add|list|update|delete>")
	}

	switch args[0] {
	case "add":
		return laborAdd(app, args[1:])
	case "list":
		return laborList(app, args[1:])
	case "update":
		return laborUpdate(app, args[1:])
	case "delete":
		return laborDelete(app, args[1:])
	default:
		return fmt.Errorf("unknown labor subcommand: %s", args[0])
	}
}

func laborAdd(app *App, args []string) error {
	fs := flag.NewFlagSet("labor add", flag.ExitOnError)
	name := fs.String("name", "", "Labor item name (required)")
	description := fs.String("description", "", "Description")
	rate := fs.Float64("rate", 0, "Hourly rate")
	_ = fs.Parse(args)

	if *name == "" {
		return fmt.Errorf("--name is required")
	}
	if *rate < 0 {
		return fmt.Errorf("rate must not be negative")
	}

	created, err := app.Store.AddLaborItem(models.LaborItem{
		Name:        *name,
		Description: *description,
		Rate:        *rate,
	})
	if err != nil {
		return fmt.Errorf("failed to add labor item: %w", err)
	}
	if created == nil {
		return fmt.Errorf("no workspace linked. Run 'fieldwork workspace create' first")
	}

	fmt.Printf("✓ Labor item created: %s (ID: %s)\n", created.Name, created.ID)
	fmt.Printf("  Rate: %s/hr\n", formatMoney(app.Store.Settings().Currency, created.Rate))
	return nil
}

func laborList(app *App, args []string) error {
	fs := flag.NewFlagSet("labor list", flag.ExitOnError)
	_ = fs.Parse(args)

	items := app.Store.LaborItems()
	if len(items) == 0 {
		fmt.Println("No labor items found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tRATE\tID")
	_, _ = fmt.Fprintln(w, "----\t----\t--")
	for _, l := range items {
		_, _ = fmt.Fprintf(w, "%s\t%.2f\t%s\n", l.Name, l.Rate, shortID(l.ID))
	}
	_ = w.Flush()

	fmt.Printf("\nTotal: %d labor item(s)\n", len(items))
	return nil
}

func laborUpdate(app *App, args []string) error {
	fs := flag.NewFlagSet("labor update", flag.ExitOnError)
	name := fs.String("name", "", "Labor item name")
	description := fs.String("description", "", "Description")
	rate := fs.Float64("rate", 0, "Hourly rate")
	_ = fs.Parse(args)

	if len(fs.Args()) < 1 {
		return fmt.Errorf("labor item ID is required (flags must come before the ID)")
	}
	id, err := uuid.Parse(fs.Args()[0])
	if err != nil {
		return fmt.Errorf("invalid labor item ID: %w", err)
	}

	var upd models.LaborItemUpdate
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			upd.Name = name
		case "description":
			upd.Description = description
		case "rate":
			upd.Rate = rate
		}
	})
	if upd.Rate != nil && *upd.Rate < 0 {
		return fmt.Errorf("rate must not be negative")
	}

	updated, err := app.Store.UpdateLaborItem(id, upd)
	if err != nil {
		return fmt.Errorf("failed to update labor item: %w", err)
	}
	if updated == nil {
		return fmt.Errorf("labor item not found: %s", id)
	}

	fmt.Printf("✓ Labor item updated: %s\n", updated.Name)
	return nil
}

func laborDelete(app *App, args []string) error {
	fs := flag.NewFlagSet("labor delete", flag.ExitOnError)
	_ = fs.Parse(args)

	if len(fs.Args()) < 1 {
		return fmt.Errorf("labor item ID is required")
	}
	id, err := uuid.Parse(fs.Args()[0])
	if err != nil {
		return fmt.Errorf("invalid labor item ID: %w", err)
	}

	ok, err := app.Store.DeleteLaborItem(id)
	if err != nil {
		return fmt.Errorf("failed to delete labor item: %w", err)
	}
	if !ok {
		return fmt.Errorf("labor item not found: %s", id)
	}

	fmt.Printf("✓ Labor item deleted: %s\n", id)
	return nil
}
