// ABOUTME: Quote CLI commands
// ABOUTME: add, list, show, update, and delete quotes with computed totals
package cli

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/harperreed/fieldwork/models"
)

// QuotesCommand dispatches quote subcommands.
func QuotesCommand(app *App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: fieldwork quotes <add|list|show|update|delete>")
	}

	switch args[0] {
	case "add":
		return quoteAdd(app, args[1:])
	case "list":
		return quoteList(app, args[1:])
	case "show":
		return quoteShow(app, args[1:])
	case "update":
		return quoteUpdate(app, args[1:])
	case "delete":
		return quoteDelete(app, args[1:])
	default:
		return fmt.Errorf("unknown quotes subcommand: %s", args[0])
	}
}

func quoteAdd(app *App, args []string) error {
	fs := flag.NewFlagSet("quotes add", flag.ExitOnError)
	customer := fs.String("customer", "", "Customer ID (required)")
	job := fs.String("job", "", "Job ID to attach the quote to")
	items := fs.String("items", "", "Line items: part:<id>:<qty>,labor:<id>:<hours> (required)")
	notes := fs.String("notes", "", "Notes")
	_ = fs.Parse(args)

	if *customer == "" || *items == "" {
		return fmt.Errorf("--customer and --items are required")
	}
	customerID, err := uuid.Parse(*customer)
	if err != nil {
		return fmt.Errorf("invalid customer ID: %w", err)
	}
	if app.Store.CustomerByID(customerID) == nil {
		return fmt.Errorf("customer not found: %s", customerID)
	}

	quote := models.Quote{CustomerID: customerID, Notes: *notes}
	if *job != "" {
		jobID, err := uuid.Parse(*job)
		if err != nil {
			return fmt.Errorf("invalid job ID: %w", err)
		}
		if app.Store.JobByID(jobID) == nil {
			return fmt.Errorf("job not found: %s", jobID)
		}
		quote.JobID = &jobID
	}

	lines, err := parseLineItems(app, *items)
	if err != nil {
		return err
	}
	quote.LineItems = lines

	created, err := app.Store.AddQuote(quote)
	if err != nil {
		return fmt.Errorf("failed to add quote: %w", err)
	}
	if created == nil {
		return fmt.Errorf("no workspace linked. Run 'fieldwork workspace create' first")
	}

	currency := app.Store.Settings().Currency
	fmt.Printf("✓ Quote created: %s (ID: %s)\n", created.Number, created.ID)
	fmt.Printf("  Subtotal: %s\n", formatMoney(currency, created.Subtotal))
	if created.Tax > 0 {
		fmt.Printf("  Tax:      %s (%.2f%%)\n", formatMoney(currency, created.Tax), created.TaxRate)
	}
	fmt.Printf("  Total:    %s\n", formatMoney(currency, created.Total))
	return nil
}

func quoteList(app *App, args []string) error {
	fs := flag.NewFlagSet("quotes list", flag.ExitOnError)
	customer := fs.String("customer", "", "Filter by customer ID")
	status := fs.String("status", "", "Filter by status")
	_ = fs.Parse(args)

	var quotes []models.Quote
	if *customer != "" {
		customerID, err := uuid.Parse(*customer)
		if err != nil {
			return fmt.Errorf("invalid customer ID: %w", err)
		}
		quotes = app.Store.QuotesForCustomer(customerID)
	} else {
		quotes = app.Store.Quotes()
	}

	if *status != "" {
		var filtered []models.Quote
		for _, q := range quotes {
			if q.Status == *status {
				filtered = append(filtered, q)
			}
		}
		quotes = filtered
	}

	if len(quotes) == 0 {
		fmt.Println("No quotes found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NUMBER\tCUSTOMER\tSTATUS\tTOTAL\tID")
	_, _ = fmt.Fprintln(w, "------\t--------\t------\t-----\t--")
	for _, q := range quotes {
		customerName := "-"
		if c := app.Store.CustomerByID(q.CustomerID); c != nil {
			customerName = c.Name
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\n", q.Number, customerName, q.Status, q.Total, shortID(q.ID))
	}
	_ = w.Flush()

	fmt.Printf("\nTotal: %d quote(s)\n", len(quotes))
	return nil
}

func quoteShow(app *App, args []string) error {
	fs := flag.NewFlagSet("quotes show", flag.ExitOnError)
	_ = fs.Parse(args)

	if len(fs.Args()) < 1 {
		return fmt.Errorf("quote ID is required")
	}
	id, err := uuid.Parse(fs.Args()[0])
	if err != nil {
		return fmt.Errorf("invalid quote ID: %w", err)
	}

	quote := app.Store.QuoteByID(id)
	if quote == nil {
		return fmt.Errorf("quote not found: %s", id)
	}

	currency := app.Store.Settings().Currency
	fmt.Printf("Quote %s [%s]\n", quote.Number, quote.Status)
	fmt.Printf("  ID:       %s\n", quote.ID)
	if c := app.Store.CustomerByID(quote.CustomerID); c != nil {
		fmt.Printf("  Customer: %s (%s)\n", c.Name, shortID(c.ID))
	}
	if quote.JobID != nil {
		fmt.Printf("  Job:      %s\n", shortID(*quote.JobID))
	}
	fmt.Println()
	for _, li := range quote.LineItems {
		fmt.Printf("  %-8s %s × %.2f @ %.2f = %s\n", li.Type, li.Description, li.Quantity, li.UnitPrice, formatMoney(currency, li.Total))
	}
	fmt.Printf("\n  Subtotal: %s\n", formatMoney(currency, quote.Subtotal))
	if quote.Tax > 0 {
		fmt.Printf("  Tax:      %s (%.2f%%)\n", formatMoney(currency, quote.Tax), quote.TaxRate)
	}
	fmt.Printf("  Total:    %s\n", formatMoney(currency, quote.Total))
	if quote.Notes != "" {
		fmt.Printf("\n  Notes: %s\n", quote.Notes)
	}
	return nil
}

func quoteUpdate(app *App, args []string) error {
	fs := flag.NewFlagSet("quotes update", flag.ExitOnError)
	status := fs.String("status", "", "Status (draft, sent, accepted, declined)")
	items := fs.String("items", "", "Replace line items (part:<id>:<qty>,labor:<id>:<hours>)")
	taxRate := fs.Float64("tax-rate", 0, "Override tax rate percent")
	notes := fs.String("notes", "", "Notes")
	_ = fs.Parse(args)

	if len(fs.Args()) < 1 {
		return fmt.Errorf("quote ID is required (flags must come before the ID)")
	}
	id, err := uuid.Parse(fs.Args()[0])
	if err != nil {
		return fmt.Errorf("invalid quote ID: %w", err)
	}

	var upd models.QuoteUpdate
	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "status":
			upd.Status = status
		case "items":
			lines, err := parseLineItems(app, *items)
			if err != nil {
				flagErr = err
				return
			}
			upd.LineItems = &lines
		case "tax-rate":
			upd.TaxRate = taxRate
		case "notes":
			upd.Notes = notes
		}
	})
	if flagErr != nil {
		return flagErr
	}

	updated, err := app.Store.UpdateQuote(id, upd)
	if err != nil {
		return fmt.Errorf("failed to update quote: %w", err)
	}
	if updated == nil {
		return fmt.Errorf("quote not found: %s", id)
	}

	fmt.Printf("✓ Quote updated: %s [%s] total %s\n", updated.Number, updated.Status,
		formatMoney(app.Store.Settings().Currency, updated.Total))
	return nil
}

func quoteDelete(app *App, args []string) error {
	fs := flag.NewFlagSet("quotes delete", flag.ExitOnError)
	_ = fs.Parse(args)

	if len(fs.Args()) < 1 {
		return fmt.Errorf("quote ID is required")
	}
	id, err := uuid.Parse(fs.Args()[0])
	if err != nil {
		return fmt.Errorf("invalid quote ID: %w", err)
	}

	ok, err := app.Store.DeleteQuote(id)
	if err != nil {
		return fmt.Errorf("failed to delete quote: %w", err)
	}
	if !ok {
		return fmt.Errorf("quote not found: %s", id)
	}

	fmt.Printf("✓ Quote deleted: %s\n", id)
	return nil
}
