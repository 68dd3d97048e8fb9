// ABOUTME: Invoice CLI commands
// ABOUTME: add, list, show, update, and delete invoices, including quote conversion
package cli

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/fieldwork/models"
)

// InvoicesCommand dispatches invoice subcommands.
func InvoicesCommand(app *App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: fieldwork invoices <add|list|show|update|delete>")
	}

	switch args[0] {
	case "add":
		return invoiceAdd(app, args[1:])
	case "list":
		return invoiceList(app, args[1:])
	case "show":
		return invoiceShow(app, args[1:])
	case "update":
		return invoiceUpdate(app, args[1:])
	case "delete":
		return invoiceDelete(app, args[1:])
	default:
		return fmt.Errorf("unknown invoices subcommand: %s", args[0])
	}
}

func invoiceAdd(app *App, args []string) error {
	fs := flag.NewFlagSet("invoices add", flag.ExitOnError)
	customer := fs.String("customer", "", "Customer ID")
	job := fs.String("job", "", "Job ID to attach the invoice to")
	quote := fs.String("quote", "", "Quote ID to convert into an invoice")
	items := fs.String("items", "", "Line items: part:<id>:<qty>,labor:<id>:<hours>")
	due := fs.String("due", "", "Due date (YYYY-MM-DD)")
	notes := fs.String("notes", "", "Notes")
	_ = fs.Parse(args)

	var inv models.Invoice

	// A quote seeds the invoice; explicit flags override what it carried.
	if *quote != "" {
		quoteID, err := uuid.Parse(*quote)
		if err != nil {
			return fmt.Errorf("invalid quote ID: %w", err)
		}
		src := app.Store.QuoteByID(quoteID)
		if src == nil {
			return fmt.Errorf("quote not found: %s", quoteID)
		}
		inv.QuoteID = &quoteID
		inv.CustomerID = src.CustomerID
		inv.JobID = src.JobID
		inv.LineItems = src.LineItems
		inv.TaxRate = src.TaxRate
		inv.Notes = src.Notes
	}

	if *customer != "" {
		customerID, err := uuid.Parse(*customer)
		if err != nil {
			return fmt.Errorf("invalid customer ID: %w", err)
		}
		inv.CustomerID = customerID
	}
	if inv.CustomerID == uuid.Nil {
		return fmt.Errorf("--customer or --quote is required")
	}
	if app.Store.CustomerByID(inv.CustomerID) == nil {
		return fmt.Errorf("customer not found: %s", inv.CustomerID)
	}

	if *job != "" {
		jobID, err := uuid.Parse(*job)
		if err != nil {
			return fmt.Errorf("invalid job ID: %w", err)
		}
		if app.Store.JobByID(jobID) == nil {
			return fmt.Errorf("job not found: %s", jobID)
		}
		inv.JobID = &jobID
	}

	if *items != "" {
		lines, err := parseLineItems(app, *items)
		if err != nil {
			return err
		}
		inv.LineItems = lines
	}
	if len(inv.LineItems) == 0 {
		return fmt.Errorf("--items or --quote is required")
	}

	if *due != "" {
		dueAt, err := parseSchedule(*due)
		if err != nil {
			return err
		}
		inv.DueAt = dueAt
	}
	if *notes != "" {
		inv.Notes = *notes
	}

	created, err := app.Store.AddInvoice(inv)
	if err != nil {
		return fmt.Errorf("failed to add invoice: %w", err)
	}
	if created == nil {
		return fmt.Errorf("no workspace linked. Run 'fieldwork workspace create' first")
	}

	currency := app.Store.Settings().Currency
	fmt.Printf("✓ Invoice created: %s (ID: %s)\n", created.Number, created.ID)
	fmt.Printf("  Subtotal: %s\n", formatMoney(currency, created.Subtotal))
	if created.Tax > 0 {
		fmt.Printf("  Tax:      %s (%.2f%%)\n", formatMoney(currency, created.Tax), created.TaxRate)
	}
	fmt.Printf("  Total:    %s\n", formatMoney(currency, created.Total))
	if created.DueAt != nil {
		fmt.Printf("  Due:      %s\n", formatWhen(created.DueAt))
	}
	return nil
}

func invoiceList(app *App, args []string) error {
	fs := flag.NewFlagSet("invoices list", flag.ExitOnError)
	customer := fs.String("customer", "", "Filter by customer ID")
	status := fs.String("status", "", "Filter by status")
	_ = fs.Parse(args)

	var invoices []models.Invoice
	if *customer != "" {
		customerID, err := uuid.Parse(*customer)
		if err != nil {
			return fmt.Errorf("invalid customer ID: %w", err)
		}
		invoices = app.Store.InvoicesForCustomer(customerID)
	} else {
		invoices = app.Store.Invoices()
	}

	if *status != "" {
		var filtered []models.Invoice
		for _, inv := range invoices {
			if inv.Status == *status {
				filtered = append(filtered, inv)
			}
		}
		invoices = filtered
	}

	if len(invoices) == 0 {
		fmt.Println("No invoices found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NUMBER\tCUSTOMER\tSTATUS\tTOTAL\tDUE\tID")
	_, _ = fmt.Fprintln(w, "------\t--------\t------\t-----\t---\t--")
	for _, inv := range invoices {
		customerName := "-"
		if c := app.Store.CustomerByID(inv.CustomerID); c != nil {
			customerName = c.Name
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\t%s\n",
			inv.Number, customerName, inv.Status, inv.Total, formatWhen(inv.DueAt), shortID(inv.ID))
	}
	_ = w.Flush()

	fmt.Printf("\nTotal: %d invoice(s)\n", len(invoices))
	return nil
}

func invoiceShow(app *App, args []string) error {
	fs := flag.NewFlagSet("invoices show", flag.ExitOnError)
	_ = fs.Parse(args)

	if len(fs.Args()) < 1 {
		return fmt.Errorf("invoice ID is required")
	}
	id, err := uuid.Parse(fs.Args()[0])
	if err != nil {
		return fmt.Errorf("invalid invoice ID: %w", err)
	}

	inv := app.Store.InvoiceByID(id)
	if inv == nil {
		return fmt.Errorf("invoice not found: %s", id)
	}

	currency := app.Store.Settings().Currency
	fmt.Printf("Invoice %s [%s]\n", inv.Number, inv.Status)
	fmt.Printf("  ID:       %s\n", inv.ID)
	if c := app.Store.CustomerByID(inv.CustomerID); c != nil {
		fmt.Printf("  Customer: %s (%s)\n", c.Name, shortID(c.ID))
	}
	if inv.JobID != nil {
		fmt.Printf("  Job:      %s\n", shortID(*inv.JobID))
	}
	if inv.QuoteID != nil {
		fmt.Printf("  Quote:    %s\n", shortID(*inv.QuoteID))
	}
	fmt.Println()
	for _, li := range inv.LineItems {
		fmt.Printf("  %-8s %s × %.2f @ %.2f = %s\n", li.Type, li.Description, li.Quantity, li.UnitPrice, formatMoney(currency, li.Total))
	}
	fmt.Printf("\n  Subtotal: %s\n", formatMoney(currency, inv.Subtotal))
	if inv.Tax > 0 {
		fmt.Printf("  Tax:      %s (%.2f%%)\n", formatMoney(currency, inv.Tax), inv.TaxRate)
	}
	fmt.Printf("  Total:    %s\n", formatMoney(currency, inv.Total))
	fmt.Printf("  Due:      %s\n", formatWhen(inv.DueAt))
	fmt.Printf("  Paid:     %s\n", formatWhen(inv.PaidAt))
	if inv.Notes != "" {
		fmt.Printf("\n  Notes: %s\n", inv.Notes)
	}
	return nil
}

func invoiceUpdate(app *App, args []string) error {
	fs := flag.NewFlagSet("invoices update", flag.ExitOnError)
	status := fs.String("status", "", "Status (draft, sent, paid, void)")
	items := fs.String("items", "", "Replace line items (part:<id>:<qty>,labor:<id>:<hours>)")
	taxRate := fs.Float64("tax-rate", 0, "Override tax rate percent")
	due := fs.String("due", "", "Due date (YYYY-MM-DD)")
	paid := fs.Bool("paid", false, "Mark the invoice paid now")
	notes := fs.String("notes", "", "Notes")
	_ = fs.Parse(args)

	if len(fs.Args()) < 1 {
		return fmt.Errorf("invoice ID is required (flags must come before the ID)")
	}
	id, err := uuid.Parse(fs.Args()[0])
	if err != nil {
		return fmt.Errorf("invalid invoice ID: %w", err)
	}

	var upd models.InvoiceUpdate
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
		case "due":
			dueAt, err := parseSchedule(*due)
			if err != nil {
				flagErr = err
				return
			}
			upd.DueAt = dueAt
		case "notes":
			upd.Notes = notes
		}
	})
	if flagErr != nil {
		return flagErr
	}

	if *paid {
		now := time.Now().UTC()
		upd.PaidAt = &now
		if upd.Status == nil {
			paidStatus := models.InvoiceStatusPaid
			upd.Status = &paidStatus
		}
	}

	updated, err := app.Store.UpdateInvoice(id, upd)
	if err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}
	if updated == nil {
		return fmt.Errorf("invoice not found: %s", id)
	}

	fmt.Printf("✓ Invoice updated: %s [%s] total %s\n", updated.Number, updated.Status,
		formatMoney(app.Store.Settings().Currency, updated.Total))
	return nil
}

func invoiceDelete(app *App, args []string) error {
	fs := flag.NewFlagSet("invoices delete", flag.ExitOnError)
	_ = fs.Parse(args)

	if len(fs.Args()) < 1 {
		return fmt.Errorf("invoice ID is required")
	}
	id, err := uuid.Parse(fs.Args()[0])
	if err != nil {
		return fmt.Errorf("invalid invoice ID: %w", err)
	}

	ok, err := app.Store.DeleteInvoice(id)
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	if !ok {
		return fmt.Errorf("invoice not found: %s", id)
	}

	fmt.Printf("✓ Invoice deleted: %s\n", id)
	return nil
}
