// ABOUTME: Job CLI commands
// ABOUTME: add, list, show, update, and delete scheduled work
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

// JobsCommand dispatches job subcommands.
func JobsCommand(app *App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: fieldwork jobs <add|list|show|update|delete>")
	}

	switch args[0] {
	case "add":
		return jobAdd(app, args[1:])
	case "list":
		return jobList(app, args[1:])
	case "show":
		return jobShow(app, args[1:])
	case "update":
		return jobUpdate(app, args[1:])
	case "delete":
		return jobDelete(app, args[1:])
	default:
		return fmt.Errorf("unknown jobs subcommand: %s", args[0])
	}
}

// parseSchedule accepts "2006-01-02 15:04" or a bare date.
func parseSchedule(raw string) (*time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid schedule %q (expected YYYY-MM-DD or \"YYYY-MM-DD HH:MM\")", raw)
}

func jobAdd(app *App, args []string) error {
	fs := flag.NewFlagSet("jobs add", flag.ExitOnError)
	customer := fs.String("customer", "", "Customer ID (required)")
	title := fs.String("title", "", "Job title (required)")
	description := fs.String("description", "", "What the job involves")
	schedule := fs.String("schedule", "", "Scheduled time (YYYY-MM-DD or \"YYYY-MM-DD HH:MM\")")
	notes := fs.String("notes", "", "Notes")
	_ = fs.Parse(args)

	if *customer == "" || *title == "" {
		return fmt.Errorf("--customer and --title are required")
	}
	customerID, err := uuid.Parse(*customer)
	if err != nil {
		return fmt.Errorf("invalid customer ID: %w", err)
	}
	if app.Store.CustomerByID(customerID) == nil {
		return fmt.Errorf("customer not found: %s", customerID)
	}

	job := models.Job{
		CustomerID:  customerID,
		Title:       *title,
		Description: *description,
		Status:      models.JobStatusScheduled,
		Notes:       *notes,
	}
	if *schedule != "" {
		when, err := parseSchedule(*schedule)
		if err != nil {
			return err
		}
		job.ScheduledAt = when
	}

	created, err := app.Store.AddJob(job)
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}
	if created == nil {
		return fmt.Errorf("no workspace linked. Run 'fieldwork workspace create' first")
	}

	fmt.Printf("✓ Job created: %s (ID: %s)\n", created.Title, created.ID)
	if created.ScheduledAt != nil {
		fmt.Printf("  Scheduled: %s\n", formatWhen(created.ScheduledAt))
	}
	return nil
}

func jobList(app *App, args []string) error {
	fs := flag.NewFlagSet("jobs list", flag.ExitOnError)
	customer := fs.String("customer", "", "Filter by customer ID")
	status := fs.String("status", "", "Filter by status")
	_ = fs.Parse(args)

	var jobs []models.Job
	if *customer != "" {
		customerID, err := uuid.Parse(*customer)
		if err != nil {
			return fmt.Errorf("invalid customer ID: %w", err)
		}
		jobs = app.Store.JobsForCustomer(customerID)
	} else {
		jobs = app.Store.Jobs()
	}

	if *status != "" {
		var filtered []models.Job
		for _, j := range jobs {
			if j.Status == *status {
				filtered = append(filtered, j)
			}
		}
		jobs = filtered
	}

	if len(jobs) == 0 {
		fmt.Println("No jobs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TITLE\tCUSTOMER\tSTATUS\tSCHEDULED\tID")
	_, _ = fmt.Fprintln(w, "-----\t--------\t------\t---------\t--")
	for _, j := range jobs {
		customerName := "-"
		if c := app.Store.CustomerByID(j.CustomerID); c != nil {
			customerName = c.Name
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", j.Title, customerName, j.Status, formatWhen(j.ScheduledAt), shortID(j.ID))
	}
	_ = w.Flush()

	fmt.Printf("\nTotal: %d job(s)\n", len(jobs))
	return nil
}

func jobShow(app *App, args []string) error {
	fs := flag.NewFlagSet("jobs show", flag.ExitOnError)
	_ = fs.Parse(args)

	if len(fs.Args()) < 1 {
		return fmt.Errorf("job ID is required")
	}
	id, err := uuid.Parse(fs.Args()[0])
	if err != nil {
		return fmt.Errorf("invalid job ID: %w", err)
	}

	job := app.Store.JobByID(id)
	if job == nil {
		return fmt.Errorf("job not found: %s", id)
	}

	fmt.Printf("Job: %s\n", job.Title)
	fmt.Printf("  ID:        %s\n", job.ID)
	fmt.Printf("  Status:    %s\n", job.Status)
	fmt.Printf("  Scheduled: %s\n", formatWhen(job.ScheduledAt))
	if c := app.Store.CustomerByID(job.CustomerID); c != nil {
		fmt.Printf("  Customer:  %s (%s)\n", c.Name, shortID(c.ID))
	}
	if job.Description != "" {
		fmt.Printf("  Details:   %s\n", job.Description)
	}
	if job.Notes != "" {
		fmt.Printf("  Notes:     %s\n", job.Notes)
	}

	if len(job.LineItems) > 0 {
		currency := app.Store.Settings().Currency
		fmt.Printf("\nLine items (%d):\n", len(job.LineItems))
		for _, li := range job.LineItems {
			fmt.Printf("  %-8s %s × %.2f @ %.2f = %s\n", li.Type, li.Description, li.Quantity, li.UnitPrice, formatMoney(currency, li.Total))
		}
	}

	if quotes := app.Store.QuotesForJob(id); len(quotes) > 0 {
		fmt.Printf("\nQuotes (%d):\n", len(quotes))
		for _, q := range quotes {
			fmt.Printf("  %s  %s [%s]\n", shortID(q.ID), q.Number, q.Status)
		}
	}
	if invoices := app.Store.InvoicesForJob(id); len(invoices) > 0 {
		fmt.Printf("\nInvoices (%d):\n", len(invoices))
		for _, inv := range invoices {
			fmt.Printf("  %s  %s [%s]\n", shortID(inv.ID), inv.Number, inv.Status)
		}
	}
	return nil
}

func jobUpdate(app *App, args []string) error {
	fs := flag.NewFlagSet("jobs update", flag.ExitOnError)
	title := fs.String("title", "", "Job title")
	description := fs.String("description", "", "What the job involves")
	status := fs.String("status", "", "Status (scheduled, in_progress, completed, cancelled)")
	schedule := fs.String("schedule", "", "Scheduled time (YYYY-MM-DD or \"YYYY-MM-DD HH:MM\")")
	items := fs.String("items", "", "Line items (part:<id>:<qty>,labor:<id>:<hours>)")
	notes := fs.String("notes", "", "Notes")
	_ = fs.Parse(args)

	if len(fs.Args()) < 1 {
		return fmt.Errorf("job ID is required (flags must come before the ID)")
	}
	id, err := uuid.Parse(fs.Args()[0])
	if err != nil {
		return fmt.Errorf("invalid job ID: %w", err)
	}

	var upd models.JobUpdate
	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			upd.Title = title
		case "description":
			upd.Description = description
		case "status":
			upd.Status = status
		case "schedule":
			when, err := parseSchedule(*schedule)
			if err != nil {
				flagErr = err
				return
			}
			upd.ScheduledAt = when
		case "items":
			lines, err := parseLineItems(app, *items)
			if err != nil {
				flagErr = err
				return
			}
			upd.LineItems = &lines
		case "notes":
			upd.Notes = notes
		}
	})
	if flagErr != nil {
		return flagErr
	}

	updated, err := app.Store.UpdateJob(id, upd)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	if updated == nil {
		return fmt.Errorf("job not found: %s", id)
	}

	fmt.Printf("✓ Job updated: %s [%s]\n", updated.Title, updated.Status)
	return nil
}

func jobDelete(app *App, args []string) error {
	fs := flag.NewFlagSet("jobs delete", flag.ExitOnError)
	_ = fs.Parse(args)

	if len(fs.Args()) < 1 {
		return fmt.Errorf("job ID is required")
	}
	id, err := uuid.Parse(fs.Args()[0])
	if err != nil {
		return fmt.Errorf("invalid job ID: %w", err)
	}

	ok, err := app.Store.DeleteJob(id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	if !ok {
		return fmt.Errorf("job not found: %s", id)
	}

	fmt.Printf("✓ Job deleted: %s\n", id)
	return nil
}
