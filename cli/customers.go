// ABOUTME: Customer CLI commands
// ABOUTME: add, list, show, update, and delete customers in the workspace
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

// CustomersCommand dispatches customer subcommands.
func CustomersCommand(app *App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: fieldwork customers <add|list|show|update|delete>")
	}

	switch args[0] {
	case "add":
		return customerAdd(app, args[1:])
	case "list":
		return customerList(app, args[1:])
	case "show":
		return customerShow(app, args[1:])
	case "update":
		return customerUpdate(app, args[1:])
	case "delete":
		return customerDelete(app, args[1:])
	default:
		return fmt.Errorf("unknown customers subcommand: %s", args[0])
	}
}

func customerAdd(app *App, args []string) error {
	fs := flag.NewFlagSet("customers add", flag.ExitOnError)
	name := fs.String("name", "", "Customer name (required)")
	email := fs.String("email", "", "Email address")
	phone := fs.String("phone", "", "Phone number")
	address := fs.String("address", "", "Street address")
	notes := fs.String("notes", "", "Notes about the customer")
	_ = fs.Parse(args)

	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	created, err := app.Store.AddCustomer(models.Customer{
		Name:    *name,
		Email:   *email,
		Phone:   *phone,
		Address: *address,
		Notes:   *notes,
	})
	if err != nil {
		return fmt.Errorf("failed to add customer: %w", err)
	}
	if created == nil {
		return fmt.Errorf("no workspace linked. Run 'fieldwork workspace create' first")
	}

	fmt.Printf("✓ Customer created: %s (ID: %s)\n", created.Name, created.ID)
	if created.Email != "" {
		fmt.Printf("  Email: %s\n", created.Email)
	}
	if created.Phone != "" {
		fmt.Printf("  Phone: %s\n", created.Phone)
	}
	return nil
}

func customerList(app *App, args []string) error {
	fs := flag.NewFlagSet("customers list", flag.ExitOnError)
	query := fs.String("query", "", "Filter by name or email")
	_ = fs.Parse(args)

	customers := app.Store.Customers()
	if *query != "" {
		needle := strings.ToLower(*query)
		var filtered []models.Customer
		for _, c := range customers {
			if strings.Contains(strings.ToLower(c.Name), needle) ||
				strings.Contains(strings.ToLower(c.Email), needle) {
				filtered = append(filtered, c)
			}
		}
		customers = filtered
	}

	if len(customers) == 0 {
		fmt.Println("No customers found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tEMAIL\tPHONE\tID")
	_, _ = fmt.Fprintln(w, "----\t-----\t-----\t--")
	for _, c := range customers {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Name, dash(c.Email), dash(c.Phone), shortID(c.ID))
	}
	_ = w.Flush()

	fmt.Printf("\nTotal: %d customer(s)\n", len(customers))
	return nil
}

func customerShow(app *App, args []string) error {
	fs := flag.NewFlagSet("customers show", flag.ExitOnError)
	_ = fs.Parse(args)

	if len(fs.Args()) < 1 {
		return fmt.Errorf("customer ID is required")
	}
	id, err := uuid.Parse(fs.Args()[0])
	if err != nil {
		return fmt.Errorf("invalid customer ID: %w", err)
	}

	customer := app.Store.CustomerByID(id)
	if customer == nil {
		return fmt.Errorf("customer not found: %s", id)
	}

	fmt.Printf("Customer: %s\n", customer.Name)
	fmt.Printf("  ID:      %s\n", customer.ID)
	fmt.Printf("  Email:   %s\n", dash(customer.Email))
	fmt.Printf("  Phone:   %s\n", dash(customer.Phone))
	fmt.Printf("  Address: %s\n", dash(customer.Address))
	if customer.Notes != "" {
		fmt.Printf("  Notes:   %s\n", customer.Notes)
	}

	jobs := app.Store.JobsForCustomer(id)
	if len(jobs) > 0 {
		fmt.Printf("\nJobs (%d):\n", len(jobs))
		for _, j := range jobs {
			fmt.Printf("  %s  %s [%s]\n", shortID(j.ID), j.Title, j.Status)
		}
	}

	currency := app.Store.Settings().Currency
	if invoices := app.Store.InvoicesForCustomer(id); len(invoices) > 0 {
		fmt.Printf("\nInvoices (%d):\n", len(invoices))
		for _, inv := range invoices {
			fmt.Printf("  %s  %s [%s] %s\n", shortID(inv.ID), inv.Number, inv.Status, formatMoney(currency, inv.Total))
		}
	}
	return nil
}

func customerUpdate(app *App, args []string) error {
	fs := flag.NewFlagSet("customers update", flag.ExitOnError)
	name := fs.String("name", "", "Customer name")
	email := fs.String("email", "", "Email address")
	phone := fs.String("phone", "", "Phone number")
	address := fs.String("address", "", "Street address")
	notes := fs.String("notes", "", "Notes about the customer")
	_ = fs.Parse(args)

	if len(fs.Args()) < 1 {
		return fmt.Errorf("customer ID is required (flags must come before the ID)")
	}
	id, err := uuid.Parse(fs.Args()[0])
	if err != nil {
		return fmt.Errorf("invalid customer ID: %w", err)
	}

	var upd models.CustomerUpdate
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			upd.Name = name
		case "email":
			upd.Email = email
		case "phone":
			upd.Phone = phone
		case "address":
			upd.Address = address
		case "notes":
			upd.Notes = notes
		}
	})

	updated, err := app.Store.UpdateCustomer(id, upd)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	if updated == nil {
		return fmt.Errorf("customer not found: %s", id)
	}

	fmt.Printf("✓ Customer updated: %s (ID: %s)\n", updated.Name, id)
	return nil
}

func customerDelete(app *App, args []string) error {
	fs := flag.NewFlagSet("customers delete", flag.ExitOnError)
	_ = fs.Parse(args)

	if len(fs.Args()) < 1 {
		return fmt.Errorf("customer ID is required")
	}
	id, err := uuid.Parse(fs.Args()[0])
	if err != nil {
		return fmt.Errorf("invalid customer ID: %w", err)
	}

	ok, err := app.Store.DeleteCustomer(id)
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	if !ok {
		return fmt.Errorf("customer not found: %s", id)
	}

	fmt.Printf("✓ Customer deleted: %s\n", id)
	return nil
}
