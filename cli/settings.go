// ABOUTME: Business settings CLI commands
// ABOUTME: show, set, and reset currency, tax, and numbering preferences
package cli

import (
	"flag"
	"fmt"

	"github.com/harperreed/fieldwork/models"
)

// SettingsCommand dispatches settings subcommands.
func SettingsCommand(app *App, args []string) error {
	if len(args) == 0 {
		return settingsShow(app)
	}

	switch args[0] {
	case "show":
		return settingsShow(app)
	case "set":
		return settingsSet(app, args[1:])
	case "reset":
		return settingsReset(app)
	default:
		return fmt.Errorf("unknown settings subcommand: %s", args[0])
	}
}

func settingsShow(app *App) error {
	printSettings(app.Store.Settings())
	return nil
}

func settingsSet(app *App, args []string) error {
	fs := flag.NewFlagSet("settings set", flag.ExitOnError)
	businessName := fs.String("business-name", "", "Business name shown on documents")
	currency := fs.String("currency", "", "Currency code (e.g. USD)")
	taxEnabled := fs.Bool("tax-enabled", false, "Apply tax to quote and invoice totals")
	taxRate := fs.Float64("tax-rate", 0, "Default tax rate percent")
	quotePrefix := fs.String("quote-prefix", "", "Quote number prefix")
	invoicePrefix := fs.String("invoice-prefix", "", "Invoice number prefix")
	_ = fs.Parse(args)

	var upd models.SettingsUpdate
	changed := false
	fs.Visit(func(f *flag.Flag) {
		changed = true
		switch f.Name {
		case "business-name":
			upd.BusinessName = businessName
		case "currency":
			upd.Currency = currency
		case "tax-enabled":
			upd.TaxEnabled = taxEnabled
		case "tax-rate":
			upd.TaxRate = taxRate
		case "quote-prefix":
			upd.QuotePrefix = quotePrefix
		case "invoice-prefix":
			upd.InvoicePrefix = invoicePrefix
		}
	})
	if !changed {
		return fmt.Errorf("nothing to set. Try --currency, --tax-rate, or --business-name")
	}
	if upd.TaxRate != nil && *upd.TaxRate < 0 {
		return fmt.Errorf("tax rate must not be negative")
	}

	updated := app.Store.UpdateSettings(upd)
	fmt.Println("✓ Settings updated")
	printSettings(updated)
	return nil
}

func settingsReset(app *App) error {
	updated := app.Store.ResetSettings()
	fmt.Println("✓ Settings reset to defaults")
	printSettings(updated)
	return nil
}

func printSettings(cfg models.Settings) {
	fmt.Printf("  Business name:  %s\n", dash(cfg.BusinessName))
	fmt.Printf("  Currency:       %s\n", cfg.Currency)
	if cfg.TaxEnabled {
		fmt.Printf("  Tax:            enabled (%.2f%%)\n", cfg.TaxRate)
	} else {
		fmt.Printf("  Tax:            disabled\n")
	}
	fmt.Printf("  Quote prefix:   %s\n", cfg.QuotePrefix)
	fmt.Printf("  Invoice prefix: %s\n", cfg.InvoicePrefix)
}
