// ABOUTME: Entry point for the fieldwork CLI and sync server
// ABOUTME: Routes subcommands and owns the local store lifecycle
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/harperreed/fieldwork/cli"
)

const version = "0.2.0"

func main() {
	// A .env in the working directory can carry FIELDWORK_* settings.
	_ = godotenv.Load()

	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	storePath := flag.String("store", "", "Store file path (default: ~/.local/share/fieldwork/store.json)")

	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("fieldwork version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	command := args[0]
	commandArgs := args[1:]

	switch command {
	case "help":
		printUsage()
		os.Exit(0)

	case "serve":
		// The server never opens the local store, so one machine can host
		// the server and run the CLI side by side.
		if err := cli.ServeCommand(commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
		return
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)
	app, err := cli.NewApp(*storePath, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer func() { _ = app.Close() }()

	switch command {
	// Session commands
	case "register":
		if err := cli.RegisterCommand(app, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "login":
		if err := cli.LoginCommand(app, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "logout":
		if err := cli.LogoutCommand(app, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "refresh":
		if err := cli.RefreshCommand(app, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "workspace":
		if err := cli.WorkspaceCommand(app, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}

	// Data commands
	case "customers":
		if err := cli.CustomersCommand(app, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "parts":
		if err := cli.PartsCommand(app, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "labor":
		if err := cli.LaborCommand(app, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "jobs":
		if err := cli.JobsCommand(app, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "quotes":
		if err := cli.QuotesCommand(app, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "invoices":
		if err := cli.InvoicesCommand(app, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "settings":
		if err := cli.SettingsCommand(app, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}

	// Sync commands
	case "sync":
		if err := cli.SyncCommand(app, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "status":
		if err := cli.StatusCommand(app, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`fieldwork v%s - Offline-first field service toolkit

USAGE:
  fieldwork [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --store <path>         Store file path (default: ~/.local/share/fieldwork/store.json)

SESSION COMMANDS:
  fieldwork register     Create a server account and sign in
    --server <url>         Sync server URL (default: http://localhost:8787)
    --email <email>        Account email
    --name <name>          Display name

  fieldwork login        Sign in to the sync server
    --server <url>         Sync server URL
    --email <email>        Account email

  fieldwork logout       Sign out (local data kept)
  fieldwork refresh      Exchange the refresh token for new credentials

WORKSPACE COMMANDS:
  fieldwork workspace create <name>   Create a shared workspace
  fieldwork workspace join <code>     Join a workspace by invite code
  fieldwork workspace show            Show the linked workspace

DATA COMMANDS:
  fieldwork customers add             Add a customer
    --name <name>                       Customer name (required)
    --email, --phone, --address, --notes
  fieldwork customers list            List customers
    --query <text>                      Search by name or email
  fieldwork customers show <id>       Show one customer with jobs and invoices
  fieldwork customers update [flags] <id>
    Note: flags must come before the customer ID
  fieldwork customers delete <id>

  fieldwork parts add                 Add a catalog part
    --name <name>                       Part name (required)
    --sku, --description, --price, --cost, --stock
  fieldwork parts list|show|update|delete

  fieldwork labor add                 Add a labor rate
    --name <name>                       Labor name (required)
    --description, --rate
  fieldwork labor list|update|delete

  fieldwork jobs add                  Add a job
    --customer <id>                     Customer ID (required)
    --title <title>                     Job title (required)
    --schedule "YYYY-MM-DD HH:MM"       Scheduled time
    --notes <notes>
  fieldwork jobs list|show|update|delete
    --status <status>                   scheduled, in_progress, completed, cancelled
    --items part:<id>:<qty>,labor:<id>:<hours>

  fieldwork quotes add                Add a quote
    --customer <id>                     Customer ID (required)
    --items part:<id>:<qty>,labor:<id>:<hours>  (required)
    --job <id>, --notes
  fieldwork quotes list|show|update|delete
    --status <status>                   draft, sent, accepted, declined

  fieldwork invoices add              Add an invoice
    --customer <id> --items <spec>      Direct invoice
    --quote <id>                        Convert a quote instead
    --due YYYY-MM-DD, --notes
  fieldwork invoices list|show|update|delete
    --status <status>                   draft, sent, paid, void
    --paid                              Mark paid now

  fieldwork settings [show]           Show business settings
  fieldwork settings set              Change settings
    --business-name, --currency, --tax-enabled, --tax-rate,
    --quote-prefix, --invoice-prefix
  fieldwork settings reset            Restore defaults

SYNC COMMANDS:
  fieldwork sync                      Push local changes, then pull
    --watch                             Keep syncing on the configured interval
    --log-file <path>                   Append sync logs to a rotated file
  fieldwork status                    Show session and sync state

SERVER:
  fieldwork serve                     Start the sync server
    --addr <addr>                       Listen address (default: :8787)
    --db <path>                         SQLite path (default: ~/.local/share/fieldwork/server.db)
    --log-file <path>                   Append server logs to a rotated file
    Requires FIELDWORK_JWT_SECRET in the environment or a .env file.

EXAMPLES:
  # First device: create an account and a workspace
  fieldwork register --email owner@shop.test
  fieldwork workspace create "North Shop"

  # Second device: join with the invite code
  fieldwork login --email owner@shop.test
  fieldwork workspace join AB12CD34

  # Day to day
  fieldwork customers add --name "Acme Plumbing" --phone 555-0100
  fieldwork jobs add --customer <id> --title "Boiler service" --schedule "2026-09-01 09:00"
  fieldwork quotes add --customer <id> --items part:<id>:2,labor:<id>:1.5
  fieldwork invoices add --quote <id> --due 2026-10-01
  fieldwork sync

`, version)
}
