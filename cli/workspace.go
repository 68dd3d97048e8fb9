// ABOUTME: Workspace CLI commands
// ABOUTME: create, join by invite code, and show the linked workspace
package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/harperreed/fieldwork/models"
	"github.com/harperreed/fieldwork/sync"
)

// WorkspaceCommand dispatches workspace subcommands.
func WorkspaceCommand(app *App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: fieldwork workspace <create|join|show>")
	}

	switch args[0] {
	case "create":
		return workspaceCreate(app, args[1:])
	case "join":
		return workspaceJoin(app, args[1:])
	case "show":
		return workspaceShow(app, args[1:])
	default:
		return fmt.Errorf("unknown workspace subcommand: %s", args[0])
	}
}

func workspaceCreate(app *App, args []string) error {
	fs := flag.NewFlagSet("workspace create", flag.ExitOnError)
	_ = fs.Parse(args)

	name := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if name == "" {
		return fmt.Errorf("workspace name is required: fieldwork workspace create <name>")
	}

	user, err := requireUser(app)
	if err != nil {
		return err
	}

	ws, err := app.Client.CreateWorkspace(context.Background(), user.AccessToken, name)
	if err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}

	app.Store.LinkWorkspace(models.WorkspaceLink{
		ID:         ws.WorkspaceID,
		Name:       ws.Name,
		Role:       models.RoleOwner,
		InviteCode: ws.InviteCode,
	})

	fmt.Printf("✓ Workspace created: %s\n", ws.Name)
	fmt.Printf("  Invite code: %s\n", ws.InviteCode)
	fmt.Println("\nShare the invite code to link more devices or teammates")
	return nil
}

func workspaceJoin(app *App, args []string) error {
	fs := flag.NewFlagSet("workspace join", flag.ExitOnError)
	_ = fs.Parse(args)

	if len(fs.Args()) < 1 {
		return fmt.Errorf("invite code is required: fieldwork workspace join <invite-code>")
	}
	code := strings.ToUpper(strings.TrimSpace(fs.Args()[0]))

	user, err := requireUser(app)
	if err != nil {
		return err
	}

	if app.Config.DeviceID == "" {
		app.Config.DeviceID = sync.GenerateDeviceID()
		if err := sync.SaveConfig(app.Config); err != nil {
			return fmt.Errorf("failed to save sync config: %w", err)
		}
	}

	joined, err := app.Client.AcceptInvite(context.Background(), user.AccessToken, user.Email, code, app.Config.DeviceID)
	if err != nil {
		return fmt.Errorf("failed to join workspace: %w", err)
	}

	app.Store.LinkWorkspace(models.WorkspaceLink{
		ID:         joined.WorkspaceID,
		Name:       joined.Name,
		Role:       joined.Role,
		InviteCode: code,
	})

	fmt.Printf("✓ Joined workspace: %s (role: %s)\n", joined.Name, joined.Role)

	// First pull so the device starts with the shared data.
	if err := app.Engine.SyncNow(context.Background()); err != nil {
		fmt.Printf("warning: initial sync failed: %v\n", err)
		return nil
	}
	fmt.Println("✓ Initial sync complete")
	return nil
}

func workspaceShow(app *App, args []string) error {
	fs := flag.NewFlagSet("workspace show", flag.ExitOnError)
	_ = fs.Parse(args)

	ws := app.Store.Workspace()
	if ws == nil {
		fmt.Println("No workspace linked")
		return nil
	}

	fmt.Println("Workspace:")
	fmt.Printf("  ID:          %s\n", ws.ID)
	fmt.Printf("  Name:        %s\n", ws.Name)
	fmt.Printf("  Role:        %s\n", ws.Role)
	if ws.InviteCode != "" {
		fmt.Printf("  Invite code: %s\n", ws.InviteCode)
	}
	return nil
}
