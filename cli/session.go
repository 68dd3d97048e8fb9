// ABOUTME: Account session CLI commands
// ABOUTME: login, register, logout, and refresh against the sync server
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/harperreed/fieldwork/models"
	"github.com/harperreed/fieldwork/sync"
)

const defaultServerURL = "http://localhost:8787"

// resolveServer picks the server URL from the flag, the saved config, or
// the local default, in that order.
func resolveServer(app *App, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if app.Config.ServerURL != "" {
		return app.Config.ServerURL
	}
	return defaultServerURL
}

// saveSession stores the signed-in identity and the machine config.
func saveSession(app *App, serverURL string, auth *sync.AuthResponse) error {
	app.Store.SignIn(models.User{
		ID:           auth.User.ID,
		Email:        auth.User.Email,
		Name:         auth.User.Name,
		AccessToken:  auth.AccessToken,
		RefreshToken: auth.RefreshToken,
	})

	app.Config.ServerURL = serverURL
	if app.Config.DeviceID == "" {
		app.Config.DeviceID = sync.GenerateDeviceID()
		fmt.Printf("✓ Generated device ID: %s\n", app.Config.DeviceID)
	}
	if err := sync.SaveConfig(app.Config); err != nil {
		return fmt.Errorf("failed to save sync config: %w", err)
	}
	return nil
}

// LoginCommand authenticates an existing account.
func LoginCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	server := fs.String("server", "", "Sync server URL (default: configured server)")
	email := fs.String("email", "", "Account email")
	_ = fs.Parse(args)

	serverURL := resolveServer(app, *server)

	address := *email
	if address == "" {
		var err error
		if address, err = promptLine("Email: "); err != nil {
			return err
		}
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	client := sync.NewClient(serverURL)
	auth, err := client.Login(context.Background(), address, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := saveSession(app, serverURL, auth); err != nil {
		return err
	}

	fmt.Printf("✓ Signed in as %s\n", auth.User.Email)
	if app.Store.Workspace() == nil {
		fmt.Println("\nNext step: Run 'fieldwork workspace create <name>' or 'fieldwork workspace join <invite-code>'")
	}
	return nil
}

// RegisterCommand creates a new account and signs in.
func RegisterCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	server := fs.String("server", "", "Sync server URL (default: configured server)")
	email := fs.String("email", "", "Account email")
	name := fs.String("name", "", "Display name")
	_ = fs.Parse(args)

	serverURL := resolveServer(app, *server)

	address := *email
	if address == "" {
		var err error
		if address, err = promptLine("Email: "); err != nil {
			return err
		}
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	client := sync.NewClient(serverURL)
	auth, err := client.Register(context.Background(), address, password, *name)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	if err := saveSession(app, serverURL, auth); err != nil {
		return err
	}

	fmt.Printf("✓ Account created: %s\n", auth.User.Email)
	fmt.Println("\nNext step: Run 'fieldwork workspace create <name>' or 'fieldwork workspace join <invite-code>'")
	return nil
}

// LogoutCommand clears the local session. Workspace data stays on disk.
func LogoutCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("logout", flag.ExitOnError)
	_ = fs.Parse(args)

	if app.Store.CurrentUser() == nil {
		fmt.Println("Not signed in")
		return nil
	}

	app.Store.SignOut()
	fmt.Println("✓ Signed out (local data kept)")
	return nil
}

// RefreshCommand exchanges the stored refresh token for a new pair.
func RefreshCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("refresh", flag.ExitOnError)
	_ = fs.Parse(args)

	user := app.Store.CurrentUser()
	if user == nil || user.RefreshToken == "" {
		return fmt.Errorf("no session to refresh. Run 'fieldwork login' first")
	}

	pair, err := app.Client.Refresh(context.Background(), user.RefreshToken)
	if err != nil {
		if errors.Is(err, sync.ErrUnauthorized) {
			return fmt.Errorf("session expired. Run 'fieldwork login' again")
		}
		return fmt.Errorf("refresh failed: %w", err)
	}

	app.Store.UpdateTokens(pair.AccessToken, pair.RefreshToken)
	fmt.Println("✓ Session refreshed")
	return nil
}
