// ABOUTME: Sync CLI commands
// ABOUTME: one-shot and watch-mode synchronization plus a status report
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/harperreed/fieldwork/sync"
)

// SyncCommand runs a sync pass, or keeps syncing on an interval with --watch.
func SyncCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	watch := fs.Bool("watch", false, "Keep syncing on the configured interval until interrupted")
	logFile := fs.String("log-file", "", "Append sync logs to this file (rotated)")
	_ = fs.Parse(args)

	if *logFile != "" {
		app.Logger.SetOutput(&lumberjack.Logger{
			Filename:   *logFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		})
	}

	if !*watch {
		return syncOnce(app)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interval := app.Config.Interval()
	fmt.Printf("Watching for changes, syncing every %s (Ctrl-C to stop)\n", interval)

	if err := syncOnce(app); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nStopped")
			return nil
		case <-ticker.C:
			if err := syncOnce(app); err != nil {
				// Session loss ends the watch; transient failures retry
				// on the next tick.
				if errors.Is(err, sync.ErrSessionExpired) {
					return err
				}
				fmt.Printf("✗ Sync failed: %v\n", err)
			}
		}
	}
}

func syncOnce(app *App) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	err := app.Engine.SyncNow(ctx)
	switch {
	case err == nil:
	case errors.Is(err, sync.ErrNotSignedIn):
		return fmt.Errorf("not signed in. Run 'fieldwork login' first")
	case errors.Is(err, sync.ErrNoWorkspace):
		return fmt.Errorf("no workspace linked. Run 'fieldwork workspace create' first")
	case errors.Is(err, sync.ErrSessionExpired):
		return fmt.Errorf("session expired. Run 'fieldwork login' again")
	default:
		return fmt.Errorf("sync failed: %w", err)
	}

	fmt.Println("✓ Sync complete")
	if user := app.Store.CurrentUser(); user != nil {
		if pending := app.Store.OutboxLen(user.ID); pending > 0 {
			fmt.Printf("  Pending: %d change(s) still queued\n", pending)
		}
		if ts := app.Store.LastSyncedAt(user.ID); ts != nil {
			fmt.Printf("  Last synced: %s\n", formatWhen(ts))
		}
	}
	return nil
}

// StatusCommand prints the local sync configuration and session state.
func StatusCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	_ = fs.Parse(args)

	cfg := app.Config

	fmt.Println("Sync Status:")
	fmt.Printf("  Config path:  %s\n", sync.ConfigPath())
	fmt.Printf("  Store path:   %s\n", app.StorePath())
	fmt.Printf("  Server:       %s\n", dash(cfg.ServerURL))
	fmt.Printf("  Device ID:    %s\n", dash(cfg.DeviceID))
	if cfg.AutoSync {
		fmt.Printf("  Auto sync:    ✓ On (every %s)\n", cfg.Interval())
	} else {
		fmt.Printf("  Auto sync:    ✗ Off\n")
	}

	user := app.Store.CurrentUser()
	if user == nil || user.AccessToken == "" {
		fmt.Printf("  Signed in:    ✗ No (run 'fieldwork login')\n")
		return nil
	}
	fmt.Printf("  Signed in:    ✓ %s\n", user.Email)

	ws := app.Store.Workspace()
	if ws == nil {
		fmt.Printf("  Workspace:    ✗ None (run 'fieldwork workspace create')\n")
		return nil
	}
	fmt.Printf("  Workspace:    ✓ %s [%s]\n", ws.Name, ws.Role)

	fmt.Printf("  Pending:      %d change(s)\n", app.Store.OutboxLen(user.ID))
	if ts := app.Store.LastSyncedAt(user.ID); ts != nil {
		fmt.Printf("  Last synced:  %s\n", formatWhen(ts))
	} else {
		fmt.Printf("  Last synced:  never\n")
	}

	if state := app.Engine.Status(); state.ErrorMessage != "" {
		fmt.Printf("  Last error:   ✗ %s\n", state.ErrorMessage)
	}
	return nil
}
