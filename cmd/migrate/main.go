// ABOUTME: Migration utility for upgrading store blobs to the current schema.
// ABOUTME: Provides dry-run and backup capabilities for safe upgrades.

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/harperreed/fieldwork/models"
	"github.com/harperreed/fieldwork/persist"
)

func main() {
	storePath := flag.String("store", "", "Path to store file (default: ~/.local/share/fieldwork/store.json)")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	backup := flag.Bool("backup", true, "Create backup before migration")
	flag.Parse()

	path := *storePath
	if path == "" {
		path = persist.DefaultPath()
	}

	if err := migrate(path, *dryRun, *backup); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
}

func migrate(path string, dryRun, createBackup bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("store file does not exist: %s", path)
		}
		return fmt.Errorf("failed to read store: %w", err)
	}

	version, err := persist.BlobVersion(data)
	if err != nil {
		return err
	}
	log.Printf("Store: %s (schema v%d, current is v%d)", path, version, models.SchemaVersion)

	if version > models.SchemaVersion {
		return fmt.Errorf("store schema v%d is newer than this build supports", version)
	}
	if version == models.SchemaVersion {
		log.Println("Store is already at the current schema, nothing to do")
		return nil
	}

	if dryRun {
		log.Printf("[DRY RUN] Would migrate v%d -> v%d:", version, models.SchemaVersion)
		if version < 2 {
			log.Printf("[DRY RUN] - Move top-level entity arrays under data_by_user")
		}
		if version < 3 {
			log.Printf("[DRY RUN] - Add the workspace-keyed layout, outbox, and sync cursors")
		}
		if createBackup {
			log.Printf("[DRY RUN] - Create a timestamped backup next to the store")
		}
		return nil
	}

	if createBackup {
		backupPath := fmt.Sprintf("%s.bak-%s", path, time.Now().Format("20060102-150405"))
		if err := os.WriteFile(backupPath, data, 0600); err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
		log.Printf("Backup created: %s", backupPath)
	}

	state, err := persist.Migrate(data)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal migrated store: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0600); err != nil {
		return fmt.Errorf("failed to write migrated store: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace store: %w", err)
	}

	log.Printf("Migrated store to schema v%d", models.SchemaVersion)
	return nil
}
