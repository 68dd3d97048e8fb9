// ABOUTME: Local blob persistence for application state
// ABOUTME: Single JSON file under XDG data, flock sidecar, atomic writes
package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/gofrs/flock"

	"github.com/harperreed/fieldwork/models"
)

const (
	lockTimeout = 3 * time.Second
	lockRetry   = 100 * time.Millisecond
)

// DefaultPath returns the XDG-compliant location of the state blob.
func DefaultPath() string {
	return filepath.Join(xdg.DataHome, "fieldwork", "store.json")
}

// Handle owns the blob file and its sidecar lock for the life of the
// process. One writer at a time; a second process fails fast in Open.
type Handle struct {
	path     string
	fileLock *flock.Flock
}

// Open locks the blob, loads it, and migrates it to the current schema.
// A missing or empty file yields a fresh state. Pass "" for the default
// XDG path.
func Open(path string) (*Handle, *models.AppState, error) {
	if path == "" {
		path = DefaultPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	fileLock := flock.New(path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	locked, err := fileLock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to acquire store lock: %w", err)
	}
	if !locked {
		return nil, nil, fmt.Errorf("store at %s is locked by another process", path)
	}

	h := &Handle{path: path, fileLock: fileLock}

	state, err := h.load()
	if err != nil {
		_ = h.Close()
		return nil, nil, err
	}
	return h, state, nil
}

// Path returns the blob location this handle writes to.
func (h *Handle) Path() string {
	return h.path
}

func (h *Handle) load() (*models.AppState, error) {
	data, err := os.ReadFile(h.path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.NewAppState(), nil
		}
		return nil, fmt.Errorf("failed to read store: %w", err)
	}
	if len(data) == 0 {
		return models.NewAppState(), nil
	}
	return Migrate(data)
}

// Save writes the state atomically: temp file in the same directory, then
// rename over the blob. The blob holds tokens, so permissions stay 0600.
func (h *Handle) Save(state *models.AppState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	tmp := h.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp store: %w", err)
	}
	if err := os.Rename(tmp, h.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace store: %w", err)
	}
	return nil
}

// Close releases the sidecar lock and removes the lock file.
func (h *Handle) Close() error {
	if h.fileLock != nil {
		if err := h.fileLock.Unlock(); err != nil {
			return fmt.Errorf("failed to release store lock: %w", err)
		}
		_ = os.Remove(h.path + ".lock")
		h.fileLock = nil
	}
	return nil
}
