// ABOUTME: Machine-level sync configuration stored at XDG paths
// ABOUTME: Handles server endpoint, device ID generation, and env overrides
package sync

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/oklog/ulid/v2"
)

// Config identifies this machine to the sync server. It lives outside the
// state blob: reinstalling or swapping accounts keeps the device identity.
type Config struct {
	ServerURL           string `json:"server_url"`
	DeviceID            string `json:"device_id"`
	AutoSync            bool   `json:"auto_sync"`
	SyncIntervalSeconds int    `json:"sync_interval_seconds"`
}

// ConfigDir returns the XDG-compliant directory for machine configuration.
func ConfigDir() string {
	return filepath.Join(xdg.DataHome, "fieldwork")
}

// ConfigPath returns the XDG-compliant path of the machine config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// LoadConfig loads machine configuration from the XDG data directory.
// Returns defaults if the file is missing. Environment variables override
// file values:
// - FIELDWORK_SERVER_URL
// - FIELDWORK_DEVICE_ID
// - FIELDWORK_AUTO_SYNC
// - FIELDWORK_SYNC_INTERVAL (seconds).
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AutoSync:            true,
		SyncIntervalSeconds: 300,
	}

	f, err := os.Open(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to open sync config: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode sync config: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if server := os.Getenv("FIELDWORK_SERVER_URL"); server != "" {
		cfg.ServerURL = server
	}
	if deviceID := os.Getenv("FIELDWORK_DEVICE_ID"); deviceID != "" {
		cfg.DeviceID = deviceID
	}
	if autoSync := os.Getenv("FIELDWORK_AUTO_SYNC"); autoSync != "" {
		cfg.AutoSync = autoSync == "true" || autoSync == "1"
	}
	if interval := os.Getenv("FIELDWORK_SYNC_INTERVAL"); interval != "" {
		if n, err := strconv.Atoi(interval); err == nil && n > 0 {
			cfg.SyncIntervalSeconds = n
		}
	}
}

// SaveConfig writes machine configuration to the XDG data directory.
func SaveConfig(cfg *Config) error {
	path := ConfigPath()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create sync config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode sync config: %w", err)
	}
	return nil
}

// IsConfigured reports whether this machine can talk to a sync server.
func (c *Config) IsConfigured() bool {
	return c.ServerURL != "" && c.DeviceID != ""
}

// Interval returns the auto-sync period as a duration.
func (c *Config) Interval() time.Duration {
	if c.SyncIntervalSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.SyncIntervalSeconds) * time.Second
}

// GenerateDeviceID generates a new ULID for device identification.
func GenerateDeviceID() string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
