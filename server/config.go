// ABOUTME: Environment-driven configuration for the sync server
// ABOUTME: cleanenv struct tags with XDG fallback for the database path
package server

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds the server settings read from the environment.
type Config struct {
	Addr             string `env:"FIELDWORK_SERVER_ADDR" env-default:":8787"`
	DBPath           string `env:"FIELDWORK_SERVER_DB"`
	JWTSecret        string `env:"FIELDWORK_JWT_SECRET" env-required:"true"`
	AccessTTLMinutes int    `env:"FIELDWORK_ACCESS_TTL_MINUTES" env-default:"30"`
	RefreshTTLHours  int    `env:"FIELDWORK_REFRESH_TTL_HOURS" env-default:"720"`
	LogFile          string `env:"FIELDWORK_SERVER_LOG"`
}

// LoadConfig reads server settings from the environment. The database path
// defaults to the XDG data directory when unset.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read server config: %w", err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(xdg.DataHome, "fieldwork", "server.db")
	}
	return &cfg, nil
}

// AccessTTL returns the access token lifetime.
func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTTLMinutes) * time.Minute
}

// RefreshTTL returns the refresh token lifetime.
func (c *Config) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTTLHours) * time.Hour
}
