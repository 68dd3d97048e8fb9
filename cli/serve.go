// ABOUTME: Sync server CLI command
// ABOUTME: loads server config from the environment and starts the HTTP listener
package cli

import (
	"flag"
	"fmt"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/harperreed/fieldwork/db"
	"github.com/harperreed/fieldwork/server"
)

// ServeCommand starts the sync server. It never touches the local store,
// so a machine can host the server and run the CLI side by side.
func ServeCommand(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "", "Listen address (overrides FIELDWORK_SERVER_ADDR)")
	dbPath := fs.String("db", "", "SQLite database path (overrides FIELDWORK_SERVER_DB)")
	logFile := fs.String("log-file", "", "Append server logs to this file (overrides FIELDWORK_SERVER_LOG)")
	_ = fs.Parse(args)

	cfg, err := server.LoadConfig()
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)
	if cfg.LogFile != "" {
		logger.SetOutput(&lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		})
	}

	database, err := db.OpenDatabase(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = database.Close() }()

	auth := server.NewJWTManager(cfg.JWTSecret, cfg.AccessTTL())
	srv := server.NewServer(database, auth, cfg.RefreshTTL(), logger)

	fmt.Printf("Sync server listening on %s (db: %s)\n", cfg.Addr, cfg.DBPath)
	return srv.Start(cfg.Addr)
}
