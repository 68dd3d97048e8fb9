// ABOUTME: Shared wiring for CLI commands
// ABOUTME: Opens the store blob and connects store, client, and sync engine
package cli

import (
	"fmt"
	"log"

	"github.com/harperreed/fieldwork/models"
	"github.com/harperreed/fieldwork/persist"
	"github.com/harperreed/fieldwork/store"
	"github.com/harperreed/fieldwork/sync"
)

// App bundles the open store and sync machinery for one command run.
type App struct {
	Store  *store.Store
	Client *sync.Client
	Engine *sync.Engine
	Config *sync.Config
	Logger *log.Logger

	handle *persist.Handle
}

// NewApp opens the store blob at storePath (empty for the default location)
// and wires the sync engine to it. Call Close when the command finishes.
func NewApp(storePath string, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.Default()
	}

	cfg, err := sync.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load sync config: %w", err)
	}

	handle, state, err := persist.Open(storePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	st := store.New(state, logger)
	st.SetSaver(handle.Save)

	client := sync.NewClient(cfg.ServerURL)
	engine := sync.NewEngine(st, client, cfg, logger)
	if cfg.AutoSync {
		st.SetSyncTrigger(engine.Trigger)
	}

	return &App{
		Store:  st,
		Client: client,
		Engine: engine,
		Config: cfg,
		Logger: logger,
		handle: handle,
	}, nil
}

// Close releases the store blob lock.
func (a *App) Close() error {
	if a.handle == nil {
		return nil
	}
	return a.handle.Close()
}

// StorePath reports where the blob lives.
func (a *App) StorePath() string {
	return a.handle.Path()
}

// requireUser returns the signed-in user or a guiding error.
func requireUser(app *App) (*models.User, error) {
	user := app.Store.CurrentUser()
	if user == nil || user.AccessToken == "" {
		return nil, fmt.Errorf("not signed in. Run 'fieldwork login' first")
	}
	return user, nil
}
