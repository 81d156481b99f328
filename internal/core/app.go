package core

import (
	"database/sql"
	"fmt"
	"log"

	"leadwatch/internal/assets"
	"leadwatch/internal/backend"
	"leadwatch/internal/config"
	"leadwatch/internal/db"
	"leadwatch/internal/store"
	"leadwatch/internal/watch"
	"leadwatch/internal/webhook"
	"leadwatch/internal/websocket"
)

// App holds the core components of the application that are shared
// between the server and the background jobs.
type App struct {
	Config   *config.Config
	DB       *sql.DB
	WsHub    *websocket.Hub
	Backend  *backend.Client
	Store    *store.Store
	Watchers *watch.Manager
	Webhooks *webhook.Registry
	Version  string
}

// New sets up and returns a new App instance. It handles loading the
// configuration, initializing the database connection, running migrations
// and wiring the watch manager to its collaborators.
func New(version string) (*App, error) {
	// Load configuration from config.yml
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize the database connection
	database, err := db.InitDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	if err := db.RunMigrations(database, assets.MigrationsFS); err != nil {
		// We can't proceed without a valid database schema.
		// Close the DB connection before failing.
		database.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	hub := websocket.NewHub()
	go hub.Run()

	st := store.New(database)
	client := backend.New(cfg.Backend.BaseURL, cfg.Backend.Token)
	watchers := watch.NewManager(client, st, hub, cfg.PollInterval(), cfg.FetchSteps)
	webhooks := webhook.NewRegistry(watchers)

	log.Println("Core application setup complete.")
	return &App{
		Config:   cfg,
		DB:       database,
		WsHub:    hub,
		Backend:  client,
		Store:    st,
		Watchers: watchers,
		Webhooks: webhooks,
		Version:  version,
	}, nil
}

// Close gracefully closes the application's resources: all active
// watchers first, then the DB connection.
func (a *App) Close() {
	if a.Watchers != nil {
		a.Watchers.StopAll()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
