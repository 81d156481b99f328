// A shared test server setup utility, which simplifies all API tests.

package testutil

import (
	"testing"
	"time"

	"leadwatch/internal/api"
	"leadwatch/internal/backend"
	"leadwatch/internal/config"
	"leadwatch/internal/core"
	"leadwatch/internal/store"
	"leadwatch/internal/watch"
	"leadwatch/internal/webhook"
	"leadwatch/internal/websocket"
)

// SetupTestApp builds a full core.App wired to a fake backend, with a fast
// poll interval so tests do not wait out production periods.
func SetupTestApp(t *testing.T) (*core.App, *FakeBackend) {
	t.Helper()
	database := SetupTestDB(t)
	fake := NewFakeBackend(t)

	cfg := &config.Config{}
	hub := websocket.NewHub()
	go hub.Run()

	st := store.New(database)
	client := backend.New(fake.URL(), "")
	watchers := watch.NewManager(client, st, hub, 25*time.Millisecond, false)
	webhooks := webhook.NewRegistry(watchers)

	app := &core.App{
		Config:   cfg,
		DB:       database,
		WsHub:    hub,
		Backend:  client,
		Store:    st,
		Watchers: watchers,
		Webhooks: webhooks,
		Version:  "test",
	}

	t.Cleanup(watchers.StopAll)
	return app, fake
}

// SetupTestServer initializes a full core.App and api.Server for
// integration testing.
func SetupTestServer(t *testing.T) (*api.Server, *core.App, *FakeBackend) {
	t.Helper()
	app, fake := SetupTestApp(t)
	return api.NewServer(app), app, fake
}
