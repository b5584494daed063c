// Package testutil builds the fixtures shared by package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/deppfellow/todo-api/internal/config"
	"github.com/deppfellow/todo-api/internal/database"
	"github.com/deppfellow/todo-api/internal/logger"
	"github.com/deppfellow/todo-api/internal/server"
	"github.com/rs/zerolog"
)

// NewTestConfig returns the default config pointed at a private
// in-memory SQLite database.
func NewTestConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Primary.Env = "test"
	cfg.Database.Path = database.MemoryPath
	cfg.Observability.ServiceName = "todo-api"
	cfg.Observability.Environment = cfg.Primary.Env
	return cfg
}

// NewTestServer returns a Server backed by a migrated in-memory SQLite
// database. It closes the database when the test completes.
func NewTestServer(t *testing.T) *server.Server {
	t.Helper()

	cfg := NewTestConfig()
	log := zerolog.Nop()
	loggerService := &logger.LoggerService{}

	db, err := database.New(cfg, &log, loggerService)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("closing test database: %v", err)
		}
	})

	if err := database.Migrate(context.Background(), &log, cfg, db); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	return server.NewWithDatabase(cfg, &log, loggerService, db)
}
