package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"

	"github.com/deppfellow/todo-api/internal/config"
	"github.com/jackc/pgx/v5"
	tern "github.com/jackc/tern/v2/migrate"
	"github.com/rs/zerolog"
)

// Every SQL file under migrations/ is embedded at compile time, so the
// binary carries its schema and needs nothing from the filesystem.
//
//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// Migrate brings the schema up to date before the server starts serving.
//
// Every statement is idempotent (CREATE TABLE IF NOT EXISTS), so running
// it on each start is safe.
//   - PostgreSQL: jackc/tern over a dedicated pgx connection, with the
//     applied version tracked in schema_version.
//   - SQLite: the embedded files are executed in name order on db.
func Migrate(ctx context.Context, logger *zerolog.Logger, cfg *config.Config, db *Database) error {
	if cfg.Database.IsSQLite() {
		return migrateSQLite(ctx, logger, db)
	}
	return migratePostgres(ctx, logger, cfg)
}

func migrateSQLite(ctx context.Context, logger *zerolog.Logger, db *Database) error {
	entries, err := fs.ReadDir(migrations, "migrations/sqlite")
	if err != nil {
		return fmt.Errorf("retrieving database migrations: %w", err)
	}

	// fs.ReadDir returns entries sorted by file name.
	for _, entry := range entries {
		statement, err := fs.ReadFile(migrations, path.Join("migrations/sqlite", entry.Name()))
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		if _, err := db.DB.ExecContext(ctx, string(statement)); err != nil {
			return fmt.Errorf("applying migration %s: %w", entry.Name(), err)
		}
	}

	logger.Info().Msgf("database schema up to date, %d migrations applied", len(entries))
	return nil
}

func migratePostgres(ctx context.Context, logger *zerolog.Logger, cfg *config.Config) error {
	// A single connection is enough for a one-time action.
	conn, err := pgx.Connect(ctx, PostgresDSN(cfg.Database))
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	m, err := tern.NewMigrator(ctx, conn, "schema_version")
	if err != nil {
		return fmt.Errorf("constructing database migrator: %w", err)
	}

	subtree, err := fs.Sub(migrations, "migrations/postgres")
	if err != nil {
		return fmt.Errorf("retrieving database migrations subtree: %w", err)
	}

	if err := m.LoadMigrations(subtree); err != nil {
		return fmt.Errorf("loading database migrations: %w", err)
	}

	from, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("retrieving current database migration version: %w", err)
	}

	if err := m.Migrate(ctx); err != nil {
		return err
	}

	if from == int32(len(m.Migrations)) {
		logger.Info().Msgf("database schema up to date, version %d", len(m.Migrations))
	} else {
		logger.Info().Msgf("migrated database schema, from %d to %d", from, len(m.Migrations))
	}
	return nil
}
