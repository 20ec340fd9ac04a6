package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"nutrilog/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrateKVSchema brings the kv table at dbPath up to the latest embedded
// version. It uses its own connection because closing the migrator closes it.
func migrateKVSchema(dbPath string) error {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open %s for kv migrations: %w", dbPath, err)
	}
	defer conn.Close()

	driver, err := migratesqlite.WithInstance(conn, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("kv migration driver: %w", err)
	}
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("kv migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("kv migrator: %w", err)
	}
	defer m.Close()

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		slog.Debug("KV schema already current", log.FieldComponent, log.ComponentStorage, "db_path", dbPath)
		return nil
	case err != nil:
		return fmt.Errorf("migrate kv schema: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("read kv schema version: %w", err)
	}
	slog.Info("KV schema migrated", log.FieldComponent, log.ComponentStorage,
		"db_path", dbPath, "version", version, "dirty", dirty)
	return nil
}
