package store

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/LeoCommon/foxhunter/pkg/log"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// MigrationsTable keeps the golang-migrate bookkeeping apart from our data
const MigrationsTable = "gomigrate_foxhunter"

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationFiles embed.FS

func migrationSource(dialect string) (fs.FS, error) {
	return fs.Sub(migrationFiles, "migrations/"+dialect)
}

// runMigrationsUp applies every pending migration through the given database driver
func runMigrationsUp(name string, dbDriver database.Driver, sourceFS fs.FS) error {
	m, err := newMigrate(name, dbDriver, sourceFS)
	if err != nil {
		return err
	}

	before, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	if dirty {
		return fmt.Errorf("migration %d is dirty, please fix it before proceeding", before)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Debug("schema is up to date", zap.String("backend", name), zap.Uint("version", before))
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	after, _, _ := m.Version()
	log.Info("schema migrated", zap.String("backend", name), zap.Uint("from", before), zap.Uint("to", after))

	return nil
}

func newMigrate(name string, dbDriver database.Driver, sourceFS fs.FS) (*migrate.Migrate, error) {
	sourceDriver, err := iofs.New(sourceFS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to create iofs driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, name, dbDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return m, nil
}
