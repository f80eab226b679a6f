package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationRunner applies the embedded schema migrations.
type MigrationRunner struct {
	migrate *migrate.Migrate
	logger  *logrus.Logger
}

func NewMigrationRunner(databaseURL string, logger *logrus.Logger) (*MigrationRunner, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create migration instance: %w", err)
	}

	return &MigrationRunner{migrate: m, logger: logger}, nil
}

func (r *MigrationRunner) Up() error {
	r.logger.Info("running database migrations up")

	if err := r.migrate.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			r.logger.Info("no pending migrations")
			return nil
		}
		return fmt.Errorf("run migrations up: %w", err)
	}

	r.logVersion("migrations applied")
	return nil
}

// Down rolls back a single migration.
func (r *MigrationRunner) Down() error {
	r.logger.Info("rolling back one migration")

	if err := r.migrate.Steps(-1); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			r.logger.Info("no migrations to roll back")
			return nil
		}
		return fmt.Errorf("roll back migration: %w", err)
	}

	r.logVersion("migration rolled back")
	return nil
}

func (r *MigrationRunner) Version() (uint, bool, error) {
	return r.migrate.Version()
}

func (r *MigrationRunner) Close() error {
	sourceErr, dbErr := r.migrate.Close()
	if sourceErr != nil {
		return fmt.Errorf("close migration source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("close migration database: %w", dbErr)
	}
	return nil
}

func (r *MigrationRunner) logVersion(msg string) {
	version, dirty, err := r.migrate.Version()
	if err != nil {
		r.logger.WithError(err).Warn("could not read migration version")
		return
	}

	r.logger.WithFields(logrus.Fields{
		"version": version,
		"dirty":   dirty,
	}).Info(msg)
}
