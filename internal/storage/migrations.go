package storage

import (
	"embed"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator applies the embedded schema migrations. The applied version is
// kept in the schema_migrations table.
type Migrator struct {
	m *migrate.Migrate
}

// NewMigrator creates a Migrator over the connection pool of db.
func NewMigrator(db *gorm.DB) (*Migrator, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source driver: %w", err)
	}

	dbDriver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return &Migrator{m: m}, nil
}

// Up applies every pending migration.
func (mg *Migrator) Up() error {
	return ignoreNoChange(mg.m.Up())
}

// Down reverts every applied migration.
func (mg *Migrator) Down() error {
	return ignoreNoChange(mg.m.Down())
}

// Steps applies n migrations forward, or reverts -n when n is negative.
func (mg *Migrator) Steps(n int) error {
	return ignoreNoChange(mg.m.Steps(n))
}

// Goto migrates up or down to version.
func (mg *Migrator) Goto(version uint) error {
	return ignoreNoChange(mg.m.Migrate(version))
}

// Force sets the version without running migrations, clearing the dirty flag.
func (mg *Migrator) Force(version int) error {
	return mg.m.Force(version)
}

// Version returns the applied version; 0 means no migration has run.
func (mg *Migrator) Version() (uint, bool, error) {
	version, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// RunMigrations runs all pending database migrations
func RunMigrations(db *gorm.DB) error {
	mg, err := NewMigrator(db)
	if err != nil {
		return err
	}

	before, _, err := mg.Version()
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	if err := mg.Up(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	after, _, err := mg.Version()
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}

	if before == after {
		log.Println("Database migrations: no changes detected (already up to date)")
		return nil
	}
	log.Printf("Database migrations: migrated from version %d to %d", before, after)
	return nil
}
