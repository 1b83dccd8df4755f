package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrator applies the embedded schema migrations
type Migrator struct {
	m  *migrate.Migrate
	db *sql.DB
}

// NewMigrator opens a dedicated connection for schema changes
func NewMigrator(databaseURL string) (*Migrator, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open migration connection: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migration driver: %w", err)
	}

	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migration init: %w", err)
	}
	return &Migrator{m: m, db: db}, nil
}

// Up applies all pending migrations
func (g *Migrator) Up() error {
	if err := g.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	g.logVersion()
	return nil
}

// Down rolls back every migration
func (g *Migrator) Down() error {
	if err := g.m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	g.logVersion()
	return nil
}

// Steps applies n migrations, rolling back when n is negative
func (g *Migrator) Steps(n int) error {
	if err := g.m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	g.logVersion()
	return nil
}

// Version returns the current schema version
func (g *Migrator) Version() (uint, bool, error) {
	v, dirty, err := g.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

func (g *Migrator) Close() error {
	srcErr, dbErr := g.m.Close()
	if srcErr != nil {
		return srcErr
	}
	return dbErr
}

func (g *Migrator) logVersion() {
	if v, dirty, err := g.Version(); err == nil {
		log.Printf("[Migrate] Schema at version %d (dirty=%v)", v, dirty)
	}
}

// MigrateUp is a convenience wrapper used at API startup
func MigrateUp(databaseURL string) error {
	m, err := NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}
