package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"time"

	"github.com/pressly/goose/v3"

	"sidedock/internal/infrastructure/logging"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const migrationsDir = "migrations"

// MigrationRunner applies the embedded pins schema through a goose provider.
// Each runner owns its provider, so no goose package state is shared between databases.
type MigrationRunner struct {
	db     *sql.DB
	fsys   fs.FS
	logger logging.Logger
}

var _ MigrationManager = (*MigrationRunner)(nil)

// NewMigrationRunner creates a runner for db over the embedded migrations
func NewMigrationRunner(db *sql.DB, logger logging.Logger) *MigrationRunner {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	sub, err := fs.Sub(embedMigrations, migrationsDir)
	if err != nil {
		// only possible if the embed pattern changes
		panic(fmt.Sprintf("migrations fs: %v", err))
	}
	return &MigrationRunner{db: db, fsys: sub, logger: logger}
}

func (mr *MigrationRunner) provider() (*goose.Provider, error) {
	if mr.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	p, err := goose.NewProvider(goose.DialectSQLite3, mr.db, mr.fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return p, nil
}

// RunMigrations applies every pending migration
func (mr *MigrationRunner) RunMigrations(ctx context.Context) error {
	p, err := mr.provider()
	if err != nil {
		return err
	}

	start := time.Now()
	results, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	for _, r := range results {
		mr.logger.Debug("Applied migration", "version", r.Source.Version, "file", path.Base(r.Source.Path), "duration", r.Duration)
	}

	version, err := p.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read version after migrating: %w", err)
	}
	logging.LogOperation(mr.logger, "RunMigrations", time.Since(start), map[string]interface{}{
		"applied": len(results),
		"version": version,
	})
	return nil
}

// GetCurrentVersion returns the highest applied migration version
func (mr *MigrationRunner) GetCurrentVersion(ctx context.Context) (int64, error) {
	p, err := mr.provider()
	if err != nil {
		return 0, err
	}
	version, err := p.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get version: %w", err)
	}
	return version, nil
}

// ValidateMigrations checks the embedded files without touching a database:
// at least one file, every name carrying a unique numeric version
func (mr *MigrationRunner) ValidateMigrations() error {
	names, err := fs.Glob(mr.fsys, "*.sql")
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}
	if len(names) == 0 {
		return fmt.Errorf("no migrations found in embedded filesystem")
	}

	seen := make(map[int64]string, len(names))
	for _, name := range names {
		version, err := goose.NumericComponent(name)
		if err != nil {
			return fmt.Errorf("migration %s: %w", name, err)
		}
		if prev, ok := seen[version]; ok {
			return fmt.Errorf("migrations %s and %s share version %d", prev, name, version)
		}
		seen[version] = name
	}

	mr.logger.Debug("Embedded migrations valid", "count", len(names))
	return nil
}
