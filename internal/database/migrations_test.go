package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	_ "github.com/mattn/go-sqlite3"

	"sidedock/internal/testutils"
)

func openRawDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", "file:"+filepath.Join(t.TempDir(), "migrations.db")+"?_foreign_keys=on")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrationRunner_RunMigrations(t *testing.T) {
	db := openRawDB(t)
	runner := NewMigrationRunner(db, &testutils.RecordingLogger{})
	ctx := context.Background()

	if err := runner.RunMigrations(ctx); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	for _, table := range []string{"pins", "goose_db_version"} {
		var count int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
			t.Errorf("Table %s was not created: %v", table, err)
		}
	}

	// idempotent
	if err := runner.RunMigrations(ctx); err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
}

func TestMigrationRunner_PinsSchema(t *testing.T) {
	db := openRawDB(t)
	ctx := context.Background()
	if err := NewMigrationRunner(db, nil).RunMigrations(ctx); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}

	if _, err := db.ExecContext(ctx, "INSERT INTO pins (path, position) VALUES ('', 1)"); err == nil {
		t.Error("Expected empty path to be rejected")
	}
	if _, err := db.ExecContext(ctx, "INSERT INTO pins (path, position) VALUES ('a.lnk', 1)"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if _, err := db.ExecContext(ctx, "INSERT INTO pins (path, position) VALUES ('a.lnk', 2)"); err == nil {
		t.Error("Expected duplicate path to be rejected")
	}
}

func TestMigrationRunner_NilDB(t *testing.T) {
	runner := NewMigrationRunner(nil, nil)
	ctx := context.Background()

	if err := runner.RunMigrations(ctx); err == nil || err.Error() != "database connection is nil" {
		t.Errorf("Expected nil connection error, got %v", err)
	}
	if _, err := runner.GetCurrentVersion(ctx); err == nil {
		t.Error("Expected error for nil database")
	}
}

func TestMigrationRunner_GetCurrentVersion(t *testing.T) {
	db := openRawDB(t)
	runner := NewMigrationRunner(db, nil)
	ctx := context.Background()

	if err := runner.RunMigrations(ctx); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}
	version, err := runner.GetCurrentVersion(ctx)
	if err != nil {
		t.Fatalf("GetCurrentVersion() error = %v", err)
	}
	if version != 1 {
		t.Errorf("Expected version 1, got %d", version)
	}
}

func TestMigrationRunner_ValidateMigrations(t *testing.T) {
	runner := NewMigrationRunner(nil, &testutils.RecordingLogger{})
	if err := runner.ValidateMigrations(); err != nil {
		t.Errorf("ValidateMigrations() error = %v", err)
	}
}

func TestMigrationRunner_ValidateMigrationsRejects(t *testing.T) {
	tests := []struct {
		name    string
		files   fstest.MapFS
		wantErr string
	}{
		{"empty", fstest.MapFS{}, "no migrations"},
		{"unversioned", fstest.MapFS{"pins.sql": {Data: []byte("-- +goose Up")}}, "pins.sql"},
		{"duplicate version", fstest.MapFS{
			"00001_pins.sql": {Data: []byte("-- +goose Up")},
			"1_again.sql":    {Data: []byte("-- +goose Up")},
		}, "share version 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &MigrationRunner{fsys: tt.files, logger: &testutils.RecordingLogger{}}
			err := runner.ValidateMigrations()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateMigrations() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
