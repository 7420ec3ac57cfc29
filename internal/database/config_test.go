package database

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperrors "sidedock/internal/infrastructure/errors"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Path != FileName {
		t.Errorf("Expected path %s, got %s", FileName, config.Path)
	}
	if !config.AutoMigrate || !config.ForeignKeys {
		t.Error("Expected auto-migrate and foreign keys on by default")
	}
	if config.JournalMode != "WAL" {
		t.Errorf("Expected WAL journal mode, got %s", config.JournalMode)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("DefaultConfig should validate, got %v", err)
	}
}

func TestTestConfig(t *testing.T) {
	config := TestConfig()

	if !config.IsInMemory() || !config.IsTest() {
		t.Error("Expected in-memory test configuration")
	}
	if !config.ForceSingleConnection {
		t.Error("Expected single connection for in-memory database")
	}
	if err := config.Validate(); err != nil {
		t.Errorf("TestConfig should validate, got %v", err)
	}
}

func TestConfigForDataDir(t *testing.T) {
	dir := t.TempDir()

	config := ConfigForDataDir(dir, "development")
	if config.Path != filepath.Join(dir, FileName) {
		t.Errorf("Unexpected path %s", config.Path)
	}
	if !config.IsDevelopment() || config.LogLevel != "debug" {
		t.Errorf("Expected development config with debug logging, got %s/%s", config.Environment, config.LogLevel)
	}

	if got := ConfigForDataDir(dir, ""); got.Environment != "production" {
		t.Errorf("Expected production default, got %s", got.Environment)
	}
}

func TestConfig_LoadFromEnvironment(t *testing.T) {
	t.Setenv("SIDEDOCK_DB_PATH", "/tmp/pins.db")
	t.Setenv("SIDEDOCK_DB_MAX_CONNECTIONS", "3")
	t.Setenv("SIDEDOCK_DB_CONN_MAX_IDLE_TIME", "5m")
	t.Setenv("SIDEDOCK_DB_FOREIGN_KEYS", "false")
	t.Setenv("SIDEDOCK_DB_JOURNAL_MODE", "DELETE")

	config := DefaultConfig()
	if err := config.LoadFromEnvironment(); err != nil {
		t.Fatalf("LoadFromEnvironment() error = %v", err)
	}

	if config.Path != "/tmp/pins.db" {
		t.Errorf("Expected path override, got %s", config.Path)
	}
	if config.MaxConnections != 3 {
		t.Errorf("Expected 3 connections, got %d", config.MaxConnections)
	}
	if config.ConnMaxIdleTime != 5*time.Minute {
		t.Errorf("Expected 5m idle time, got %v", config.ConnMaxIdleTime)
	}
	if config.ForeignKeys {
		t.Error("Expected foreign keys off")
	}
	if config.JournalMode != "DELETE" {
		t.Errorf("Expected DELETE journal mode, got %s", config.JournalMode)
	}
	// untouched
	if config.SynchronousMode != "NORMAL" || config.CacheSize != 2000 {
		t.Errorf("Unset variables should keep defaults, got %s/%d", config.SynchronousMode, config.CacheSize)
	}
}

func TestConfig_LoadFromEnvironmentInvalid(t *testing.T) {
	t.Setenv("SIDEDOCK_DB_MAX_CONNECTIONS", "many")

	err := DefaultConfig().LoadFromEnvironment()
	if !apperrors.IsValidation(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"empty path", func(c *Config) { c.Path = "" }, "path"},
		{"zero connections", func(c *Config) { c.MaxConnections = 0 }, "maxConnections"},
		{"negative idle", func(c *Config) { c.MaxIdleConns = -1 }, "maxIdleConns"},
		{"idle above max", func(c *Config) { c.MaxIdleConns = c.MaxConnections + 1 }, "maxIdleConns"},
		{"negative lifetime", func(c *Config) { c.ConnMaxLifetime = -time.Second }, "connMaxLifetime"},
		{"negative idle time", func(c *Config) { c.ConnMaxIdleTime = -time.Second }, "connMaxIdleTime"},
		{"bad journal mode", func(c *Config) { c.JournalMode = "FAST" }, "journalMode"},
		{"wal in memory", func(c *Config) { c.Path = ":memory:"; c.JournalMode = "wal" }, "journalMode"},
		{"bad sync mode", func(c *Config) { c.SynchronousMode = "SOMETIMES" }, "synchronousMode"},
		{"zero cache", func(c *Config) { c.CacheSize = 0 }, "cacheSize"},
		{"negative busy timeout", func(c *Config) { c.BusyTimeout = -1 }, "busyTimeout"},
		{"bad environment", func(c *Config) { c.Environment = "staging" }, "environment"},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "logLevel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.Path = filepath.Join(t.TempDir(), FileName)
			tt.modify(config)

			err := config.Validate()
			if !apperrors.IsValidation(err) {
				t.Fatalf("Expected validation error, got %v", err)
			}
			if !strings.Contains(err.Error(), "field="+tt.field) {
				t.Errorf("Expected error for field %s, got %v", tt.field, err)
			}
		})
	}
}

func TestConfig_ValidateCreatesDirectory(t *testing.T) {
	config := DefaultConfig()
	config.Path = filepath.Join(t.TempDir(), "a", "b", FileName)

	if err := config.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if info, err := os.Stat(filepath.Dir(config.Path)); err != nil || !info.IsDir() {
		t.Errorf("Expected directory to exist: %v", err)
	}
}

func TestConfig_GetConnectionString(t *testing.T) {
	config := DefaultConfig()
	config.Path = "data/pins?.db"

	got := config.GetConnectionString()

	if !strings.HasPrefix(got, "data/pins%3F.db?") {
		t.Errorf("Expected escaped path prefix, got %s", got)
	}
	for _, want := range []string{"_foreign_keys=on", "_journal_mode=WAL", "_synchronous=NORMAL", "_cache_size=-2000", "_busy_timeout=5000", "_txlock=immediate"} {
		if !strings.Contains(got, want) {
			t.Errorf("Connection string %s missing %s", got, want)
		}
	}

	config.ForeignKeys = false
	if !strings.Contains(config.GetConnectionString(), "_foreign_keys=off") {
		t.Error("Expected foreign keys off")
	}
}

func TestConfig_Clone(t *testing.T) {
	config := DefaultConfig()
	clone := config.Clone()
	clone.Path = "other.db"

	if config.Path == clone.Path {
		t.Error("Clone should not share state with the original")
	}
}
