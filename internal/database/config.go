package database

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	apperrors "sidedock/internal/infrastructure/errors"
)

// EnvPrefix is prepended to every variable read by LoadFromEnvironment
const EnvPrefix = "SIDEDOCK_DB_"

// FileName is the pins database file inside the data directory
const FileName = "sidedock.db"

// Config holds all database configuration options
type Config struct {
	// Connection settings
	Path                  string        `json:"path" yaml:"path" env:"PATH"`
	MaxConnections        int           `json:"maxConnections" yaml:"maxConnections" env:"MAX_CONNECTIONS"`
	MaxIdleConns          int           `json:"maxIdleConns" yaml:"maxIdleConns" env:"MAX_IDLE_CONNECTIONS"`
	ConnMaxLifetime       time.Duration `json:"connMaxLifetime" yaml:"connMaxLifetime" env:"CONN_MAX_LIFETIME"`
	ConnMaxIdleTime       time.Duration `json:"connMaxIdleTime" yaml:"connMaxIdleTime" env:"CONN_MAX_IDLE_TIME"`
	ForceSingleConnection bool          `json:"forceSingleConnection" yaml:"forceSingleConnection" env:"FORCE_SINGLE_CONNECTION"`

	// AutoMigrate applies the embedded migrations on open
	AutoMigrate bool `json:"autoMigrate" yaml:"autoMigrate" env:"AUTO_MIGRATE"`

	// SQLite pragmas
	JournalMode     string `json:"journalMode" yaml:"journalMode" env:"JOURNAL_MODE"`
	SynchronousMode string `json:"synchronousMode" yaml:"synchronousMode" env:"SYNCHRONOUS_MODE"`
	CacheSize       int    `json:"cacheSize" yaml:"cacheSize" env:"CACHE_SIZE"` // KB
	BusyTimeout     int    `json:"busyTimeout" yaml:"busyTimeout" env:"BUSY_TIMEOUT"` // ms
	ForeignKeys     bool   `json:"foreignKeys" yaml:"foreignKeys" env:"FOREIGN_KEYS"`

	Environment string `json:"environment" yaml:"environment" env:"ENVIRONMENT"`
	LogLevel    string `json:"logLevel" yaml:"logLevel" env:"LOG_LEVEL"`
}

// DefaultConfig returns a configuration for a file database in the working directory
func DefaultConfig() *Config {
	return &Config{
		Path:            FileName,
		MaxConnections:  4,
		MaxIdleConns:    2,
		ConnMaxLifetime: 24 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,

		AutoMigrate: true,

		JournalMode:     "WAL",
		SynchronousMode: "NORMAL",
		CacheSize:       2000,
		BusyTimeout:     5000,
		ForeignKeys:     true,

		Environment: "production",
		LogLevel:    "info",
	}
}

// TestConfig returns an in-memory configuration. Every connection to ":memory:"
// gets its own database, so the pool is pinned to one connection.
func TestConfig() *Config {
	config := DefaultConfig()
	config.Path = ":memory:"
	config.Environment = "test"
	config.LogLevel = "error"
	config.ForceSingleConnection = true
	config.JournalMode = "MEMORY"
	config.SynchronousMode = "OFF"
	config.BusyTimeout = 1000
	return config
}

// ConfigForDataDir places the database file inside dir
func ConfigForDataDir(dir, environment string) *Config {
	config := DefaultConfig()
	config.Path = filepath.Join(dir, FileName)
	if environment != "" {
		config.Environment = environment
	}
	if config.IsDevelopment() {
		config.LogLevel = "debug"
	}
	return config
}

// LoadFromEnvironment overlays SIDEDOCK_DB_* variables on c. Unset variables keep their current value.
func (c *Config) LoadFromEnvironment() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return apperrors.NewWithContext("database.LoadFromEnvironment", err, apperrors.ErrCodeValidation,
			map[string]string{"prefix": EnvPrefix})
	}
	return nil
}

// Validate validates the configuration parameters and creates the database directory
func (c *Config) Validate() error {
	const op = "database.Config.Validate"

	if c.Path == "" {
		return apperrors.HandleValidationError(op, "path", c.Path, "cannot be empty")
	}

	if !c.IsInMemory() {
		dir := filepath.Dir(c.Path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return apperrors.WrapWithContext(op, err, map[string]string{"dir": dir})
			}
		}
	}

	if c.MaxConnections <= 0 {
		return apperrors.HandleValidationError(op, "maxConnections", fmt.Sprint(c.MaxConnections), "must be positive")
	}
	if c.MaxIdleConns < 0 {
		return apperrors.HandleValidationError(op, "maxIdleConns", fmt.Sprint(c.MaxIdleConns), "cannot be negative")
	}
	if c.MaxIdleConns > c.MaxConnections {
		return apperrors.HandleValidationError(op, "maxIdleConns", fmt.Sprint(c.MaxIdleConns),
			fmt.Sprintf("cannot be greater than maxConnections (%d)", c.MaxConnections))
	}
	if c.ConnMaxLifetime < 0 {
		return apperrors.HandleValidationError(op, "connMaxLifetime", c.ConnMaxLifetime.String(), "cannot be negative")
	}
	if c.ConnMaxIdleTime < 0 {
		return apperrors.HandleValidationError(op, "connMaxIdleTime", c.ConnMaxIdleTime.String(), "cannot be negative")
	}

	switch strings.ToUpper(c.JournalMode) {
	case "DELETE", "TRUNCATE", "PERSIST", "MEMORY", "WAL", "OFF":
	default:
		return apperrors.HandleValidationError(op, "journalMode", c.JournalMode, "unknown journal mode")
	}
	if c.IsInMemory() && strings.EqualFold(c.JournalMode, "WAL") {
		return apperrors.HandleValidationError(op, "journalMode", c.JournalMode, "cannot be WAL for an in-memory database")
	}

	switch strings.ToUpper(c.SynchronousMode) {
	case "OFF", "NORMAL", "FULL", "EXTRA":
	default:
		return apperrors.HandleValidationError(op, "synchronousMode", c.SynchronousMode, "unknown synchronous mode")
	}

	if c.CacheSize <= 0 {
		return apperrors.HandleValidationError(op, "cacheSize", fmt.Sprint(c.CacheSize), "must be positive")
	}
	if c.BusyTimeout < 0 {
		return apperrors.HandleValidationError(op, "busyTimeout", fmt.Sprint(c.BusyTimeout), "cannot be negative")
	}

	switch c.Environment {
	case "development", "test", "production":
	default:
		return apperrors.HandleValidationError(op, "environment", c.Environment, "must be development, test or production")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return apperrors.HandleValidationError(op, "logLevel", c.LogLevel, "must be debug, info, warn or error")
	}

	return nil
}

// GetConnectionString builds the go-sqlite3 DSN with the configured pragmas
func (c *Config) GetConnectionString() string {
	values := url.Values{}
	if c.ForeignKeys {
		values.Set("_foreign_keys", "on")
	} else {
		values.Set("_foreign_keys", "off")
	}
	values.Set("_journal_mode", c.JournalMode)
	values.Set("_synchronous", c.SynchronousMode)
	// negative so SQLite reads it as KB
	values.Set("_cache_size", fmt.Sprintf("%d", -c.CacheSize))
	values.Set("_busy_timeout", fmt.Sprintf("%d", c.BusyTimeout))
	// writers take the lock at BEGIN so read-then-write transactions wait on busy_timeout
	values.Set("_txlock", "immediate")

	// only the characters that would end the path early
	path := strings.NewReplacer("?", "%3F", "&", "%26").Replace(c.Path)
	return path + "?" + values.Encode()
}

// Clone returns a copy of c
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// IsInMemory returns true if the database is configured to use in-memory storage
func (c *Config) IsInMemory() bool {
	return c.Path == ":memory:"
}

// IsDevelopment returns true if the environment is set to development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsTest returns true if the environment is set to test
func (c *Config) IsTest() bool {
	return c.Environment == "test"
}
