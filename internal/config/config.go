package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/mitchellh/go-homedir"

	apperrors "sidedock/internal/infrastructure/errors"
)

// EnvPrefix is prepended to every environment variable read by Load
const EnvPrefix = "SIDEDOCK_"

// Config holds process-level settings for discovery, routing and storage.
// User-editable behavior (auto-hide, anchor side, widths) lives in the settings package.
type Config struct {
	Environment string `env:"ENV" envDefault:"production"`
	// LogLevel defaults to debug in development and info elsewhere
	LogLevel string `env:"LOG_LEVEL"`

	// DataDir holds the cache, settings file and pins database.
	// Empty means os.UserConfigDir()/sidedock.
	DataDir string `env:"DATA_DIR"`

	// ShortcutRoots overrides the platform Start Menu folders when set
	ShortcutRoots []string `env:"SHORTCUT_ROOTS" envSeparator:";"`
	MaxDepth      int      `env:"MAX_DEPTH" envDefault:"3"`
	EmitEvery     int      `env:"EMIT_EVERY" envDefault:"5"`
	JunkKeywords  []string `env:"JUNK_KEYWORDS" envSeparator:"," envDefault:"uninstall,help,manual,readme,documentation,website,license,changelog,support,about,vignette,credits,config,setup,remove"`

	MinPanelWidth    int           `env:"MIN_PANEL_WIDTH" envDefault:"200"`
	MaxPanelWidth    int           `env:"MAX_PANEL_WIDTH" envDefault:"800"`
	HysteresisBuffer int           `env:"HYSTERESIS_BUFFER" envDefault:"40"`
	PollInterval     time.Duration `env:"POLL_INTERVAL" envDefault:"16ms"`
	Hotkey           string        `env:"HOTKEY" envDefault:"Alt+Space"`
}

// Default returns the built-in configuration without consulting the environment
func Default() *Config {
	cfg := &Config{}
	// an empty environment leaves only envDefault values
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix, Environment: map[string]string{}}); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads SIDEDOCK_* variables over the defaults, resolves paths and validates the result
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) resolvePaths() error {
	if c.DataDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return apperrors.Wrap("config.resolvePaths", err)
		}
		c.DataDir = filepath.Join(base, "sidedock")
	}

	dir, err := homedir.Expand(c.DataDir)
	if err != nil {
		return apperrors.WrapWithContext("config.resolvePaths", err, map[string]string{"data_dir": c.DataDir})
	}
	c.DataDir = dir

	roots := c.ShortcutRoots[:0]
	for _, root := range c.ShortcutRoots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		expanded, err := homedir.Expand(root)
		if err != nil {
			return apperrors.WrapWithContext("config.resolvePaths", err, map[string]string{"root": root})
		}
		roots = append(roots, expanded)
	}
	c.ShortcutRoots = roots
	return nil
}

// Validate checks that bounds and intervals are usable
func (c *Config) Validate() error {
	const op = "config.Validate"

	if c.MaxDepth < 0 {
		return apperrors.HandleValidationError(op, "MaxDepth", fmt.Sprint(c.MaxDepth), "must not be negative")
	}
	if c.EmitEvery < 1 {
		return apperrors.HandleValidationError(op, "EmitEvery", fmt.Sprint(c.EmitEvery), "must be at least 1")
	}
	if c.MinPanelWidth <= 0 {
		return apperrors.HandleValidationError(op, "MinPanelWidth", fmt.Sprint(c.MinPanelWidth), "must be positive")
	}
	if c.MaxPanelWidth < c.MinPanelWidth {
		return apperrors.HandleValidationError(op, "MaxPanelWidth", fmt.Sprint(c.MaxPanelWidth), "must not be below MinPanelWidth")
	}
	if c.HysteresisBuffer < 0 {
		return apperrors.HandleValidationError(op, "HysteresisBuffer", fmt.Sprint(c.HysteresisBuffer), "must not be negative")
	}
	if c.PollInterval <= 0 {
		return apperrors.HandleValidationError(op, "PollInterval", c.PollInterval.String(), "must be positive")
	}
	if strings.TrimSpace(c.Hotkey) == "" {
		return apperrors.HandleValidationError(op, "Hotkey", c.Hotkey, "must not be empty")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return apperrors.HandleValidationError(op, "LogLevel", c.LogLevel, "must be one of debug, info, warn, error")
	}

	switch c.Environment {
	case "development", "production", "test":
	default:
		return apperrors.HandleValidationError(op, "Environment", c.Environment, "must be one of development, production, test")
	}
	return nil
}

// applyDefaults fills values that depend on other fields
func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = "info"
		if c.IsDevelopment() {
			c.LogLevel = "debug"
		}
	}
}

// IsDevelopment reports whether verbose diagnostics should be enabled
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
