package settings

import (
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	apperrors "sidedock/internal/infrastructure/errors"
	"sidedock/internal/infrastructure/logging"
)

// FileName is the settings file inside the data directory
const FileName = "settings.yaml"

// Store holds the current settings and persists them as YAML
type Store struct {
	path     string
	defaults Settings
	bounds   Bounds
	logger   logging.Logger

	mu      sync.RWMutex
	current Settings
}

// NewStore creates a store for path holding the defaults until Load is called
func NewStore(path string, bounds Bounds, logger logging.Logger) *Store {
	return NewStoreWithDefaults(path, Defaults(), bounds, logger)
}

// NewStoreWithDefaults is NewStore with a different fresh-install baseline,
// such as a hotkey chosen through the environment
func NewStoreWithDefaults(path string, defaults Settings, bounds Bounds, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	defaults.normalize(Defaults(), bounds)
	return &Store{path: path, defaults: defaults, bounds: bounds, logger: logger, current: defaults}
}

// Load reads the file and merges it over the defaults. A missing file is not an
// error. A malformed file leaves the defaults in place and returns the error.
func (s *Store) Load() (Settings, error) {
	loaded := s.defaults

	data, err := os.ReadFile(s.path)
	switch {
	case os.IsNotExist(err):
		s.logger.Debug("No settings file, using defaults", "path", s.path)
	case err != nil:
		return s.Get(), apperrors.WrapWithContext("settings.Load", err, map[string]string{"path": s.path})
	default:
		if err := yaml.Unmarshal(data, &loaded); err != nil {
			return s.Get(), apperrors.NewWithContext("settings.Load", err, apperrors.ErrCodeCorruption,
				map[string]string{"path": s.path})
		}
	}
	loaded.normalize(s.defaults, s.bounds)

	s.mu.Lock()
	s.current = loaded
	s.mu.Unlock()
	return loaded, nil
}

// Get returns the current settings
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Apply runs cmd against the current settings and persists the result.
// A rejected command leaves the settings unchanged.
func (s *Store) Apply(cmd Command) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current
	if err := cmd.apply(&next, s.bounds); err != nil {
		return s.current, err
	}
	if next == s.current {
		return next, nil
	}
	if err := s.write(next); err != nil {
		return s.current, err
	}
	s.current = next
	s.logger.Info("Settings updated", "command", cmd.String())
	return next, nil
}

// write replaces the file through a temp file in the same directory
func (s *Store) write(st Settings) error {
	const op = "settings.write"
	ctx := map[string]string{"path": s.path}

	data, err := yaml.Marshal(st)
	if err != nil {
		return apperrors.WrapWithContext(op, err, ctx)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.WrapWithContext(op, err, ctx)
	}
	tmp, err := os.CreateTemp(dir, FileName+".*.tmp")
	if err != nil {
		return apperrors.WrapWithContext(op, err, ctx)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return apperrors.WrapWithContext(op, err, ctx)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return apperrors.WrapWithContext(op, err, ctx)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return apperrors.WrapWithContext(op, err, ctx)
	}
	return nil
}
