package cache

import (
	"encoding/json"
	"path/filepath"

	"github.com/peterbourgon/diskv/v3"

	apperrors "sidedock/internal/infrastructure/errors"
	"sidedock/internal/infrastructure/logging"
	"sidedock/internal/types"
)

// Key is the single file the app index snapshot is stored under
const Key = "apps-cache.json"

// Store keeps the last complete app index on disk. Failures never propagate:
// a cache that cannot be read is treated as empty and a failed write is logged.
type Store struct {
	d      *diskv.Diskv
	logger logging.Logger
}

// NewStore creates a store rooted at dir. Writes go through a temp file in
// dir/tmp and are renamed into place.
func NewStore(dir string, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Store{
		d: diskv.New(diskv.Options{
			BasePath: dir,
			TempDir:  filepath.Join(dir, "tmp"),
		}),
		logger: logger,
	}
}

// Load returns the cached index, or an empty index if there is none or it is unreadable
func (s *Store) Load() types.AppIndex {
	data, err := s.d.Read(Key)
	if err != nil {
		err = apperrors.WrapWithContext("cache.Load", err, map[string]string{"key": Key})
		if apperrors.IsNotFound(err) {
			s.logger.Debug("No app cache yet", "key", Key)
		} else {
			logging.LogError(s.logger, err, "cache.Load", nil)
		}
		return types.AppIndex{}
	}

	var index types.AppIndex
	if err := json.Unmarshal(data, &index); err != nil {
		logging.LogError(s.logger, apperrors.NewWithContext("cache.Load", err, apperrors.ErrCodeCorruption,
			map[string]string{"key": Key}), "cache.Load", nil)
		return types.AppIndex{}
	}
	if index == nil {
		index = types.AppIndex{}
	}
	return index
}

// Save replaces the cached snapshot with index
func (s *Store) Save(index types.AppIndex) {
	if index == nil {
		index = types.AppIndex{}
	}

	data, err := json.Marshal(index)
	if err != nil {
		logging.LogError(s.logger, apperrors.Wrap("cache.Save", err), "cache.Save", nil)
		return
	}
	if err := s.d.Write(Key, data); err != nil {
		logging.LogError(s.logger, apperrors.WrapWithContext("cache.Save", err, map[string]string{"key": Key}),
			"cache.Save", map[string]interface{}{"apps": len(index)})
		return
	}
	s.logger.Debug("App cache saved", "apps", len(index))
}
