package services

import (
	"context"
	"slices"
	"sync"

	"sidedock/internal/infrastructure/logging"
	"sidedock/internal/repository"
)

// PinService keeps the pinned paths in memory and writes changes through to the repository.
// With a nil repository pins live for the process only.
type PinService struct {
	repo   repository.PinRepository
	logger logging.Logger

	mu     sync.RWMutex
	pinned []string
}

// NewPinService creates a service over repo, which may be nil
func NewPinService(repo repository.PinRepository, logger logging.Logger) *PinService {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &PinService{repo: repo, logger: logger}
}

// Load replaces the in-memory pins with the persisted ones.
// On failure the current pins are kept and the error is returned.
func (s *PinService) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	pins, err := s.repo.ListPins(ctx)
	if err != nil {
		logging.LogError(s.logger, err, "PinService.Load", nil)
		return err
	}

	s.mu.Lock()
	s.pinned = pins
	s.mu.Unlock()
	s.logger.Debug("Pins loaded", "count", len(pins))
	return nil
}

// Pinned returns the pinned paths in pin order
func (s *PinService) Pinned() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.pinned)
}

// IsPinned reports whether path is pinned
func (s *PinService) IsPinned(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.pinned, path)
}

// Toggle flips the pin state of path and returns the new state. With a repository
// the stored state decides the flip and the in-memory pins follow it.
// A repository failure leaves the in-memory state unchanged.
func (s *PinService) Toggle(ctx context.Context, path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := slices.Contains(s.pinned, path)
	pinned := !current
	if s.repo != nil {
		var err error
		pinned, err = s.repo.TogglePin(ctx, path)
		if err != nil {
			logging.LogError(s.logger, err, "PinService.Toggle", map[string]interface{}{"path": path})
			return current, err
		}
		if pinned == current {
			s.logger.Warn("Pin state was out of sync with storage", "path", path, "pinned", pinned)
		}
	}

	s.pinned = slices.DeleteFunc(s.pinned, func(p string) bool { return p == path })
	if pinned {
		s.pinned = append(s.pinned, path)
	}
	return pinned, nil
}
