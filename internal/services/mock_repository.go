package services

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"sidedock/internal/infrastructure/errors"
	"sidedock/internal/repository"
)

// MockRepository implements PinRepository in memory for testing
type MockRepository struct {
	mu               sync.RWMutex
	pins             []string
	listCallCount    int
	toggleCallCount  int
	shouldFailList   bool
	shouldFailToggle bool
}

var _ repository.PinRepository = (*MockRepository)(nil)

// NewMockRepository creates a mock repository holding pins in order
func NewMockRepository(pins ...string) *MockRepository {
	return &MockRepository{pins: slices.Clone(pins)}
}

// SetFailureModes configures the mock to simulate failures
func (m *MockRepository) SetFailureModes(list, toggle bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailList = list
	m.shouldFailToggle = toggle
}

// GetCallCounts returns the number of times each method was called
func (m *MockRepository) GetCallCounts() (list, toggle int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listCallCount, m.toggleCallCount
}

// SetPins replaces the stored pins behind the service's back, as another
// process writing the same database would
func (m *MockRepository) SetPins(pins ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pins = slices.Clone(pins)
}

// ListPins implements PinRepository interface
func (m *MockRepository) ListPins(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCallCount++
	if m.shouldFailList {
		return nil, errors.New("ListPins", fmt.Errorf("mock list failure"), errors.ErrCodeConnection)
	}
	return slices.Clone(m.pins), nil
}

// TogglePin implements PinRepository interface
func (m *MockRepository) TogglePin(ctx context.Context, path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toggleCallCount++
	if m.shouldFailToggle {
		return false, errors.New("TogglePin", fmt.Errorf("mock toggle failure"), errors.ErrCodeBusy)
	}
	if i := slices.Index(m.pins, path); i >= 0 {
		m.pins = slices.Delete(m.pins, i, i+1)
		return false, nil
	}
	m.pins = append(m.pins, path)
	return true, nil
}
