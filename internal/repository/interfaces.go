package repository

import "context"

// PinRepository persists the set of pinned shortcut paths.
// Paths are stored as given; ListPins returns them in pin order.
type PinRepository interface {
	ListPins(ctx context.Context) ([]string, error)
	// TogglePin flips the pin state of path in one transaction and returns the new state
	TogglePin(ctx context.Context, path string) (bool, error)
}
