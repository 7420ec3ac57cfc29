//go:build !windows

package platform

import (
	"runtime"

	apperrors "sidedock/internal/infrastructure/errors"
	"sidedock/internal/types"
)

// unsupportedWindow is used where no overlay primitives are implemented.
// The launcher still runs, it just captures input everywhere.
type unsupportedWindow struct{}

// NewWindow returns overlay primitives for the window with the given title
func NewWindow(title string) Window {
	return unsupportedWindow{}
}

func (unsupportedWindow) SetClickThrough(enabled bool) error {
	return apperrors.HandleUnsupported("platform.SetClickThrough", runtime.GOOS)
}

func (unsupportedWindow) CursorPosition() (int, int, bool) {
	return 0, 0, false
}

func (unsupportedWindow) RegisterHotkey(accel string, fn func()) (func(), error) {
	if _, err := ParseAccelerator(accel); err != nil {
		return nil, apperrors.NewWithContext("platform.RegisterHotkey", err, apperrors.ErrCodeValidation,
			map[string]string{"accelerator": accel})
	}
	return nil, apperrors.HandleUnsupported("platform.RegisterHotkey", runtime.GOOS)
}

func (unsupportedWindow) ShowContextMenu(pinned bool) (types.ContextAction, error) {
	return types.ActionNone, apperrors.HandleUnsupported("platform.ShowContextMenu", runtime.GOOS)
}
