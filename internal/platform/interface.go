package platform

import "sidedock/internal/types"

// Shell covers the desktop shell primitives used for discovery and launching
type Shell interface {
	// ShortcutRoots returns the machine-wide and per-user Start Menu program folders
	ShortcutRoots() (machine string, user string, err error)
	// ResolveShortcut reads the target path stored in a shortcut file
	ResolveShortcut(path string) (string, error)
	// ExtractIcon returns the first icon of path as a PNG data URL
	ExtractIcon(path string) (string, error)
	// Launch opens path with the shell's default verb
	Launch(path string) error
	// Reveal opens the containing folder with path selected
	Reveal(path string) error
}

// Window covers the primitives needed to run the launcher as an overlay
type Window interface {
	// SetClickThrough makes the whole window transparent to pointer input when enabled
	SetClickThrough(enabled bool) error
	// CursorPosition returns the pointer position in window coordinates
	CursorPosition() (x int, y int, ok bool)
	// RegisterHotkey calls fn on every press of accel until unregister is called
	RegisterHotkey(accel string, fn func()) (unregister func(), err error)
	// ShowContextMenu shows the native per-app menu at the cursor and blocks until it closes
	ShowContextMenu(pinned bool) (types.ContextAction, error)
}

const (
	menuTogglePin  = 1
	menuOpenFolder = 2
)

func menuLabel(pinned bool) string {
	if pinned {
		return "Unpin from Top"
	}
	return "Pin to Top"
}

func actionForCommand(cmd uintptr) types.ContextAction {
	switch cmd {
	case menuTogglePin:
		return types.ActionTogglePin
	case menuOpenFolder:
		return types.ActionOpenFolder
	default:
		return types.ActionNone
	}
}
