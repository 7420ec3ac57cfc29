//go:build darwin

package platform

import (
	"os/exec"

	apperrors "sidedock/internal/infrastructure/errors"
)

// DarwinShell only supports opening files through open(1)
type DarwinShell struct{}

// NewShell returns the shell primitives for this platform
func NewShell() Shell {
	return &DarwinShell{}
}

func (s *DarwinShell) ShortcutRoots() (string, string, error) {
	return "", "", apperrors.HandleUnsupported("platform.ShortcutRoots", "darwin")
}

func (s *DarwinShell) ResolveShortcut(path string) (string, error) {
	return "", apperrors.HandleUnsupported("platform.ResolveShortcut", "darwin")
}

// ExtractIcon is not implemented; macOS icons live in app bundles, not shortcut files
func (s *DarwinShell) ExtractIcon(path string) (string, error) {
	return "", apperrors.HandleUnsupported("platform.ExtractIcon", "darwin")
}

func (s *DarwinShell) Launch(path string) error {
	if err := exec.Command("open", path).Start(); err != nil {
		return apperrors.WrapWithContext("platform.Launch", err, map[string]string{"path": path})
	}
	return nil
}

// Reveal selects path in Finder
func (s *DarwinShell) Reveal(path string) error {
	if err := exec.Command("open", "-R", path).Start(); err != nil {
		return apperrors.WrapWithContext("platform.Reveal", err, map[string]string{"path": path})
	}
	return nil
}
