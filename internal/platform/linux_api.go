//go:build linux

package platform

import (
	"os/exec"
	"path/filepath"

	apperrors "sidedock/internal/infrastructure/errors"
)

// LinuxShell only supports opening files; Start Menu shortcuts do not exist here
type LinuxShell struct{}

// NewShell returns the shell primitives for this platform
func NewShell() Shell {
	return &LinuxShell{}
}

func (s *LinuxShell) ShortcutRoots() (string, string, error) {
	return "", "", apperrors.HandleUnsupported("platform.ShortcutRoots", "linux")
}

func (s *LinuxShell) ResolveShortcut(path string) (string, error) {
	return "", apperrors.HandleUnsupported("platform.ResolveShortcut", "linux")
}

func (s *LinuxShell) ExtractIcon(path string) (string, error) {
	return "", apperrors.HandleUnsupported("platform.ExtractIcon", "linux")
}

// Launch hands path to xdg-open
func (s *LinuxShell) Launch(path string) error {
	if err := exec.Command("xdg-open", path).Start(); err != nil {
		return apperrors.WrapWithContext("platform.Launch", err, map[string]string{"path": path})
	}
	return nil
}

// Reveal opens the containing directory; xdg-open cannot select a file
func (s *LinuxShell) Reveal(path string) error {
	if err := exec.Command("xdg-open", filepath.Dir(path)).Start(); err != nil {
		return apperrors.WrapWithContext("platform.Reveal", err, map[string]string{"path": path})
	}
	return nil
}
