package discovery

import (
	"context"
	"path/filepath"
	"strings"

	"sidedock/internal/infrastructure/logging"
	"sidedock/internal/types"
)

// ShortcutShell is the subset of platform.Shell needed to enrich an entry
type ShortcutShell interface {
	ResolveShortcut(path string) (string, error)
	ExtractIcon(path string) (string, error)
}

// IconResolver fills in the shortcut target and icon of an entry
type IconResolver struct {
	shell  ShortcutShell
	logger logging.Logger
}

// NewIconResolver creates a resolver backed by shell
func NewIconResolver(shell ShortcutShell, logger logging.Logger) *IconResolver {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &IconResolver{shell: shell, logger: logger}
}

// Resolve never fails. The icon is taken from the shortcut target when it can be
// read, otherwise from the shortcut file itself; on extraction failure it stays empty.
func (r *IconResolver) Resolve(ctx context.Context, entry types.AppEntry) types.AppEntry {
	if ctx.Err() != nil {
		return entry
	}

	iconSource := entry.Path
	if strings.EqualFold(filepath.Ext(entry.Path), ShortcutExt) {
		target, err := r.shell.ResolveShortcut(entry.Path)
		switch {
		case err != nil:
			r.logger.Debug("Shortcut target unreadable", "path", entry.Path, "error", err)
		case target != "":
			entry.ResolvedTarget = target
			iconSource = target
		}
	}

	icon, err := r.shell.ExtractIcon(iconSource)
	if err != nil {
		r.logger.Debug("Icon extraction failed", "path", entry.Path, "source", iconSource, "error", err)
		return entry
	}

	entry.Icon = icon
	return entry
}
