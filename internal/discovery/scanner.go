package discovery

import (
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"sidedock/internal/infrastructure/logging"
	"sidedock/internal/types"
)

// ShortcutExt is the only file extension treated as an application
const ShortcutExt = ".lnk"

// DefaultJunkKeywords mark shortcuts that point at uninstallers, docs and the like
var DefaultJunkKeywords = []string{
	"uninstall", "help", "manual", "readme", "documentation",
	"website", "license", "changelog", "support", "about",
	"vignette", "credits", "config", "setup", "remove",
}

// Scanner walks a shortcut tree and yields the launchable entries it finds
type Scanner struct {
	junk   []string
	logger logging.Logger
}

// NewScanner creates a scanner with the given junk keywords (DefaultJunkKeywords when empty)
func NewScanner(junk []string, logger logging.Logger) *Scanner {
	if len(junk) == 0 {
		junk = DefaultJunkKeywords
	}
	lowered := make([]string, 0, len(junk))
	for _, k := range junk {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			lowered = append(lowered, k)
		}
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Scanner{junk: lowered, logger: logger}
}

type dirFrame struct {
	path  string
	depth int
}

// Scan lazily walks root. The root listing is depth 0 and directories deeper than
// maxDepth are never listed. Unreadable directories and entries are skipped.
func (s *Scanner) Scan(root string, maxDepth int) iter.Seq[types.AppEntry] {
	return func(yield func(types.AppEntry) bool) {
		if root == "" {
			return
		}
		stack := []dirFrame{{path: root, depth: 0}}

		for len(stack) > 0 {
			frame := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if frame.depth > maxDepth {
				continue
			}

			entries, err := os.ReadDir(frame.path)
			if err != nil {
				s.logger.Debug("Skipping unreadable directory", "path", frame.path, "error", err)
				continue
			}

			var subdirs []dirFrame
			for _, de := range entries {
				full := filepath.Join(frame.path, de.Name())

				// Stat follows symlinks; the depth bound stops cycles
				info, err := os.Stat(full)
				if err != nil {
					s.logger.Debug("Skipping unreadable entry", "path", full, "error", err)
					continue
				}

				if info.IsDir() {
					subdirs = append(subdirs, dirFrame{path: full, depth: frame.depth + 1})
					continue
				}

				name, ok := s.candidate(de.Name())
				if !ok {
					continue
				}
				if !yield(types.AppEntry{Name: name, Path: full}) {
					return
				}
			}

			// reversed so subdirectories pop in listing order
			slices.Reverse(subdirs)
			stack = append(stack, subdirs...)
		}
	}
}

// candidate returns the display name for a shortcut file, or false if it is
// not a shortcut or matches a junk keyword
func (s *Scanner) candidate(file string) (string, bool) {
	ext := filepath.Ext(file)
	if !strings.EqualFold(ext, ShortcutExt) {
		return "", false
	}
	name := file[:len(file)-len(ext)]
	if name == "" || s.isJunk(name) {
		return "", false
	}
	return name, true
}

func (s *Scanner) isJunk(name string) bool {
	lower := strings.ToLower(name)
	for _, k := range s.junk {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
