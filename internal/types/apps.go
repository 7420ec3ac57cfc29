package types

import "strings"

// AppEntry is one launchable application discovered from a shortcut file
type AppEntry struct {
	Name           string `json:"name"`
	Path           string `json:"path"`
	ResolvedTarget string `json:"resolvedTarget,omitempty"`
	Icon           string `json:"icon,omitempty"` // PNG data URL
}

// HasIcon reports whether an icon was extracted for the entry
func (e AppEntry) HasIcon() bool {
	return e.Icon != ""
}

// AppIndex is the ordered list shown by the launcher
type AppIndex []AppEntry

// Clone returns a copy that can be handed to another goroutine
func (idx AppIndex) Clone() AppIndex {
	if idx == nil {
		return nil
	}
	out := make(AppIndex, len(idx))
	copy(out, idx)
	return out
}

// Find returns the entry with the given name
func (idx AppIndex) Find(name string) (AppEntry, bool) {
	for _, e := range idx {
		if e.Name == name {
			return e, true
		}
	}
	return AppEntry{}, false
}

// FindByPath returns the entry whose shortcut path matches, ignoring case
func (idx AppIndex) FindByPath(path string) (AppEntry, bool) {
	for _, e := range idx {
		if strings.EqualFold(e.Path, path) {
			return e, true
		}
	}
	return AppEntry{}, false
}

// CompareNames orders names case-insensitively, breaking ties on the exact name
func CompareNames(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}
