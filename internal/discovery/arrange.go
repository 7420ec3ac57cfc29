package discovery

import (
	"strings"

	"sidedock/internal/types"
)

// Arrange puts pinned entries first, keeping index order within each group, and
// keeps only names containing query (case-insensitive) when query is not blank
func Arrange(index types.AppIndex, pinnedPaths []string, query string) types.AppIndex {
	pinned := make(map[string]struct{}, len(pinnedPaths))
	for _, p := range pinnedPaths {
		pinned[p] = struct{}{}
	}

	q := strings.ToLower(strings.TrimSpace(query))
	matches := func(e types.AppEntry) bool {
		return q == "" || strings.Contains(strings.ToLower(e.Name), q)
	}

	out := make(types.AppIndex, 0, len(index))
	var rest types.AppIndex
	for _, e := range index {
		if !matches(e) {
			continue
		}
		if _, ok := pinned[e.Path]; ok {
			out = append(out, e)
		} else {
			rest = append(rest, e)
		}
	}
	return append(out, rest...)
}
