package discovery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"sidedock/internal/testutils"
	"sidedock/internal/types"
)

// touch creates an empty file (and its parent directories) under root
func touch(t *testing.T, root string, rel string) string {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return full
}

func collectNames(seq func(func(types.AppEntry) bool)) []string {
	var names []string
	for e := range seq {
		names = append(names, e.Name)
	}
	slices.Sort(names)
	return names
}

type fakeShell struct {
	mu          sync.Mutex
	targets     map[string]string
	resolveErr  error
	failIcon    func(path string) bool
	iconSources []string
}

func (f *fakeShell) ResolveShortcut(path string) (string, error) {
	if f.resolveErr != nil {
		return "", f.resolveErr
	}
	return f.targets[path], nil
}

func (f *fakeShell) ExtractIcon(path string) (string, error) {
	f.mu.Lock()
	f.iconSources = append(f.iconSources, path)
	f.mu.Unlock()

	if f.failIcon != nil && f.failIcon(path) {
		return "", errors.New("no icon")
	}
	return "data:image/png;base64,icon:" + filepath.Base(path), nil
}

type recordingSaver struct {
	mu    sync.Mutex
	saved []types.AppIndex
}

func (r *recordingSaver) Save(index types.AppIndex) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, index.Clone())
}

func (r *recordingSaver) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

func TestScanner_FiltersAndBoundsDepth(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "Notepad.lnk")
	touch(t, root, "CALC.LNK")
	touch(t, root, "Uninstall Foo.lnk")
	touch(t, root, "Foo Website.lnk")
	touch(t, root, "notes.txt")
	touch(t, root, "L1/Paint.lnk")
	touch(t, root, "L1/L2/Help Center.lnk")
	touch(t, root, "L1/L2/L3/Deep3.lnk")
	touch(t, root, "L1/L2/L3/L4/Deep4.lnk")

	s := NewScanner(nil, &testutils.RecordingLogger{})
	got := collectNames(s.Scan(root, 3))

	want := []string{"CALC", "Deep3", "Notepad", "Paint"}
	if !slices.Equal(got, want) {
		t.Errorf("Scan() = %v, want %v", got, want)
	}
}

func TestScanner_DepthZeroListsRootOnly(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "Top.lnk")
	touch(t, root, "Sub/Nested.lnk")

	got := collectNames(NewScanner(nil, nil).Scan(root, 0))
	if !slices.Equal(got, []string{"Top"}) {
		t.Errorf("Scan(depth 0) = %v", got)
	}
}

func TestScanner_PathsAndNames(t *testing.T) {
	root := t.TempDir()
	path := touch(t, root, "Tools/Terminal.lnk")

	var entries []types.AppEntry
	for e := range NewScanner(nil, nil).Scan(root, 3) {
		entries = append(entries, e)
	}

	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].Name != "Terminal" || entries[0].Path != path {
		t.Errorf("Unexpected entry %+v", entries[0])
	}
	if entries[0].Icon != "" || entries[0].ResolvedTarget != "" {
		t.Error("Scanner should not enrich entries")
	}
}

func TestScanner_CustomKeywords(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "Uninstall Foo.lnk")
	touch(t, root, "Beta Tool.lnk")

	got := collectNames(NewScanner([]string{" BETA "}, nil).Scan(root, 3))
	if !slices.Equal(got, []string{"Uninstall Foo"}) {
		t.Errorf("Scan() = %v", got)
	}
}

func TestScanner_MissingRootAndEmptyRoot(t *testing.T) {
	s := NewScanner(nil, &testutils.RecordingLogger{})

	if got := collectNames(s.Scan(filepath.Join(t.TempDir(), "missing"), 3)); len(got) != 0 {
		t.Errorf("Expected nothing for missing root, got %v", got)
	}
	if got := collectNames(s.Scan("", 3)); len(got) != 0 {
		t.Errorf("Expected nothing for empty root, got %v", got)
	}
}

func TestScanner_SymlinkLoopTerminates(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "App.lnk")
	if err := os.Symlink(root, filepath.Join(root, "loop")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	got := collectNames(NewScanner(nil, nil).Scan(root, 3))

	// root plus three levels of the loop
	if len(got) != 4 {
		t.Errorf("Expected 4 entries through the loop, got %v", got)
	}
}

func TestScanner_StopsWhenConsumerStops(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 5; i++ {
		touch(t, root, fmt.Sprintf("App%d.lnk", i))
	}

	n := 0
	for range NewScanner(nil, nil).Scan(root, 3) {
		n++
		break
	}
	if n != 1 {
		t.Errorf("Expected 1 entry before break, got %d", n)
	}
}

func TestIconResolver_UsesTargetIcon(t *testing.T) {
	shell := &fakeShell{targets: map[string]string{`C:\Start\Code.lnk`: `C:\Code\code.exe`}}
	r := NewIconResolver(shell, nil)

	got := r.Resolve(context.Background(), types.AppEntry{Name: "Code", Path: `C:\Start\Code.lnk`})

	if got.ResolvedTarget != `C:\Code\code.exe` {
		t.Errorf("Expected resolved target, got %q", got.ResolvedTarget)
	}
	if !got.HasIcon() {
		t.Error("Expected icon")
	}
	if len(shell.iconSources) != 1 || shell.iconSources[0] != `C:\Code\code.exe` {
		t.Errorf("Expected icon from target, got sources %v", shell.iconSources)
	}
}

func TestIconResolver_FallsBackToShortcut(t *testing.T) {
	tests := []struct {
		name  string
		shell *fakeShell
	}{
		{"unreadable shortcut", &fakeShell{resolveErr: errors.New("bad link")}},
		{"empty target", &fakeShell{targets: map[string]string{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewIconResolver(tt.shell, &testutils.RecordingLogger{})
			got := r.Resolve(context.Background(), types.AppEntry{Name: "Store", Path: "/start/Store.lnk"})

			if got.ResolvedTarget != "" {
				t.Errorf("Expected no target, got %q", got.ResolvedTarget)
			}
			if len(tt.shell.iconSources) != 1 || tt.shell.iconSources[0] != "/start/Store.lnk" {
				t.Errorf("Expected icon from shortcut, got %v", tt.shell.iconSources)
			}
			if !got.HasIcon() {
				t.Error("Expected icon")
			}
		})
	}
}

func TestIconResolver_ExtractionFailureKeepsEntry(t *testing.T) {
	shell := &fakeShell{failIcon: func(string) bool { return true }}
	r := NewIconResolver(shell, &testutils.RecordingLogger{})

	in := types.AppEntry{Name: "Broken", Path: "/start/Broken.lnk"}
	got := r.Resolve(context.Background(), in)

	if got.Name != in.Name || got.Path != in.Path || got.HasIcon() {
		t.Errorf("Expected entry without icon, got %+v", got)
	}
	if len(shell.iconSources) != 1 {
		t.Errorf("Expected exactly one extraction attempt, got %d", len(shell.iconSources))
	}
}

func TestIconResolver_CancelledContext(t *testing.T) {
	shell := &fakeShell{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := types.AppEntry{Name: "A", Path: "/a.lnk"}
	if got := NewIconResolver(shell, nil).Resolve(ctx, in); got != in {
		t.Errorf("Expected unchanged entry, got %+v", got)
	}
	if len(shell.iconSources) != 0 {
		t.Error("Expected no platform calls after cancellation")
	}
}

func TestDedupe(t *testing.T) {
	in := []types.AppEntry{
		{Name: "zoom", Path: "/m/zoom.lnk"},
		{Name: "Apple", Path: "/m/Apple.lnk"},
		{Name: "Zoom", Path: "/m/Zoom.lnk"},
		{Name: "apple", Path: "/m/apple.lnk"},
		{Name: "Apple", Path: "/u/Apple.lnk"},
	}

	got := Dedupe(in)

	var names []string
	for _, e := range got {
		names = append(names, e.Name)
	}
	if want := []string{"Apple", "apple", "Zoom", "zoom"}; !slices.Equal(names, want) {
		t.Errorf("Dedupe() names = %v, want %v", names, want)
	}
	if e, _ := got.Find("Apple"); e.Path != "/u/Apple.lnk" {
		t.Errorf("Expected last occurrence to win, got %q", e.Path)
	}
}

func newTestBuilder(t *testing.T, roots []string, shell *fakeShell, saver IndexSaver) *Builder {
	t.Helper()
	logger := &testutils.RecordingLogger{}
	return NewBuilder(
		BuilderConfig{Roots: roots, MaxDepth: 3, EmitEvery: 5},
		NewScanner(nil, logger),
		NewIconResolver(shell, logger),
		saver,
		logger,
	)
}

func collectSnapshots(seq func(func(types.AppIndex) bool)) []types.AppIndex {
	var out []types.AppIndex
	for s := range seq {
		out = append(out, s)
	}
	return out
}

func TestBuilder_OneFailingIconDoesNotDropEntries(t *testing.T) {
	root := t.TempDir()
	targets := map[string]string{}
	for i := 0; i < 10; i++ {
		p := touch(t, root, fmt.Sprintf("App%02d.lnk", i))
		targets[p] = fmt.Sprintf("/bin/app%02d.exe", i)
	}
	shell := &fakeShell{
		targets:  targets,
		failIcon: func(p string) bool { return strings.HasSuffix(p, "app03.exe") },
	}
	saver := &recordingSaver{}

	snapshots := collectSnapshots(newTestBuilder(t, []string{root}, shell, saver).Build(context.Background()))

	final := snapshots[len(snapshots)-1]
	if len(final) != 10 {
		t.Fatalf("Expected 10 entries in final index, got %d", len(final))
	}
	for i, e := range final {
		if i == 3 {
			if e.HasIcon() {
				t.Errorf("Expected entry #4 to have no icon, got %q", e.Icon)
			}
			continue
		}
		if !e.HasIcon() {
			t.Errorf("Expected entry %s to have an icon", e.Name)
		}
	}

	if saver.count() != 1 {
		t.Fatalf("Expected one cache save, got %d", saver.count())
	}
	if len(saver.saved[0]) != 10 {
		t.Errorf("Expected saved index of 10, got %d", len(saver.saved[0]))
	}
}

func TestBuilder_ProgressiveEmissionIsMonotone(t *testing.T) {
	root := t.TempDir()
	targets := map[string]string{}
	for i := 0; i < 12; i++ {
		p := touch(t, root, fmt.Sprintf("Tool %c.lnk", 'L'-i))
		targets[p] = "/bin/" + filepath.Base(p)
	}
	shell := &fakeShell{targets: targets}

	snapshots := collectSnapshots(newTestBuilder(t, []string{root}, shell, &recordingSaver{}).Build(context.Background()))

	// unenriched, after 5, after 10, final
	if len(snapshots) != 4 {
		t.Fatalf("Expected 4 snapshots, got %d", len(snapshots))
	}

	names := func(idx types.AppIndex) []string {
		out := make([]string, len(idx))
		for i, e := range idx {
			out[i] = e.Name
		}
		return out
	}
	enrichedPrefix := func(idx types.AppIndex) int {
		n := 0
		for _, e := range idx {
			if e.ResolvedTarget == "" {
				break
			}
			n++
		}
		for _, e := range idx[n:] {
			if e.ResolvedTarget != "" {
				t.Errorf("Enriched entry %s found after the unenriched suffix", e.Name)
			}
		}
		return n
	}

	first := names(snapshots[0])
	if !slices.IsSortedFunc(first, types.CompareNames) {
		t.Errorf("Unenriched index is not sorted: %v", first)
	}

	wantPrefix := []int{0, 5, 10, 12}
	for i, s := range snapshots {
		if !slices.Equal(names(s), first) {
			t.Errorf("Snapshot %d changed ordering: %v", i, names(s))
		}
		if got := enrichedPrefix(s); got != wantPrefix[i] {
			t.Errorf("Snapshot %d enriched prefix = %d, want %d", i, got, wantPrefix[i])
		}
	}
}

func TestBuilder_DedupAcrossRootsLastWins(t *testing.T) {
	machine, user := t.TempDir(), t.TempDir()
	touch(t, machine, "Tool.lnk")
	touch(t, machine, "Editor.lnk")
	userTool := touch(t, user, "Sub/Tool.lnk")

	snapshots := collectSnapshots(newTestBuilder(t, []string{machine, user}, &fakeShell{}, nil).Build(context.Background()))

	first := snapshots[0]
	if len(first) != 2 {
		t.Fatalf("Expected 2 unique entries, got %d", len(first))
	}
	if e, _ := first.Find("Tool"); e.Path != userTool {
		t.Errorf("Expected per-user Tool to win, got %q", e.Path)
	}
}

func TestBuilder_EarlyStopSkipsSave(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "A.lnk")
	touch(t, root, "B.lnk")
	saver := &recordingSaver{}

	for range newTestBuilder(t, []string{root}, &fakeShell{}, saver).Build(context.Background()) {
		break
	}

	if saver.count() != 0 {
		t.Errorf("Expected no save after early stop, got %d", saver.count())
	}
}

func TestBuilder_EmptyRoots(t *testing.T) {
	saver := &recordingSaver{}
	snapshots := collectSnapshots(newTestBuilder(t, []string{filepath.Join(t.TempDir(), "none")}, &fakeShell{}, saver).Build(context.Background()))

	if len(snapshots) != 2 || len(snapshots[0]) != 0 || len(snapshots[1]) != 0 {
		t.Errorf("Expected empty unenriched and final snapshots, got %v", snapshots)
	}
	if saver.count() != 1 {
		t.Errorf("Expected empty index to be saved, got %d saves", saver.count())
	}
}

func TestBuilder_RefreshPublishesSnapshots(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 6; i++ {
		touch(t, root, fmt.Sprintf("App%d.lnk", i))
	}
	saver := &recordingSaver{}
	b := newTestBuilder(t, []string{root}, &fakeShell{}, saver)

	var published []types.AppIndex
	final, err := b.Refresh(context.Background(), func(idx types.AppIndex) {
		published = append(published, idx)
	})
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	// unenriched, after 5, final
	if len(published) != 3 {
		t.Errorf("Expected 3 published snapshots, got %d", len(published))
	}
	if len(final) != 6 || !final[5].HasIcon() {
		t.Errorf("Unexpected final index %+v", final)
	}
	if saver.count() != 1 {
		t.Errorf("Expected one save, got %d", saver.count())
	}
}

func TestBuilder_RefreshCancelled(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "A.lnk")
	saver := &recordingSaver{}
	b := newTestBuilder(t, []string{root}, &fakeShell{}, saver)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	published := 0
	_, err := b.Refresh(ctx, func(types.AppIndex) { published++ })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if published != 1 {
		t.Errorf("Expected only the unenriched snapshot, got %d", published)
	}
	if saver.count() != 0 {
		t.Error("Cancelled scan must not be saved")
	}
}

func TestArrange(t *testing.T) {
	index := types.AppIndex{
		{Name: "Calculator", Path: "/c.lnk"},
		{Name: "Chrome", Path: "/chrome.lnk"},
		{Name: "Paint", Path: "/p.lnk"},
		{Name: "Terminal", Path: "/t.lnk"},
	}

	tests := []struct {
		name   string
		pinned []string
		query  string
		want   []string
	}{
		{"no pins no query", nil, "", []string{"Calculator", "Chrome", "Paint", "Terminal"}},
		{"pins first in index order", []string{"/t.lnk", "/c.lnk"}, "", []string{"Calculator", "Terminal", "Chrome", "Paint"}},
		{"query filters case-insensitively", nil, "  CH ", []string{"Chrome"}},
		{"query with pins", []string{"/p.lnk"}, "a", []string{"Paint", "Calculator", "Terminal"}},
		{"unknown pin ignored", []string{"/missing.lnk"}, "", []string{"Calculator", "Chrome", "Paint", "Terminal"}},
		{"no matches", nil, "zzz", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Arrange(index, tt.pinned, tt.query)
			names := []string{}
			for _, e := range got {
				names = append(names, e.Name)
			}
			if !slices.Equal(names, tt.want) {
				t.Errorf("Arrange() = %v, want %v", names, tt.want)
			}
		})
	}
}
