package discovery

import (
	"context"
	"iter"
	"slices"
	"time"

	"golang.org/x/sync/singleflight"

	"sidedock/internal/infrastructure/logging"
	"sidedock/internal/types"
)

const (
	DefaultMaxDepth  = 3
	DefaultEmitEvery = 5
)

// EntryResolver enriches a single entry; implementations must not fail
type EntryResolver interface {
	Resolve(ctx context.Context, entry types.AppEntry) types.AppEntry
}

// IndexSaver persists the final index of a completed scan
type IndexSaver interface {
	Save(index types.AppIndex)
}

// BuilderConfig controls which roots are scanned and how often progress is reported
type BuilderConfig struct {
	// Roots are scanned in order; later roots win on duplicate names
	Roots     []string
	MaxDepth  int
	EmitEvery int
}

// Builder produces the application index from the shortcut roots
type Builder struct {
	cfg      BuilderConfig
	scanner  *Scanner
	resolver EntryResolver
	cache    IndexSaver
	logger   logging.Logger

	flight singleflight.Group
}

// NewBuilder wires a builder. A negative MaxDepth or non-positive EmitEvery falls
// back to the default; depth 0 is a valid bound.
func NewBuilder(cfg BuilderConfig, scanner *Scanner, resolver EntryResolver, cache IndexSaver, logger logging.Logger) *Builder {
	if cfg.MaxDepth < 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.EmitEvery < 1 {
		cfg.EmitEvery = DefaultEmitEvery
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Builder{cfg: cfg, scanner: scanner, resolver: resolver, cache: cache, logger: logger}
}

// Build runs one scan and yields progressively more complete snapshots: first the
// unenriched index, then after every EmitEvery enrichments the enriched prefix
// followed by the untouched rest, then the final index. The final index is saved
// to the cache unless the consumer stops early.
func (b *Builder) Build(ctx context.Context) iter.Seq[types.AppIndex] {
	return func(yield func(types.AppIndex) bool) {
		start := time.Now()

		var scanned []types.AppEntry
		for _, root := range b.cfg.Roots {
			for entry := range b.scanner.Scan(root, b.cfg.MaxDepth) {
				scanned = append(scanned, entry)
			}
		}

		index := Dedupe(scanned)
		b.logger.Debug("Shortcut scan finished", "scanned", len(scanned), "unique", len(index))
		if !yield(index.Clone()) {
			return
		}

		enriched := make(types.AppIndex, 0, len(index))
		for i, entry := range index {
			if ctx.Err() != nil {
				b.logger.Info("Index build cancelled", "enriched", len(enriched), "total", len(index))
				return
			}
			enriched = append(enriched, b.resolver.Resolve(ctx, entry))

			// the last batch is covered by the final snapshot
			if len(enriched)%b.cfg.EmitEvery == 0 && len(enriched) < len(index) {
				snapshot := make(types.AppIndex, 0, len(index))
				snapshot = append(snapshot, enriched...)
				snapshot = append(snapshot, index[i+1:]...)
				if !yield(snapshot) {
					return
				}
			}
		}

		if !yield(enriched.Clone()) {
			return
		}
		if b.cache != nil {
			b.cache.Save(enriched)
		}
		logging.LogOperation(b.logger, "BuildIndex", time.Since(start), map[string]interface{}{
			"apps": len(enriched),
		})
	}
}

// Refresh runs Build and hands every snapshot to publish. Concurrent callers join
// the scan already in flight and receive its final index.
func (b *Builder) Refresh(ctx context.Context, publish func(types.AppIndex)) (types.AppIndex, error) {
	v, err, shared := b.flight.Do("scan", func() (interface{}, error) {
		var last types.AppIndex
		for snapshot := range b.Build(ctx) {
			if publish != nil {
				publish(snapshot)
			}
			last = snapshot
		}
		if err := ctx.Err(); err != nil {
			return last, err
		}
		return last, nil
	})
	if shared {
		b.logger.Debug("Joined in-flight scan")
	}

	index, _ := v.(types.AppIndex)
	return index, err
}

// Dedupe keeps the last entry for each name and sorts the result case-insensitively
func Dedupe(entries []types.AppEntry) types.AppIndex {
	pos := make(map[string]int, len(entries))
	out := make(types.AppIndex, 0, len(entries))

	for _, e := range entries {
		if i, ok := pos[e.Name]; ok {
			out[i] = e
			continue
		}
		pos[e.Name] = len(out)
		out = append(out, e)
	}

	slices.SortFunc(out, func(a, b types.AppEntry) int {
		return types.CompareNames(a.Name, b.Name)
	})
	return out
}
