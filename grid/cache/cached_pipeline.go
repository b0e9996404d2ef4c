package cache

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/jook1356/grid-sub001/grid"
	"github.com/jook1356/grid-sub001/grid/transform"
)

// CachedPipeline memoizes per-phase pipeline outputs keyed by
// partial-configuration hashes and computes the minimal re-execution window
// on each request. Executions sharing one CachedPipeline are serialized by
// an internal mutex; the phase slots are single-writer by construction.
type CachedPipeline struct {
	mu sync.Mutex

	data        []grid.Row
	columns     []grid.ColumnDef
	fingerprint string

	axisHashes [axisCount]string
	slots      [grid.PhaseCount]phaseSlot
	seq        int64

	results *ResultCache // Optional cross-config materialized result cache
	stats   Stats
	logger  Logger
}

// NewCachedPipeline creates a cache layer with a default-sized result cache
func NewCachedPipeline() *CachedPipeline {
	return &CachedPipeline{
		results: NewResultCache(DefaultResultCacheSize),
	}
}

// NewCachedPipelineWithResultCache creates a cache layer with a custom
// result cache; pass nil to disable cross-config result reuse
func NewCachedPipelineWithResultCache(results *ResultCache) *CachedPipeline {
	return &CachedPipeline{results: results}
}

// SetLogger sets the logger for cache diagnostics
func (cp *CachedPipeline) SetLogger(logger Logger) {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	cp.logger = logger
	if cp.results != nil {
		cp.results.SetLogger(logger)
	}
}

// SetData replaces the source data set. All phases are invalidated
// unconditionally when the coarse data fingerprint changes.
func (cp *CachedPipeline) SetData(data []grid.Row, columns []grid.ColumnDef) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	fingerprint := DataFingerprint(data)
	if fingerprint != cp.fingerprint {
		cp.invalidateFromLocked(grid.PhasePreTransform)
		cp.fingerprint = fingerprint
		log.Printf("[CACHE_INVALIDATE_DATA] Data replaced (%d rows), all phases invalidated", len(data))
	}
	cp.data = data
	cp.columns = columns
}

// InvalidateAll drops every cached phase snapshot. Callers that mutate rows
// in place (which the fingerprint cannot detect) must call this themselves.
func (cp *CachedPipeline) InvalidateAll() {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	cp.invalidateFromLocked(grid.PhasePreTransform)
}

// Stats returns a snapshot of the cache counters
func (cp *CachedPipeline) Stats() Stats {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	return cp.stats
}

// ResultCacheStats returns the diagnostics of the underlying result cache,
// or zero stats when result caching is disabled
func (cp *CachedPipeline) ResultCacheStats() ResultCacheStats {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	if cp.results == nil {
		return ResultCacheStats{}
	}
	return cp.results.Stats()
}

// Execute runs the view configuration against the current data, re-executing
// only the phases invalidated by config changes since the previous call.
// An unchanged configuration returns the most advanced cached context
// without running any stage.
func (cp *CachedPipeline) Execute(ctx context.Context, cfg *grid.ViewConfig, factory transform.TransformerFactory) (*transform.PipelineResult, error) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	if cfg == nil {
		cfg = &grid.ViewConfig{}
	}

	newHashes := [axisCount]string{
		axisFilters: HashAxis(cfg.Filters),
		axisSorts:   HashAxis(cfg.Sorts),
		axisPivot:   HashAxis(cfg.Pivot),
		axisGroup:   HashAxis(cfg.Group),
	}

	// Compare axes in priority order: the earliest affected phase wins
	point := grid.Phase(-1)
	switch {
	case newHashes[axisFilters] != cp.axisHashes[axisFilters]:
		point = grid.PhasePreTransform
	case newHashes[axisSorts] != cp.axisHashes[axisSorts]:
		point = grid.PhaseSort
	case newHashes[axisPivot] != cp.axisHashes[axisPivot],
		newHashes[axisGroup] != cp.axisHashes[axisGroup]:
		point = grid.PhaseTransform
	}

	if point < 0 {
		// No config change: serve the most advanced cached phase
		if slot, _ := cp.mostAdvancedSlotBefore(grid.PhaseCount); slot != nil {
			cp.stats.Hits++
			log.Printf("[CACHE_HIT] Full hit, serving cached context (seq=%d)", slot.seq)
			return &transform.PipelineResult{Context: slot.ctx}, nil
		}
		// Nothing cached yet (first run or post-SetData); run everything
		point = grid.PhasePreTransform
	} else if cp.anySlotValidFrom(point) {
		cp.stats.Invalidations++
		log.Printf("[CACHE_INVALIDATE_CONFIG] Config change invalidates from %s", point)
	}

	cp.invalidateFromLocked(point)
	cp.axisHashes = newHashes

	// Cross-config shortcut: a previously materialized result for this exact
	// config and data can skip the run entirely
	fullKey := cp.fingerprint + "|" + cp.phaseHashKeyLocked(grid.PhaseMaterialize)
	if cp.results != nil {
		if cached, found := cp.results.Get(fullKey); found {
			cp.seq++
			cp.slots[grid.PhaseMaterialize] = phaseSlot{
				valid:   true,
				hashKey: cp.phaseHashKeyLocked(grid.PhaseMaterialize),
				ctx:     cached,
				seq:     cp.seq,
			}
			cp.stats.Hits++
			log.Printf("[CACHE_HIT_RESULT] Materialized result reused for key %s", fullKey)
			return &transform.PipelineResult{Context: cached}, nil
		}
	}

	// Resume from the most recent snapshot strictly before the invalidation
	// point. Execution restarts at the phase right after that snapshot: the
	// slots between it and the point may hold gaps left by earlier
	// invalidations, and jumping straight to the point would skip the
	// configured stages those gaps stand for.
	var tc *grid.TransformContext
	start := grid.PhasePreTransform
	if base, basePhase := cp.mostAdvancedSlotBefore(point); base != nil {
		tc = base.ctx.Clone()
		start = basePhase + 1
		log.Printf("[CACHE_RESUME] Resuming after cached %s phase", basePhase)
	} else {
		tc = grid.NewTransformContext(cp.data, cp.columns)
	}

	cp.stats.Misses++
	pipeline := transform.BuildFromConfig(cfg, factory)
	result, err := pipeline.ExecuteFrom(ctx, tc, start, func(t transform.Transformer, out *grid.TransformContext) {
		phase := t.Phase()
		cp.seq++
		cp.slots[phase] = phaseSlot{
			valid:   true,
			hashKey: cp.phaseHashKeyLocked(phase),
			ctx:     out,
			seq:     cp.seq,
		}
	})
	if err != nil {
		return nil, fmt.Errorf("cached pipeline execute: %w", err)
	}

	if cp.results != nil && result.Context.Materialized != nil {
		cp.results.Store(fullKey, result.Context)
	}

	return result, nil
}

// phaseHashKeyLocked concatenates the upstream axis hashes relevant to a
// phase, e.g. the sort-phase key is "filters|sorts"
func (cp *CachedPipeline) phaseHashKeyLocked(phase grid.Phase) string {
	parts := []string{cp.axisHashes[axisFilters]}
	if phase >= grid.PhaseSort {
		parts = append(parts, cp.axisHashes[axisSorts])
	}
	if phase >= grid.PhaseTransform {
		parts = append(parts, cp.axisHashes[axisPivot], cp.axisHashes[axisGroup])
	}
	return strings.Join(parts, "|")
}

// invalidateFromLocked drops every slot at or after the given phase
func (cp *CachedPipeline) invalidateFromLocked(from grid.Phase) {
	for p := from; p < grid.PhaseCount; p++ {
		cp.slots[p] = phaseSlot{}
	}
}

// anySlotValidFrom reports whether any slot at or after the phase is live
func (cp *CachedPipeline) anySlotValidFrom(from grid.Phase) bool {
	for p := from; p < grid.PhaseCount; p++ {
		if cp.slots[p].valid {
			return true
		}
	}
	return false
}

// mostAdvancedSlotBefore returns the live slot with the highest phase
// strictly below limit and that phase, or nil
func (cp *CachedPipeline) mostAdvancedSlotBefore(limit grid.Phase) (*phaseSlot, grid.Phase) {
	for p := limit - 1; p >= 0; p-- {
		if cp.slots[p].valid {
			return &cp.slots[p], p
		}
	}
	return nil, 0
}
