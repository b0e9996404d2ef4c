// Package cache wraps the transform pipeline with partial-configuration
// memoization: one hash per config axis, one snapshot slot per phase, and a
// byte-bounded LRU for materialized results.
package cache

import (
	"github.com/jook1356/grid-sub001/grid"
)

// Logger interface for cache logging
type Logger interface {
	Log(level, message string)
}

// Stats tracks cache effectiveness counters
type Stats struct {
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Invalidations int64 `json:"invalidations"`
}

// HitRate returns the fraction of executions served from cache
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Configuration axes tracked by the cache layer. Each axis has its own hash
// so a change can be mapped to the earliest phase it affects.
const (
	axisFilters = iota
	axisSorts
	axisPivot
	axisGroup
	axisCount
)

// phaseSlot is one cached per-phase snapshot. The slots form a fixed array
// indexed by grid.Phase, so which phases are cached is statically
// enumerable.
type phaseSlot struct {
	valid   bool
	hashKey string
	ctx     *grid.TransformContext
	seq     int64 // Logical timestamp of the producing run
}

// DefaultResultCacheSize bounds the materialized result cache (16MB)
const DefaultResultCacheSize = 16 * 1024 * 1024
