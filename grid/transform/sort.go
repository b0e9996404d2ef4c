package transform

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jook1356/grid-sub001/grid"
)

// SortTransformer orders the context's index set by the configured sort keys.
// The sort is stable: indices equal on all keys retain their pre-sort
// relative order.
type SortTransformer struct {
	sorts       []grid.SortState
	runInWorker bool
	name        string
}

// NewSortTransformer creates a new sort stage
func NewSortTransformer(sorts []grid.SortState) *SortTransformer {
	return &SortTransformer{
		sorts: sorts,
		name:  "sort",
	}
}

// Name returns the stage name
func (s *SortTransformer) Name() string { return s.name }

// Phase returns the sort stage ordinal
func (s *SortTransformer) Phase() grid.Phase { return grid.PhaseSort }

// RunInWorker reports whether this stage runs on the worker sub-sequence
func (s *SortTransformer) RunInWorker() bool { return s.runInWorker }

// CacheKey returns a fingerprint of the sort configuration
func (s *SortTransformer) CacheKey() string {
	parts := make([]string, len(s.sorts))
	for i, ss := range s.sorts {
		parts[i] = fmt.Sprintf("%s:%s", ss.ColumnKey, ss.Direction)
	}
	return "sort:" + strings.Join(parts, "|")
}

// Transform sorts the current index set. An empty sort list passes the
// context through untouched.
func (s *SortTransformer) Transform(_ context.Context, tc *grid.TransformContext) (*grid.TransformContext, error) {
	if len(s.sorts) == 0 {
		return tc, nil
	}

	// Copy before sorting: the input index set may be shared with a cached
	// snapshot, and sorting in place would corrupt it
	src := tc.EffectiveIndices()
	indices := make([]int, len(src))
	copy(indices, src)

	sort.SliceStable(indices, func(i, j int) bool {
		return s.lessRows(tc.Data, indices[i], indices[j])
	})

	out := tc.Clone()
	out.Indices = indices
	return out, nil
}

// lessRows compares two rows across all sort keys in priority order
func (s *SortTransformer) lessRows(data []grid.Row, a, b int) bool {
	if a < 0 || b < 0 || a >= len(data) || b >= len(data) {
		return false
	}
	for _, key := range s.sorts {
		aVal := resolveCell(data[a], key.ColumnKey)
		bVal := resolveCell(data[b], key.ColumnKey)

		aNull := grid.IsNull(aVal)
		bNull := grid.IsNull(bVal)

		// Missing values go to the end regardless of direction
		if aNull && bNull {
			continue
		}
		if aNull {
			return false
		}
		if bNull {
			return true
		}

		cmp := grid.CompareValues(aVal, bVal)
		if cmp == 0 {
			continue
		}
		if key.Descending() {
			return cmp > 0
		}
		return cmp < 0
	}
	return false
}
