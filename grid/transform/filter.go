package transform

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jook1356/grid-sub001/grid"
)

// FilterTransformer narrows the context's index set to the rows that pass
// every configured filter (AND semantics), preserving relative order.
type FilterTransformer struct {
	filters     []grid.FilterState
	runInWorker bool
	name        string
}

// NewFilterTransformer creates a new filter stage
func NewFilterTransformer(filters []grid.FilterState) *FilterTransformer {
	return &FilterTransformer{
		filters: filters,
		name:    "filter",
	}
}

// Name returns the stage name
func (f *FilterTransformer) Name() string { return f.name }

// Phase returns the filter stage ordinal
func (f *FilterTransformer) Phase() grid.Phase { return grid.PhasePreTransform }

// RunInWorker reports whether this stage runs on the worker sub-sequence
func (f *FilterTransformer) RunInWorker() bool { return f.runInWorker }

// CacheKey returns a fingerprint of the filter configuration
func (f *FilterTransformer) CacheKey() string {
	parts := make([]string, len(f.filters))
	for i, fs := range f.filters {
		parts[i] = fmt.Sprintf("%s:%s:%v:%v", fs.ColumnKey, fs.Operator, fs.Value, fs.SecondValue)
	}
	return "filter:" + strings.Join(parts, "|")
}

// Transform applies all filters to the current index set. An empty filter
// list passes the context through without recomputing indices.
func (f *FilterTransformer) Transform(_ context.Context, tc *grid.TransformContext) (*grid.TransformContext, error) {
	if len(f.filters) == 0 {
		return tc, nil
	}

	indices := tc.EffectiveIndices()
	surviving := make([]int, 0, len(indices))

	for _, idx := range indices {
		if idx < 0 || idx >= len(tc.Data) {
			continue
		}
		row := tc.Data[idx]
		pass := true
		for i := range f.filters {
			if !rowPassesFilter(row, &f.filters[i]) {
				pass = false
				break
			}
		}
		if pass {
			surviving = append(surviving, idx)
		}
	}

	out := tc.Clone()
	out.Indices = surviving
	return out, nil
}

// rowPassesFilter evaluates a single filter condition against a row
func rowPassesFilter(row grid.Row, fs *grid.FilterState) bool {
	cell := resolveCell(row, fs.ColumnKey)

	switch fs.Operator {
	case grid.OpIsNull:
		return grid.IsNull(cell)
	case grid.OpIsNotNull:
		return !grid.IsNull(cell)
	}

	// Null cells fail every remaining operator
	if grid.IsNull(cell) {
		return false
	}

	switch fs.Operator {
	case grid.OpEq:
		return valuesEqual(cell, fs.Value)
	case grid.OpNeq:
		return !valuesEqual(cell, fs.Value)
	case grid.OpGt:
		cmp, ok := compareNumeric(cell, fs.Value)
		return ok && cmp > 0
	case grid.OpGte:
		cmp, ok := compareNumeric(cell, fs.Value)
		return ok && cmp >= 0
	case grid.OpLt:
		cmp, ok := compareNumeric(cell, fs.Value)
		return ok && cmp < 0
	case grid.OpLte:
		cmp, ok := compareNumeric(cell, fs.Value)
		return ok && cmp <= 0
	case grid.OpContains:
		return strings.Contains(foldValue(cell), foldValue(fs.Value))
	case grid.OpNotContains:
		return !strings.Contains(foldValue(cell), foldValue(fs.Value))
	case grid.OpStartsWith:
		return strings.HasPrefix(foldValue(cell), foldValue(fs.Value))
	case grid.OpEndsWith:
		return strings.HasSuffix(foldValue(cell), foldValue(fs.Value))
	case grid.OpBetween:
		lo, hi, ok := betweenBounds(fs)
		if !ok {
			return false
		}
		n, ok := grid.ValueNumber(cell)
		return ok && n >= lo && n <= hi
	default:
		// Unrecognized operators pass the row. Kept for compatibility even
		// though failing closed would be safer.
		log.Printf("[FILTER_WARN] Unknown operator %q on column %q, passing row", fs.Operator, fs.ColumnKey)
		return true
	}
}

// valuesEqual compares cell against a filter operand: numerically when both
// are numbers, case-insensitively as strings otherwise
func valuesEqual(cell, operand any) bool {
	if cn, ok := grid.ValueNumber(cell); ok {
		if on, ok := grid.ValueNumber(operand); ok {
			return cn == on
		}
	}
	return foldValue(cell) == foldValue(operand)
}

// compareNumeric compares two values as numbers; fails when either operand
// is not a number
func compareNumeric(cell, operand any) (int, bool) {
	cn, ok := grid.ValueNumber(cell)
	if !ok {
		return 0, false
	}
	on, ok := grid.ValueNumber(operand)
	if !ok {
		return 0, false
	}
	switch {
	case cn < on:
		return -1, true
	case cn > on:
		return 1, true
	default:
		return 0, true
	}
}

// betweenBounds extracts the [lo, hi] operands of a between filter from
// either SecondValue or a two-element slice in Value
func betweenBounds(fs *grid.FilterState) (float64, float64, bool) {
	if fs.SecondValue != nil {
		lo, okLo := grid.ValueNumber(fs.Value)
		hi, okHi := grid.ValueNumber(fs.SecondValue)
		return lo, hi, okLo && okHi
	}
	if pair, ok := fs.Value.([]any); ok && len(pair) == 2 {
		lo, okLo := grid.ValueNumber(pair[0])
		hi, okHi := grid.ValueNumber(pair[1])
		return lo, hi, okLo && okHi
	}
	return 0, 0, false
}

// foldValue lowercases the canonical string form for case-insensitive
// string operators
func foldValue(v any) string {
	return strings.ToLower(grid.ValueString(v))
}
