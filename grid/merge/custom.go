package merge

import "github.com/jook1356/grid-sub001/grid"

// RangeFunc computes the merged range for a cell, or nil when it does not
// merge
type RangeFunc func(rowIndex int, columnKey string, data []grid.Row) *MergedRange

// CustomStrategy delegates range computation to a caller-supplied function.
// The function must be deterministic for a given data reference; the manager
// memoizes its answers.
type CustomStrategy struct {
	fn RangeFunc
}

// NewCustomStrategy wraps a range function as a strategy
func NewCustomStrategy(fn RangeFunc) *CustomStrategy {
	return &CustomStrategy{fn: fn}
}

// GetMergedRange invokes the wrapped function
func (s *CustomStrategy) GetMergedRange(rowIndex int, columnKey string, data []grid.Row) *MergedRange {
	if s.fn == nil {
		return nil
	}
	return s.fn(rowIndex, columnKey, data)
}
