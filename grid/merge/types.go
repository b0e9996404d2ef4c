// Package merge precomputes row-span ranges per column over a final row list
// and serves O(1) cell-span lookups. It is independent of the transform
// pipeline: it consumes whatever row list the caller renders.
package merge

import "github.com/jook1356/grid-sub001/grid"

// MergedRange is a rectangular cell span, inclusive on all bounds.
// Ranges within one column never overlap.
type MergedRange struct {
	StartRow int `json:"startRow"`
	EndRow   int `json:"endRow"`
	StartCol int `json:"startCol"`
	EndCol   int `json:"endCol"`
}

// RowSpan returns the number of rows the range covers
func (r *MergedRange) RowSpan() int {
	return r.EndRow - r.StartRow + 1
}

// ColSpan returns the number of columns the range covers
func (r *MergedRange) ColSpan() int {
	return r.EndCol - r.StartCol + 1
}

// Contains reports whether a cell position falls inside the range
func (r *MergedRange) Contains(rowIndex, colIndex int) bool {
	return rowIndex >= r.StartRow && rowIndex <= r.EndRow &&
		colIndex >= r.StartCol && colIndex <= r.EndCol
}

// CellMergeInfo is the per-cell answer served to the renderer. Exactly one
// row per range (its StartRow) reports IsAnchor and is responsible for
// painting the span.
type CellMergeInfo struct {
	Range    *MergedRange `json:"range"`
	IsAnchor bool         `json:"isAnchor"`
	RowSpan  int          `json:"rowSpan"`
	ColSpan  int          `json:"colSpan"`
}

// Strategy computes the merged range containing a cell, or nil when the cell
// does not merge. Implementations may precompute lazily but must answer
// queries in O(1) afterwards.
type Strategy interface {
	GetMergedRange(rowIndex int, columnKey string, data []grid.Row) *MergedRange
}

// invalidator is implemented by strategies that hold precomputed state
type invalidator interface {
	Invalidate()
}

// sameData reports whether two row slices are the same underlying data.
// Comparing the first element's address avoids retaining or hashing rows.
func sameData(a, b []grid.Row) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return &a[0] == &b[0]
}
