package merge

import (
	"sync"

	"github.com/jook1356/grid-sub001/grid"
)

// ContentStrategy merges vertical runs of equal cell values within a column.
// Values compare by normalized form (trimmed, case-folded); null cells never
// merge and always break a run. Ranges are precomputed lazily in one O(n)
// pass per column and shared by every row in the run.
type ContentStrategy struct {
	mutex     sync.Mutex
	colIndex  map[string]int
	mergeable map[string]bool
	ranges    map[string][]*MergedRange // Per-column, indexed by row
	data      []grid.Row
}

// NewContentStrategy creates a content strategy. columns lists the column
// keys in display order (defining range coordinates); mergeable names the
// columns that participate in merging, or all columns when empty.
func NewContentStrategy(columns []string, mergeable ...string) *ContentStrategy {
	s := &ContentStrategy{
		colIndex:  make(map[string]int, len(columns)),
		mergeable: make(map[string]bool),
		ranges:    make(map[string][]*MergedRange),
	}
	for i, key := range columns {
		s.colIndex[key] = i
	}
	if len(mergeable) == 0 {
		for _, key := range columns {
			s.mergeable[key] = true
		}
	} else {
		for _, key := range mergeable {
			s.mergeable[key] = true
		}
	}
	return s
}

// GetMergedRange returns the equal-value run containing the cell, or nil for
// singleton runs, null cells and non-mergeable columns
func (s *ContentStrategy) GetMergedRange(rowIndex int, columnKey string, data []grid.Row) *MergedRange {
	if !s.mergeable[columnKey] {
		return nil
	}
	if _, known := s.colIndex[columnKey]; !known {
		return nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !sameData(data, s.data) {
		s.ranges = make(map[string][]*MergedRange)
		s.data = data
	}

	rows, computed := s.ranges[columnKey]
	if !computed {
		rows = s.computeColumnLocked(columnKey, data)
		s.ranges[columnKey] = rows
	}

	if rowIndex < 0 || rowIndex >= len(rows) {
		return nil
	}
	return rows[rowIndex]
}

// Invalidate drops all precomputed runs
func (s *ContentStrategy) Invalidate() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.ranges = make(map[string][]*MergedRange)
	s.data = nil
}

// computeColumnLocked scans one column and records every run of length >= 2
func (s *ContentStrategy) computeColumnLocked(columnKey string, data []grid.Row) []*MergedRange {
	rows := make([]*MergedRange, len(data))
	col := s.colIndex[columnKey]

	start := 0
	for start < len(data) {
		norm, ok := grid.NormalizeValue(data[start][columnKey])
		if !ok {
			start++
			continue
		}

		end := start
		for end+1 < len(data) {
			nextNorm, ok := grid.NormalizeValue(data[end+1][columnKey])
			if !ok || nextNorm != norm {
				break
			}
			end++
		}

		if end > start {
			r := &MergedRange{StartRow: start, EndRow: end, StartCol: col, EndCol: col}
			for i := start; i <= end; i++ {
				rows[i] = r
			}
		}
		start = end + 1
	}
	return rows
}
