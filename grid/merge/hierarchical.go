package merge

import (
	"sync"

	"github.com/jook1356/grid-sub001/grid"
)

// HierarchicalStrategy merges an ordered list of columns where each level
// only merges within its parent's merged ranges. The top level behaves like
// content merging over the whole data set; a deeper level scans for equal
// runs only inside each multi-row parent range, so equal values spanning a
// parent boundary stay separate. Rows whose parent cell did not merge
// (a singleton run) never merge at the child level.
type HierarchicalStrategy struct {
	mutex     sync.Mutex
	hierarchy []string
	level     map[string]int
	colIndex  map[string]int
	ranges    map[string][]*MergedRange
	data      []grid.Row
}

// NewHierarchicalStrategy creates a hierarchical strategy. hierarchy lists
// the participating column keys from outermost to innermost; columns lists
// all column keys in display order for range coordinates.
func NewHierarchicalStrategy(hierarchy, columns []string) *HierarchicalStrategy {
	s := &HierarchicalStrategy{
		hierarchy: append([]string(nil), hierarchy...),
		level:     make(map[string]int, len(hierarchy)),
		colIndex:  make(map[string]int, len(columns)),
	}
	for i, key := range hierarchy {
		s.level[key] = i
	}
	for i, key := range columns {
		s.colIndex[key] = i
	}
	return s
}

// GetMergedRange returns the hierarchical run containing the cell, or nil
// when the column is outside the hierarchy or the cell does not merge
func (s *HierarchicalStrategy) GetMergedRange(rowIndex int, columnKey string, data []grid.Row) *MergedRange {
	if _, inHierarchy := s.level[columnKey]; !inHierarchy {
		return nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !sameData(data, s.data) || s.ranges == nil {
		s.computeLocked(data)
		s.data = data
	}

	rows := s.ranges[columnKey]
	if rowIndex < 0 || rowIndex >= len(rows) {
		return nil
	}
	return rows[rowIndex]
}

// Invalidate drops all precomputed runs
func (s *HierarchicalStrategy) Invalidate() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.ranges = nil
	s.data = nil
}

// computeLocked builds every level top-down. Each level's multi-row ranges
// become the scan windows for the next level.
func (s *HierarchicalStrategy) computeLocked(data []grid.Row) {
	s.ranges = make(map[string][]*MergedRange, len(s.hierarchy))

	// The top level scans the whole data set as a single window
	windows := []*MergedRange{{StartRow: 0, EndRow: len(data) - 1}}

	for _, columnKey := range s.hierarchy {
		rows := make([]*MergedRange, len(data))
		col := s.colIndex[columnKey]
		var next []*MergedRange

		for _, window := range windows {
			for start := window.StartRow; start <= window.EndRow; {
				norm, ok := grid.NormalizeValue(data[start][columnKey])
				if !ok {
					start++
					continue
				}

				end := start
				for end+1 <= window.EndRow {
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
					next = append(next, r)
				}
				start = end + 1
			}
		}

		s.ranges[columnKey] = rows
		windows = next
		if len(windows) == 0 {
			// No multi-row range at this level: nothing deeper can merge
			for _, rest := range s.hierarchy[s.level[columnKey]+1:] {
				s.ranges[rest] = make([]*MergedRange, len(data))
			}
			break
		}
	}
}
