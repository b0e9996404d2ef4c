package merge

import (
	"sync"

	"github.com/jook1356/grid-sub001/grid"
)

// cellKey identifies one cell in the memo table
type cellKey struct {
	row int
	col string
}

// Manager memoizes per-cell merge lookups on top of a Strategy. The memo is
// dropped whenever the data reference changes, the column list changes, or
// InvalidateCache is called.
type Manager struct {
	mutex    sync.Mutex
	strategy Strategy
	columns  []string
	memo     map[cellKey]*CellMergeInfo
	data     []grid.Row
}

// NewManager creates a manager for the given strategy. columns lists the
// column keys in display order; they define the StartCol/EndCol coordinate
// space of returned ranges.
func NewManager(strategy Strategy, columns []string) *Manager {
	return &Manager{
		strategy: strategy,
		columns:  append([]string(nil), columns...),
		memo:     make(map[cellKey]*CellMergeInfo),
	}
}

// SetColumns replaces the column list and drops all memoized results
func (m *Manager) SetColumns(columns []string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.columns = append([]string(nil), columns...)
	m.invalidateLocked()
}

// InvalidateCache drops all memoized results. Needed after in-place row
// mutation, which the data reference check cannot see.
func (m *Manager) InvalidateCache() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.invalidateLocked()
}

// GetCellMergeInfo answers the span query for one cell. Cells outside any
// merged range report a nil range with 1x1 spans.
func (m *Manager) GetCellMergeInfo(rowIndex int, columnKey string, data []grid.Row) CellMergeInfo {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if !sameData(data, m.data) {
		m.invalidateLocked()
		m.data = data
	}

	key := cellKey{row: rowIndex, col: columnKey}
	if cached, ok := m.memo[key]; ok {
		return *cached
	}

	info := m.computeLocked(rowIndex, columnKey, data)
	m.memo[key] = info
	return *info
}

// GetMergedRanges collects the distinct ranges of one column, in row order.
// Used by exporters that paint whole columns rather than single cells.
func (m *Manager) GetMergedRanges(columnKey string, data []grid.Row) []*MergedRange {
	var ranges []*MergedRange
	for row := 0; row < len(data); row++ {
		info := m.GetCellMergeInfo(row, columnKey, data)
		if info.Range != nil && info.IsAnchor {
			ranges = append(ranges, info.Range)
		}
	}
	return ranges
}

func (m *Manager) computeLocked(rowIndex int, columnKey string, data []grid.Row) *CellMergeInfo {
	if rowIndex < 0 || rowIndex >= len(data) {
		return &CellMergeInfo{RowSpan: 1, ColSpan: 1}
	}

	r := m.strategy.GetMergedRange(rowIndex, columnKey, data)
	if r == nil {
		return &CellMergeInfo{RowSpan: 1, ColSpan: 1}
	}
	return &CellMergeInfo{
		Range:    r,
		IsAnchor: rowIndex == r.StartRow,
		RowSpan:  r.RowSpan(),
		ColSpan:  r.ColSpan(),
	}
}

func (m *Manager) invalidateLocked() {
	m.memo = make(map[cellKey]*CellMergeInfo)
	if inv, ok := m.strategy.(invalidator); ok {
		inv.Invalidate()
	}
}
