package transform

import (
	"context"
	"fmt"

	"github.com/jook1356/grid-sub001/grid"
)

// MaterializeTransformer flattens whichever intermediate representation the
// pipeline produced into the final linear list of render rows. Exactly one
// source is selected, in priority order: pivot result, group forest, index
// set, full data.
type MaterializeTransformer struct {
	opts grid.MaterializeOptions
	name string
}

// NewMaterializeTransformer creates the materialize stage
func NewMaterializeTransformer(opts grid.MaterializeOptions) *MaterializeTransformer {
	return &MaterializeTransformer{
		opts: opts,
		name: "materialize",
	}
}

// Name returns the stage name
func (m *MaterializeTransformer) Name() string { return m.name }

// Phase returns the materialize stage ordinal
func (m *MaterializeTransformer) Phase() grid.Phase { return grid.PhaseMaterialize }

// RunInWorker reports whether this stage runs on the worker sub-sequence
func (m *MaterializeTransformer) RunInWorker() bool { return false }

// CacheKey returns a fingerprint of the materialize configuration
func (m *MaterializeTransformer) CacheKey() string {
	collapsed := ""
	if m.opts.RespectCollapsed {
		for id := range m.opts.Collapsed {
			collapsed += id + ";"
		}
	}
	return fmt.Sprintf("materialize:headers=%t:subtotals=%t:collapsed=%s",
		m.opts.IncludeGroupHeaders, m.opts.IncludeSubtotals, collapsed)
}

// Transform emits the flat row list onto the context
func (m *MaterializeTransformer) Transform(_ context.Context, tc *grid.TransformContext) (*grid.TransformContext, error) {
	out := tc.Clone()

	switch {
	case tc.PivotResult != nil:
		out.Materialized = m.materializePivot(tc.PivotResult)
	case tc.GroupInfo != nil:
		rows := make([]grid.MaterializedRow, 0, len(tc.Data))
		for _, root := range tc.GroupInfo.Roots {
			rows = m.appendGroupNode(rows, tc.Data, root)
		}
		out.Materialized = rows
	case tc.Indices != nil:
		out.Materialized = m.materializeIndices(tc.Data, tc.Indices)
	default:
		out.Materialized = m.materializeIndices(tc.Data, tc.EffectiveIndices())
	}

	return out, nil
}

// materializePivot emits one data entry per pivot output row. DataIndex is
// the ordinal within the pivot result; per-row source indices live on the
// PivotResult itself.
func (m *MaterializeTransformer) materializePivot(pr *grid.PivotResult) []grid.MaterializedRow {
	rows := make([]grid.MaterializedRow, len(pr.Rows))
	for i, row := range pr.Rows {
		rows[i] = grid.MaterializedRow{
			Kind:      grid.RowKindData,
			Cells:     row,
			DataIndex: i,
		}
	}
	return rows
}

// materializeIndices emits one data entry per surviving index
func (m *MaterializeTransformer) materializeIndices(data []grid.Row, indices []int) []grid.MaterializedRow {
	rows := make([]grid.MaterializedRow, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(data) {
			continue
		}
		rows = append(rows, grid.MaterializedRow{
			Kind:      grid.RowKindData,
			Cells:     data[idx],
			DataIndex: idx,
		})
	}
	return rows
}

// appendGroupNode emits a node and its subtree depth-first in pre-order:
// optional header, then children or leaf data rows, then an optional
// subtotal. A collapsed node keeps its header but skips the whole subtree.
func (m *MaterializeTransformer) appendGroupNode(rows []grid.MaterializedRow, data []grid.Row, node *grid.GroupNode) []grid.MaterializedRow {
	if m.opts.IncludeGroupHeaders {
		rows = append(rows, grid.MaterializedRow{
			Kind:      grid.RowKindGroupHeader,
			Cells:     groupHeaderCells(node),
			DataIndex: -1,
			GroupID:   node.ID,
			GroupPath: node.Path,
			Level:     node.Level,
		})
	}

	if m.opts.RespectCollapsed && m.opts.Collapsed[node.ID] {
		return rows
	}

	if node.IsLeaf() {
		for _, idx := range node.DataIndices {
			if idx < 0 || idx >= len(data) {
				continue
			}
			rows = append(rows, grid.MaterializedRow{
				Kind:      grid.RowKindData,
				Cells:     data[idx],
				DataIndex: idx,
				GroupID:   node.ID,
				GroupPath: node.Path,
				Level:     node.Level,
			})
		}
	} else {
		for _, child := range node.Children {
			rows = m.appendGroupNode(rows, data, child)
		}
	}

	if m.opts.IncludeSubtotals && len(node.Aggregates) > 0 {
		rows = append(rows, grid.MaterializedRow{
			Kind:      grid.RowKindSubtotal,
			Cells:     subtotalCells(node),
			DataIndex: -1,
			GroupID:   node.ID,
			GroupPath: node.Path,
			Level:     node.Level,
		})
	}

	return rows
}

// groupHeaderCells builds the render payload for a group header entry
func groupHeaderCells(node *grid.GroupNode) grid.Row {
	cells := grid.Row{
		"__groupValue": node.Value,
		"__childCount": float64(len(node.DataIndices)),
	}
	for key, value := range node.Aggregates {
		cells[key] = value
	}
	return cells
}

// subtotalCells builds the render payload for a subtotal entry
func subtotalCells(node *grid.GroupNode) grid.Row {
	cells := grid.Row{
		"__groupValue": node.Value,
	}
	for key, value := range node.Aggregates {
		cells[key] = value
	}
	return cells
}

// GetMaterializedRows is the renderer's read path: it returns the flat row
// list from a completed context, falling back to a default materialization
// when no materialize stage has run.
func GetMaterializedRows(tc *grid.TransformContext) []grid.MaterializedRow {
	if tc == nil {
		return nil
	}
	if tc.Materialized != nil {
		return tc.Materialized
	}
	m := NewMaterializeTransformer(grid.MaterializeOptions{IncludeGroupHeaders: true})
	out, err := m.Transform(context.Background(), tc)
	if err != nil {
		return nil
	}
	return out.Materialized
}
