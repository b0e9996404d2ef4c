package transform

import (
	"context"
	"testing"

	"github.com/jook1356/grid-sub001/grid"
)

func materializeGrouped(t *testing.T, data []grid.Row, spec grid.GroupSpec, opts grid.MaterializeOptions) []grid.MaterializedRow {
	t.Helper()
	gt := NewGroupTransformer(spec)
	tc, err := gt.Transform(context.Background(), grid.NewTransformContext(data, nil))
	if err != nil {
		t.Fatalf("Group failed: %v", err)
	}
	mt := NewMaterializeTransformer(opts)
	out, err := mt.Transform(context.Background(), tc)
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}
	return out.Materialized
}

func TestMaterializePlainData(t *testing.T) {
	data := []grid.Row{{"a": 1.0}, {"a": 2.0}}
	mt := NewMaterializeTransformer(grid.MaterializeOptions{})
	out, err := mt.Transform(context.Background(), grid.NewTransformContext(data, nil))
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}

	if len(out.Materialized) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(out.Materialized))
	}
	for i, row := range out.Materialized {
		if row.Kind != grid.RowKindData {
			t.Errorf("Row %d: expected data kind, got %s", i, row.Kind)
		}
		if row.DataIndex != i {
			t.Errorf("Row %d: expected data index %d, got %d", i, i, row.DataIndex)
		}
	}
}

func TestMaterializeFilteredIndices(t *testing.T) {
	data := []grid.Row{{"a": 1.0}, {"a": 2.0}, {"a": 3.0}}
	tc := grid.NewTransformContext(data, nil)
	tc.Indices = []int{2, 0}

	mt := NewMaterializeTransformer(grid.MaterializeOptions{})
	out, err := mt.Transform(context.Background(), tc)
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}

	if len(out.Materialized) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(out.Materialized))
	}
	if out.Materialized[0].DataIndex != 2 || out.Materialized[1].DataIndex != 0 {
		t.Errorf("Expected data indices [2 0], got [%d %d]",
			out.Materialized[0].DataIndex, out.Materialized[1].DataIndex)
	}
}

func TestMaterializeGroupHeadersAndSubtotals(t *testing.T) {
	data := []grid.Row{
		{"cat": "A", "val": 10.0},
		{"cat": "B", "val": 5.0},
		{"cat": "A", "val": 20.0},
	}
	rows := materializeGrouped(t, data,
		grid.GroupSpec{
			Columns:    []string{"cat"},
			Aggregates: []grid.AggregateSpec{{ColumnKey: "val", Function: grid.AggSum}},
		},
		grid.MaterializeOptions{IncludeGroupHeaders: true, IncludeSubtotals: true},
	)

	// A: header, 2 data, subtotal; B: header, 1 data, subtotal
	kinds := []grid.MaterializedRowKind{
		grid.RowKindGroupHeader, grid.RowKindData, grid.RowKindData, grid.RowKindSubtotal,
		grid.RowKindGroupHeader, grid.RowKindData, grid.RowKindSubtotal,
	}
	if len(rows) != len(kinds) {
		t.Fatalf("Expected %d rows, got %d", len(kinds), len(rows))
	}
	for i, kind := range kinds {
		if rows[i].Kind != kind {
			t.Errorf("Row %d: expected %s, got %s", i, kind, rows[i].Kind)
		}
	}

	header := rows[0]
	if header.Cells["__groupValue"] != "A" {
		t.Errorf("Expected header group value A, got %v", header.Cells["__groupValue"])
	}
	if header.Cells["__childCount"] != 2.0 {
		t.Errorf("Expected child count 2, got %v", header.Cells["__childCount"])
	}
	if header.DataIndex != -1 {
		t.Errorf("Expected header data index -1, got %d", header.DataIndex)
	}
	if header.Cells["val_sum"] != 30.0 {
		t.Errorf("Expected header aggregate 30, got %v", header.Cells["val_sum"])
	}

	subtotal := rows[3]
	if subtotal.Cells["val_sum"] != 30.0 {
		t.Errorf("Expected subtotal 30, got %v", subtotal.Cells["val_sum"])
	}

	// Data rows carry their group identity
	if rows[1].GroupID != "A" || rows[1].DataIndex != 0 {
		t.Errorf("Expected first data row in group A at index 0, got %q index %d",
			rows[1].GroupID, rows[1].DataIndex)
	}
}

func TestMaterializeCollapsedGroupKeepsHeader(t *testing.T) {
	data := []grid.Row{
		{"cat": "A", "val": 10.0},
		{"cat": "B", "val": 5.0},
	}
	rows := materializeGrouped(t, data,
		grid.GroupSpec{Columns: []string{"cat"}},
		grid.MaterializeOptions{
			IncludeGroupHeaders: true,
			RespectCollapsed:    true,
			Collapsed:           map[string]bool{"A": true},
		},
	)

	// A collapsed: header only; B expanded: header + data
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	if rows[0].Kind != grid.RowKindGroupHeader || rows[0].GroupID != "A" {
		t.Errorf("Expected collapsed A header first, got %s %q", rows[0].Kind, rows[0].GroupID)
	}
	if rows[1].Kind != grid.RowKindGroupHeader || rows[1].GroupID != "B" {
		t.Errorf("Expected B header second, got %s %q", rows[1].Kind, rows[1].GroupID)
	}
	if rows[2].Kind != grid.RowKindData {
		t.Errorf("Expected B data row last, got %s", rows[2].Kind)
	}
}

func TestMaterializePivotTakesPriority(t *testing.T) {
	data := pivotTestData()
	pt := NewPivotTransformer(grid.PivotSpec{
		RowFields:    []string{"dept"},
		ColumnFields: []string{"year"},
		ValueFields:  []grid.ValueField{{Field: "sales", Aggregate: grid.AggSum}},
	})
	tc, err := pt.Transform(context.Background(), grid.NewTransformContext(data, nil))
	if err != nil {
		t.Fatalf("Pivot failed: %v", err)
	}
	// A stale group result must lose to the pivot result
	tc.GroupInfo = &grid.GroupInfo{}

	mt := NewMaterializeTransformer(grid.MaterializeOptions{})
	out, err := mt.Transform(context.Background(), tc)
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}

	if len(out.Materialized) != 2 {
		t.Fatalf("Expected 2 pivot rows, got %d", len(out.Materialized))
	}
	// DataIndex for pivot rows is the ordinal within the pivot result
	for i, row := range out.Materialized {
		if row.DataIndex != i {
			t.Errorf("Row %d: expected pivot ordinal %d, got %d", i, i, row.DataIndex)
		}
	}
	if out.Materialized[0].Cells["dept"] != "eng" {
		t.Errorf("Expected first pivot row eng, got %v", out.Materialized[0].Cells["dept"])
	}
}

func TestGetMaterializedRowsFallback(t *testing.T) {
	data := []grid.Row{{"a": 1.0}}
	tc := grid.NewTransformContext(data, nil)

	rows := GetMaterializedRows(tc)
	if len(rows) != 1 || rows[0].Kind != grid.RowKindData {
		t.Errorf("Expected default materialization of 1 data row, got %v", rows)
	}

	if GetMaterializedRows(nil) != nil {
		t.Error("Expected nil for nil context")
	}
}
