package transform

import (
	"context"
	"testing"

	"github.com/jook1356/grid-sub001/grid"
)

func filterTestData() []grid.Row {
	return []grid.Row{
		{"name": "alpha", "score": 10.0, "active": true},
		{"name": "Beta", "score": 25.0, "active": false},
		{"name": "gamma", "score": 40.0, "active": true},
		{"name": "delta", "score": nil, "active": true},
	}
}

func runFilter(t *testing.T, filters []grid.FilterState, data []grid.Row) []int {
	t.Helper()
	ft := NewFilterTransformer(filters)
	out, err := ft.Transform(context.Background(), grid.NewTransformContext(data, nil))
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	return out.Indices
}

func TestFilterGreaterThan(t *testing.T) {
	data := filterTestData()
	indices := runFilter(t, []grid.FilterState{
		{ColumnKey: "score", Operator: grid.OpGt, Value: 15.0},
	}, data)

	if len(indices) != 2 || indices[0] != 1 || indices[1] != 2 {
		t.Errorf("Expected surviving indices [1 2], got %v", indices)
	}
}

func TestFilterOperators(t *testing.T) {
	data := filterTestData()

	tests := []struct {
		name     string
		filter   grid.FilterState
		expected []int
	}{
		{
			name:     "Eq case-insensitive string",
			filter:   grid.FilterState{ColumnKey: "name", Operator: grid.OpEq, Value: "BETA"},
			expected: []int{1},
		},
		{
			name:     "Neq",
			filter:   grid.FilterState{ColumnKey: "name", Operator: grid.OpNeq, Value: "alpha"},
			expected: []int{1, 2, 3},
		},
		{
			name:     "Gte includes boundary",
			filter:   grid.FilterState{ColumnKey: "score", Operator: grid.OpGte, Value: 25},
			expected: []int{1, 2},
		},
		{
			name:     "Lt excludes null cells",
			filter:   grid.FilterState{ColumnKey: "score", Operator: grid.OpLt, Value: 100},
			expected: []int{0, 1, 2},
		},
		{
			name:     "Contains case-insensitive",
			filter:   grid.FilterState{ColumnKey: "name", Operator: grid.OpContains, Value: "ET"},
			expected: []int{1},
		},
		{
			name:     "NotContains",
			filter:   grid.FilterState{ColumnKey: "name", Operator: grid.OpNotContains, Value: "a"},
			expected: []int{},
		},
		{
			name:     "StartsWith",
			filter:   grid.FilterState{ColumnKey: "name", Operator: grid.OpStartsWith, Value: "ga"},
			expected: []int{2},
		},
		{
			name:     "EndsWith",
			filter:   grid.FilterState{ColumnKey: "name", Operator: grid.OpEndsWith, Value: "TA"},
			expected: []int{1, 3},
		},
		{
			name:     "Between with secondValue",
			filter:   grid.FilterState{ColumnKey: "score", Operator: grid.OpBetween, Value: 10, SecondValue: 25},
			expected: []int{0, 1},
		},
		{
			name:     "Between with slice operand",
			filter:   grid.FilterState{ColumnKey: "score", Operator: grid.OpBetween, Value: []any{20.0, 50.0}},
			expected: []int{1, 2},
		},
		{
			name:     "IsNull",
			filter:   grid.FilterState{ColumnKey: "score", Operator: grid.OpIsNull},
			expected: []int{3},
		},
		{
			name:     "IsNotNull",
			filter:   grid.FilterState{ColumnKey: "score", Operator: grid.OpIsNotNull},
			expected: []int{0, 1, 2},
		},
		{
			name:     "Gt on string cell fails",
			filter:   grid.FilterState{ColumnKey: "name", Operator: grid.OpGt, Value: 5},
			expected: []int{},
		},
		{
			name:     "Missing column fails non-null operators",
			filter:   grid.FilterState{ColumnKey: "missing", Operator: grid.OpEq, Value: "x"},
			expected: []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			indices := runFilter(t, []grid.FilterState{tt.filter}, data)
			if len(indices) != len(tt.expected) {
				t.Fatalf("Expected indices %v, got %v", tt.expected, indices)
			}
			for i := range indices {
				if indices[i] != tt.expected[i] {
					t.Errorf("Index %d: expected %d, got %d", i, tt.expected[i], indices[i])
				}
			}
		})
	}
}

func TestFilterUnknownOperatorPassesRow(t *testing.T) {
	data := filterTestData()
	indices := runFilter(t, []grid.FilterState{
		{ColumnKey: "name", Operator: "regex", Value: ".*"},
	}, data)

	// Unknown operators are permissive; only null cells fail beforehand
	if len(indices) != 4 {
		t.Errorf("Expected all 4 rows to pass unknown operator, got %v", indices)
	}
}

func TestFilterAndSemantics(t *testing.T) {
	data := filterTestData()
	indices := runFilter(t, []grid.FilterState{
		{ColumnKey: "score", Operator: grid.OpGt, Value: 5},
		{ColumnKey: "active", Operator: grid.OpEq, Value: true},
	}, data)

	if len(indices) != 2 || indices[0] != 0 || indices[1] != 2 {
		t.Errorf("Expected indices [0 2], got %v", indices)
	}
}

func TestFilterPreservesOrderAndComposes(t *testing.T) {
	data := filterTestData()
	ft := NewFilterTransformer([]grid.FilterState{
		{ColumnKey: "score", Operator: grid.OpIsNotNull},
	})

	// Start from a pre-narrowed index set; the filter must narrow it further,
	// not reset to the full range
	tc := grid.NewTransformContext(data, nil)
	tc.Indices = []int{3, 2, 0}

	out, err := ft.Transform(context.Background(), tc)
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if len(out.Indices) != 2 || out.Indices[0] != 2 || out.Indices[1] != 0 {
		t.Errorf("Expected indices [2 0], got %v", out.Indices)
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	data := filterTestData()
	tc := grid.NewTransformContext(data, nil)
	tc.Indices = []int{0, 1, 2, 3}

	ft := NewFilterTransformer([]grid.FilterState{
		{ColumnKey: "score", Operator: grid.OpGt, Value: 15.0},
	})
	if _, err := ft.Transform(context.Background(), tc); err != nil {
		t.Fatalf("Filter failed: %v", err)
	}

	if len(tc.Indices) != 4 {
		t.Errorf("Input context indices were mutated: %v", tc.Indices)
	}
}
