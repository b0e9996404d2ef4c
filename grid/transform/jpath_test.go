package transform

import (
	"testing"

	"github.com/jook1356/grid-sub001/grid"
)

func TestParseColumnJPath(t *testing.T) {
	tests := []struct {
		name        string
		ref         string
		expectedKey string
		expectedExp string
		expectedOK  bool
	}{
		{
			name:        "Plain column",
			ref:         "username",
			expectedKey: "username",
			expectedOK:  false,
		},
		{
			name:        "Column with path",
			ref:         "payload{$.duration}",
			expectedKey: "payload",
			expectedExp: "$.duration",
			expectedOK:  true,
		},
		{
			name:        "Nested braces keep outermost",
			ref:         "payload{$.items[?(@.id=={1})]}",
			expectedKey: "payload",
			expectedExp: "$.items[?(@.id=={1})]",
			expectedOK:  true,
		},
		{
			name:        "Unclosed brace treated as plain",
			ref:         "payload{$.x",
			expectedKey: "payload{$.x",
			expectedOK:  false,
		},
		{
			name:        "Empty expression treated as plain",
			ref:         "payload{}",
			expectedKey: "payload{}",
			expectedOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, expr, ok := parseColumnJPath(tt.ref)
			if ok != tt.expectedOK {
				t.Fatalf("Expected ok=%v, got %v", tt.expectedOK, ok)
			}
			if key != tt.expectedKey {
				t.Errorf("Expected key %q, got %q", tt.expectedKey, key)
			}
			if expr != tt.expectedExp {
				t.Errorf("Expected expr %q, got %q", tt.expectedExp, expr)
			}
		})
	}
}

func TestResolveCellWithJPath(t *testing.T) {
	row := grid.Row{
		"plain":   "value",
		"payload": `{"duration": 42, "tags": ["a", "b"], "nested": {"deep": true}}`,
		"broken":  "{not json",
	}

	tests := []struct {
		name     string
		ref      string
		expected any
	}{
		{name: "Plain column", ref: "plain", expected: "value"},
		{name: "Scalar extraction", ref: "payload{$.duration}", expected: int64(42)},
		{name: "Missing path resolves nil", ref: "payload{$.absent}", expected: nil},
		{name: "Missing column resolves nil", ref: "ghost{$.x}", expected: nil},
		{name: "Broken JSON resolves nil", ref: "broken{$.x}", expected: nil},
		{name: "Array re-encoded as JSON", ref: "payload{$.tags}", expected: `["a","b"]`},
		{name: "Object re-encoded as JSON", ref: "payload{$.nested}", expected: `{"deep":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveCell(row, tt.ref)
			if got != tt.expected {
				t.Errorf("Expected %v (%T), got %v (%T)", tt.expected, tt.expected, got, got)
			}
		})
	}
}

func TestFilterOnComputedColumn(t *testing.T) {
	data := []grid.Row{
		{"payload": `{"duration": 10}`},
		{"payload": `{"duration": 90}`},
		{"payload": `{"other": 1}`},
	}
	indices := runFilter(t, []grid.FilterState{
		{ColumnKey: "payload{$.duration}", Operator: grid.OpGt, Value: 50},
	}, data)

	if len(indices) != 1 || indices[0] != 1 {
		t.Errorf("Expected only index 1 to survive, got %v", indices)
	}
}
