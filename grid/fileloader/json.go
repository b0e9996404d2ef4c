package fileloader

import (
	"fmt"
	"sort"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/jook1356/grid-sub001/grid"
)

// JSON parsing. The document (or the node selected by a JPath expression)
// must be an array of objects; each object becomes one row. Nested objects
// and arrays are kept as-is so path-based computed columns can reach into
// them later.

// loadJSONFromBytes parses JSON data in memory into a typed result
func loadJSONFromBytes(data []byte, options Options) (*LoadResult, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("data is empty")
	}

	parsed, err := oj.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	node := parsed
	if options.JPath != "" {
		expr, err := jp.ParseString(options.JPath)
		if err != nil {
			return nil, fmt.Errorf("invalid JSON path %q: %w", options.JPath, err)
		}
		results := expr.Get(parsed)
		switch len(results) {
		case 0:
			return nil, fmt.Errorf("JSON path %q matched nothing; available keys: %v", options.JPath, topLevelKeys(parsed))
		case 1:
			node = results[0]
		default:
			// Multiple matches form the record array themselves
			anyResults := make([]any, len(results))
			copy(anyResults, results)
			node = anyResults
		}
	}

	records, ok := node.([]any)
	if !ok {
		return nil, fmt.Errorf("JSON root is not an array (got %T); use a JSON path to select the record array", node)
	}

	var header []string
	seen := make(map[string]bool)
	rows := make([]grid.Row, 0, len(records))

	for _, record := range records {
		obj, ok := record.(map[string]any)
		if !ok {
			// Scalar or array entries get a single synthetic column
			obj = map[string]any{"value": record}
		}

		// Column order follows first appearance, with each object's new keys
		// appended in sorted order for determinism
		var newKeys []string
		for key := range obj {
			if !seen[key] {
				newKeys = append(newKeys, key)
			}
		}
		sort.Strings(newKeys)
		for _, key := range newKeys {
			seen[key] = true
			header = append(header, key)
		}

		row := make(grid.Row, len(obj))
		for key, value := range obj {
			row[key] = normalizeJSONValue(value)
		}
		rows = append(rows, row)
	}

	return &LoadResult{Rows: rows, Columns: inferColumnDefsFromRows(header, rows)}, nil
}

// normalizeJSONValue widens integer types so all numeric cells share one
// representation
func normalizeJSONValue(value any) any {
	switch v := value.(type) {
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return value
}

// inferColumnDefsFromRows assigns column types from already-typed cells
func inferColumnDefsFromRows(header []string, rows []grid.Row) []grid.ColumnDef {
	defs := make([]grid.ColumnDef, 0, len(header))
	for _, key := range header {
		colType := grid.ColumnString
		seen := false
		allNumber := true
		allBool := true

		for _, row := range rows {
			value := row[key]
			if grid.IsNull(value) {
				continue
			}
			seen = true
			if _, ok := grid.ValueNumber(value); !ok {
				allNumber = false
			}
			if _, ok := value.(bool); !ok {
				allBool = false
			}
			if !allNumber && !allBool {
				break
			}
		}

		switch {
		case seen && allNumber:
			colType = grid.ColumnNumber
		case seen && allBool:
			colType = grid.ColumnBool
		}

		defs = append(defs, grid.ColumnDef{Key: key, Label: key, Type: colType, Width: 120})
	}
	return defs
}

// topLevelKeys lists the keys available at the document root, for error
// messages when a JSON path misses
func topLevelKeys(node any) []string {
	obj, ok := node.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
