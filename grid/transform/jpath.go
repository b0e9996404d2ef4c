package transform

import (
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/jook1356/grid-sub001/grid"
)

// parseColumnJPath splits a column reference that may carry a JPath
// expression. Returns columnKey, jpathExpr, hasJPath.
// Example: "requestParameters{$.durationSeconds}" -> "requestParameters", "$.durationSeconds", true
func parseColumnJPath(ref string) (string, string, bool) {
	openBrace := strings.Index(ref, "{")
	if openBrace == -1 {
		return ref, "", false
	}

	closeBrace := strings.LastIndex(ref, "}")
	if closeBrace == -1 || closeBrace <= openBrace {
		return ref, "", false
	}

	columnKey := strings.TrimSpace(ref[:openBrace])
	jpathExpr := strings.TrimSpace(ref[openBrace+1 : closeBrace])

	if columnKey == "" || jpathExpr == "" {
		return ref, "", false
	}

	return columnKey, jpathExpr, true
}

// evaluateColumnJPath extracts a value from a JSON-bearing cell using a JPath
// expression. The result stays a scalar where possible; objects and arrays
// are re-encoded as JSON strings.
func evaluateColumnJPath(cell any, jpathExpr string) (any, bool) {
	jsonValue, ok := cell.(string)
	if !ok || jsonValue == "" || jpathExpr == "" {
		return nil, false
	}

	data, err := oj.ParseString(jsonValue)
	if err != nil {
		return nil, false
	}

	path, err := jp.ParseString(jpathExpr)
	if err != nil {
		return nil, false
	}

	results := path.Get(data)
	if len(results) == 0 {
		return nil, false
	}

	switch v := results[0].(type) {
	case string, float64, int64, int, bool, nil:
		return v, true
	case map[string]any, []any:
		encoded, err := oj.Marshal(v)
		if err != nil {
			return nil, false
		}
		return string(encoded), true
	default:
		return grid.ValueString(v), true
	}
}

// resolveCell reads a cell through a column reference, applying the JPath
// expression when one is present. Missing columns and failed extractions
// resolve to nil.
func resolveCell(row grid.Row, ref string) any {
	columnKey, jpathExpr, hasJPath := parseColumnJPath(ref)
	cell, ok := row[columnKey]
	if !ok {
		return nil
	}
	if !hasJPath {
		return cell
	}
	extracted, ok := evaluateColumnJPath(cell, jpathExpr)
	if !ok {
		return nil
	}
	return extracted
}
