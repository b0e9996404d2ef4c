package fileloader

import (
	"strings"

	"github.com/jook1356/grid-sub001/grid"
)

// buildRowsFromRecords converts raw string records into typed rows under the
// given header. Empty cells become nil; cells in a column where every
// non-empty value parses as a number become float64; booleans likewise.
func buildRowsFromRecords(header []string, records [][]string) ([]grid.Row, []grid.ColumnDef) {
	types := inferColumnTypes(header, records)

	rows := make([]grid.Row, 0, len(records))
	for _, record := range records {
		row := make(grid.Row, len(header))
		for i, key := range header {
			var raw string
			if i < len(record) {
				raw = record[i]
			}
			row[key] = convertCell(raw, types[key])
		}
		rows = append(rows, row)
	}

	return rows, columnDefs(header, types)
}

// inferColumnTypes scans every record once and assigns each column the most
// specific type that fits all its non-empty values
func inferColumnTypes(header []string, records [][]string) map[string]grid.ColumnType {
	types := make(map[string]grid.ColumnType, len(header))

	for i, key := range header {
		allNumber := true
		allBool := true
		seen := false

		for _, record := range records {
			if i >= len(record) {
				continue
			}
			cell := strings.TrimSpace(record[i])
			if cell == "" {
				continue
			}
			seen = true
			if allNumber {
				if _, ok := grid.ParseNumber(cell); !ok {
					allNumber = false
				}
			}
			if allBool && !isBoolLiteral(cell) {
				allBool = false
			}
			if !allNumber && !allBool {
				break
			}
		}

		switch {
		case seen && allNumber:
			types[key] = grid.ColumnNumber
		case seen && allBool:
			types[key] = grid.ColumnBool
		default:
			types[key] = grid.ColumnString
		}
	}

	return types
}

// convertCell turns one raw cell into its typed value. Empty cells are null.
func convertCell(raw string, colType grid.ColumnType) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	switch colType {
	case grid.ColumnNumber:
		if n, ok := grid.ParseNumber(trimmed); ok {
			return n
		}
	case grid.ColumnBool:
		if isBoolLiteral(trimmed) {
			return strings.EqualFold(trimmed, "true")
		}
	}
	return raw
}

func isBoolLiteral(s string) bool {
	return strings.EqualFold(s, "true") || strings.EqualFold(s, "false")
}

// columnDefs builds display definitions for the loaded columns in header
// order
func columnDefs(header []string, types map[string]grid.ColumnType) []grid.ColumnDef {
	defs := make([]grid.ColumnDef, 0, len(header))
	for _, key := range header {
		defs = append(defs, grid.ColumnDef{
			Key:   key,
			Label: key,
			Type:  types[key],
			Width: 120,
		})
	}
	return defs
}
