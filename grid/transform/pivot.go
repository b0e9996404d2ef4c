package transform

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jook1356/grid-sub001/grid"
)

// rowKeySeparator joins rowFields values into a pivot row identity.
// NUL never occurs in cell text, so joined keys cannot collide.
const rowKeySeparator = "\x00"

// colKeySeparator joins columnFields values into generated column keys
const colKeySeparator = "_"

// PivotTransformer reshapes the current rows into a wide table: one output
// row per distinct rowFields combination, one generated column per entry of
// the cartesian product of columnFields' observed values crossed with the
// configured value fields.
type PivotTransformer struct {
	spec        grid.PivotSpec
	titler      cases.Caser
	runInWorker bool
	name        string
}

// NewPivotTransformer creates a new pivot stage
func NewPivotTransformer(spec grid.PivotSpec) *PivotTransformer {
	return &PivotTransformer{
		spec:   spec,
		titler: cases.Title(language.Und),
		name:   "pivot",
	}
}

// Name returns the stage name
func (p *PivotTransformer) Name() string { return p.name }

// Phase returns the pivot stage ordinal
func (p *PivotTransformer) Phase() grid.Phase { return grid.PhaseTransform }

// RunInWorker reports whether this stage runs on the worker sub-sequence
func (p *PivotTransformer) RunInWorker() bool { return p.runInWorker }

// CacheKey returns a fingerprint of the pivot configuration
func (p *PivotTransformer) CacheKey() string {
	vfParts := make([]string, len(p.spec.ValueFields))
	for i, vf := range p.spec.ValueFields {
		vfParts[i] = fmt.Sprintf("%s:%s", vf.Field, vf.Aggregate)
	}
	return fmt.Sprintf("pivot:rows=%s:cols=%s:vals=%s",
		strings.Join(p.spec.RowFields, ","),
		strings.Join(p.spec.ColumnFields, ","),
		strings.Join(vfParts, ","))
}

// pivotAccumulator holds running aggregate state for one output cell
type pivotAccumulator struct {
	sum   float64
	count int
	min   float64
	max   float64
}

// Transform builds the pivot result. An empty columnFields list makes the
// stage a no-op and the context is returned unchanged.
func (p *PivotTransformer) Transform(_ context.Context, tc *grid.TransformContext) (*grid.TransformContext, error) {
	if len(p.spec.ColumnFields) == 0 {
		return tc, nil
	}

	indices := tc.EffectiveIndices()

	// Pass 1: bucket rows by rowKey, accumulate aggregates per
	// (rowKey, colKey, valueField) cell and collect the distinct observed
	// values per columnField position
	rowOrder := []string{}
	rowValues := map[string][]any{}
	rowSources := map[string][]int{}
	cells := map[string]map[string]*pivotAccumulator{}
	distinct := make([]map[string]bool, len(p.spec.ColumnFields))
	for i := range distinct {
		distinct[i] = map[string]bool{}
	}

	for _, idx := range indices {
		if idx < 0 || idx >= len(tc.Data) {
			continue
		}
		row := tc.Data[idx]

		rowFieldValues := make([]any, len(p.spec.RowFields))
		rowKeyParts := make([]string, len(p.spec.RowFields))
		for i, field := range p.spec.RowFields {
			rowFieldValues[i] = row[field]
			rowKeyParts[i] = grid.ValueString(row[field])
		}
		rowKey := strings.Join(rowKeyParts, rowKeySeparator)

		colKeyParts := make([]string, len(p.spec.ColumnFields))
		for i, field := range p.spec.ColumnFields {
			part := grid.ValueString(row[field])
			colKeyParts[i] = part
			distinct[i][part] = true
		}
		colKey := strings.Join(colKeyParts, colKeySeparator)

		if _, seen := cells[rowKey]; !seen {
			rowOrder = append(rowOrder, rowKey)
			rowValues[rowKey] = rowFieldValues
			cells[rowKey] = map[string]*pivotAccumulator{}
		}
		rowSources[rowKey] = append(rowSources[rowKey], idx)

		for _, vf := range p.spec.ValueFields {
			// Non-numeric and null values are skipped, not coerced
			n, ok := grid.ValueNumber(row[vf.Field])
			if !ok {
				continue
			}
			cellKey := colKey + colKeySeparator + vf.Field
			acc, seen := cells[rowKey][cellKey]
			if !seen {
				acc = &pivotAccumulator{min: math.Inf(1), max: math.Inf(-1)}
				cells[rowKey][cellKey] = acc
			}
			acc.sum += n
			acc.count++
			if n < acc.min {
				acc.min = n
			}
			if n > acc.max {
				acc.max = n
			}
		}
	}

	// Pass 2: generate the output column-key set as the cartesian product of
	// each columnField's sorted distinct values, crossed with the value
	// fields in declaration order
	generated := p.generateColumns(distinct)

	// Pass 3: emit one output row per rowKey, resolving each generated cell
	// (nil where no value was accumulated)
	outRows := make([]grid.Row, 0, len(rowOrder))
	sourceIndices := make([][]int, 0, len(rowOrder))
	for _, rowKey := range rowOrder {
		out := make(grid.Row, len(p.spec.RowFields)+len(generated))
		for i, field := range p.spec.RowFields {
			out[field] = rowValues[rowKey][i]
		}
		for _, col := range generated {
			out[col.key] = resolvePivotCell(cells[rowKey][col.key], col.aggregate)
		}
		outRows = append(outRows, out)
		sourceIndices = append(sourceIndices, rowSources[rowKey])
	}

	// Row-field columns first, then the generated value columns
	columns := make([]grid.ColumnDef, 0, len(p.spec.RowFields)+len(generated))
	for _, field := range p.spec.RowFields {
		columns = append(columns, grid.ColumnDef{
			Key:   field,
			Label: p.titleFromKey(field),
			Type:  grid.ColumnString,
			Width: 120,
		})
	}
	for _, col := range generated {
		columns = append(columns, grid.ColumnDef{
			Key:   col.key,
			Label: col.label,
			Type:  grid.ColumnNumber,
			Width: 100,
		})
	}

	out := tc.Clone()
	out.PivotResult = &grid.PivotResult{
		Rows:          outRows,
		Columns:       columns,
		SourceIndices: sourceIndices,
	}
	return out, nil
}

// generatedColumn is one dynamically generated output column
type generatedColumn struct {
	key       string
	label     string
	aggregate grid.AggregateFunc
}

// generateColumns crosses the sorted distinct value lists of every
// columnField with the configured value fields. An empty valueFields list
// produces no generated columns (row-field-only output).
func (p *PivotTransformer) generateColumns(distinct []map[string]bool) []generatedColumn {
	if len(p.spec.ValueFields) == 0 {
		return nil
	}

	sorted := make([][]string, len(distinct))
	for i, set := range distinct {
		values := make([]string, 0, len(set))
		for v := range set {
			values = append(values, v)
		}
		sort.Strings(values)
		sorted[i] = values
	}

	// Cartesian product in columnField declaration order
	combos := []string{""}
	for _, values := range sorted {
		next := make([]string, 0, len(combos)*len(values))
		for _, prefix := range combos {
			for _, v := range values {
				if prefix == "" {
					next = append(next, v)
				} else {
					next = append(next, prefix+colKeySeparator+v)
				}
			}
		}
		combos = next
	}

	columns := make([]generatedColumn, 0, len(combos)*len(p.spec.ValueFields))
	for _, combo := range combos {
		for _, vf := range p.spec.ValueFields {
			key := combo + colKeySeparator + vf.Field
			label := p.titleFromKey(key)
			if vf.Label != "" {
				label = strings.ReplaceAll(combo, colKeySeparator, " ") + " " + vf.Label
			}
			columns = append(columns, generatedColumn{
				key:       key,
				label:     label,
				aggregate: vf.Aggregate,
			})
		}
	}
	return columns
}

// titleFromKey derives a display label by splitting a key on underscores and
// Title-Casing each part
func (p *PivotTransformer) titleFromKey(key string) string {
	parts := strings.Split(key, colKeySeparator)
	for i, part := range parts {
		parts[i] = p.titler.String(part)
	}
	return strings.Join(parts, " ")
}

// resolvePivotCell finalizes one accumulated cell for emission
func resolvePivotCell(acc *pivotAccumulator, fn grid.AggregateFunc) any {
	if acc == nil || acc.count == 0 {
		return nil
	}
	switch fn {
	case grid.AggSum:
		return acc.sum
	case grid.AggCount:
		return float64(acc.count)
	case grid.AggAvg:
		return acc.sum / float64(acc.count)
	case grid.AggMin:
		return acc.min
	case grid.AggMax:
		return acc.max
	default:
		return nil
	}
}
