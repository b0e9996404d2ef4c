package transform

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/jook1356/grid-sub001/grid"
)

// GroupTransformer partitions the context's index set into a forest of
// GroupNode, one tree level per configured group column, with optional
// bottom-up aggregates per node.
type GroupTransformer struct {
	spec        grid.GroupSpec
	collator    *collate.Collator
	runInWorker bool
	name        string
}

// NewGroupTransformer creates a new group stage
func NewGroupTransformer(spec grid.GroupSpec) *GroupTransformer {
	return &GroupTransformer{
		spec:     spec,
		collator: collate.New(language.Und),
		name:     "group",
	}
}

// Name returns the stage name
func (g *GroupTransformer) Name() string { return g.name }

// Phase returns the group stage ordinal
func (g *GroupTransformer) Phase() grid.Phase { return grid.PhaseTransform }

// RunInWorker reports whether this stage runs on the worker sub-sequence
func (g *GroupTransformer) RunInWorker() bool { return g.runInWorker }

// CacheKey returns a fingerprint of the group configuration
func (g *GroupTransformer) CacheKey() string {
	aggParts := make([]string, len(g.spec.Aggregates))
	for i, a := range g.spec.Aggregates {
		aggParts[i] = a.Key()
	}
	return fmt.Sprintf("group:cols=%s:aggs=%s",
		strings.Join(g.spec.Columns, ","), strings.Join(aggParts, ","))
}

// Transform builds the group forest for the current index set
func (g *GroupTransformer) Transform(_ context.Context, tc *grid.TransformContext) (*grid.TransformContext, error) {
	if len(g.spec.Columns) == 0 {
		return tc, nil
	}

	indices := tc.EffectiveIndices()
	roots := g.buildLevel(tc.Data, indices, 0, nil)

	out := tc.Clone()
	out.GroupInfo = &grid.GroupInfo{
		Roots:   roots,
		Columns: g.spec.Columns,
	}
	return out, nil
}

// partitionBucket keeps the raw group value alongside its member indices
type partitionBucket struct {
	value   any
	indices []int
}

// buildLevel partitions indices on the group column at the given level and
// recurses into child levels. Sibling order is locale-aware on the string
// form of the value, with the null bucket last.
func (g *GroupTransformer) buildLevel(data []grid.Row, indices []int, level int, path []any) []*grid.GroupNode {
	columnKey := g.spec.Columns[level]

	// Partition by raw value, remembering first-seen order only for bucket
	// identity; emission order is sorted below
	buckets := make(map[string]*partitionBucket)
	var keys []string
	hasNull := false
	for _, idx := range indices {
		if idx < 0 || idx >= len(data) {
			continue
		}
		value := resolveCell(data[idx], columnKey)
		var key string
		if grid.IsNull(value) {
			key = "\x00null"
			hasNull = true
			value = nil
		} else {
			key = grid.ValueString(value)
		}
		bucket, ok := buckets[key]
		if !ok {
			bucket = &partitionBucket{value: value}
			buckets[key] = bucket
			keys = append(keys, key)
		}
		bucket.indices = append(bucket.indices, idx)
	}

	// Sort sibling groups by the collated string form; the null sentinel
	// sorts after all non-null values
	nonNull := keys[:0]
	for _, k := range keys {
		if k != "\x00null" {
			nonNull = append(nonNull, k)
		}
	}
	g.collator.SortStrings(nonNull)
	ordered := nonNull
	if hasNull {
		ordered = append(ordered, "\x00null")
	}

	nodes := make([]*grid.GroupNode, 0, len(ordered))
	for _, key := range ordered {
		bucket := buckets[key]
		nodePath := make([]any, len(path)+1)
		copy(nodePath, path)
		nodePath[len(path)] = bucket.value

		node := &grid.GroupNode{
			ID:    grid.GroupID(nodePath),
			Value: bucket.value,
			Level: level,
			Path:  nodePath,
		}

		if level == len(g.spec.Columns)-1 {
			// Leaf level owns its partition directly
			node.DataIndices = bucket.indices
		} else {
			node.Children = g.buildLevel(data, bucket.indices, level+1, nodePath)
			// Non-leaf dataIndices is the concatenation of the children's,
			// in child order
			total := 0
			for _, child := range node.Children {
				total += len(child.DataIndices)
			}
			node.DataIndices = make([]int, 0, total)
			for _, child := range node.Children {
				node.DataIndices = append(node.DataIndices, child.DataIndices...)
			}
		}

		if len(g.spec.Aggregates) > 0 {
			node.Aggregates = computeAggregates(data, node.DataIndices, g.spec.Aggregates)
		}

		nodes = append(nodes, node)
	}

	return nodes
}

// computeAggregates evaluates every requested aggregate over the non-null
// values at the given indices. Empty non-null sets yield 0 for sum/count and
// nil for the rest.
func computeAggregates(data []grid.Row, indices []int, specs []grid.AggregateSpec) map[string]any {
	result := make(map[string]any, len(specs))
	for _, spec := range specs {
		result[spec.Key()] = aggregateColumn(data, indices, spec.ColumnKey, spec.Function)
	}
	return result
}

// aggregateColumn computes one aggregate function over a column slice
func aggregateColumn(data []grid.Row, indices []int, columnKey string, fn grid.AggregateFunc) any {
	var (
		sum    float64
		count  int
		minVal any
		maxVal any
		first  any
		last   any
	)

	for _, idx := range indices {
		if idx < 0 || idx >= len(data) {
			continue
		}
		value := data[idx][columnKey]
		if grid.IsNull(value) {
			continue
		}
		if count == 0 {
			first = value
			minVal = value
			maxVal = value
		}
		last = value
		count++
		if n, ok := grid.ValueNumber(value); ok {
			sum += n
		}
		if grid.CompareValues(value, minVal) < 0 {
			minVal = value
		}
		if grid.CompareValues(value, maxVal) > 0 {
			maxVal = value
		}
	}

	switch fn {
	case grid.AggSum:
		return sum
	case grid.AggCount:
		return float64(count)
	case grid.AggAvg:
		if count == 0 {
			return nil
		}
		return sum / float64(count)
	case grid.AggMin:
		return minVal
	case grid.AggMax:
		return maxVal
	case grid.AggFirst:
		return first
	case grid.AggLast:
		return last
	default:
		return nil
	}
}
