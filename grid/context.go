package grid

import "strings"

// Phase is a fixed stage ordinal controlling execution order. Transformers
// are run in ascending phase order; the cache layer keeps one snapshot slot
// per phase.
type Phase int

const (
	PhasePreTransform Phase = iota
	PhaseSort
	PhaseTransform
	PhasePostTransform
	PhaseMaterialize
)

// PhaseCount is the number of defined phases (and cache slots)
const PhaseCount = 5

var phaseNames = [PhaseCount]string{
	"PRE_TRANSFORM",
	"SORT",
	"TRANSFORM",
	"POST_TRANSFORM",
	"MATERIALIZE",
}

// String returns the phase name for logging
func (p Phase) String() string {
	if p < 0 || int(p) >= PhaseCount {
		return "UNKNOWN"
	}
	return phaseNames[p]
}

// GroupNode is one node of the hierarchical grouping tree. Leaves own a
// partition of source row indices; a non-leaf's DataIndices is the
// concatenation, in child order, of its children's DataIndices.
type GroupNode struct {
	ID          string       `json:"id"`
	Value       any          `json:"value"`
	Level       int          `json:"level"`
	Path        []any        `json:"path"`
	Children    []*GroupNode `json:"children,omitempty"`
	DataIndices []int        `json:"dataIndices"`
	Aggregates  map[string]any `json:"aggregates,omitempty"`
}

// IsLeaf reports whether this node is at the deepest configured group level
func (n *GroupNode) IsLeaf() bool {
	return len(n.Children) == 0
}

// GroupIDSeparator joins path values into stable group ids
const GroupIDSeparator = "|||"

// GroupID derives the stable identity of a group from its value path.
// Nil path values map to the literal "null" so the id survives re-grouping
// as long as the value sequence is unchanged.
func GroupID(path []any) string {
	parts := make([]string, len(path))
	for i, v := range path {
		if v == nil {
			parts[i] = "null"
		} else {
			parts[i] = ValueString(v)
		}
	}
	return strings.Join(parts, GroupIDSeparator)
}

// GroupInfo is the group stage's output: the root forest plus the column
// keys it was partitioned on
type GroupInfo struct {
	Roots   []*GroupNode `json:"roots"`
	Columns []string     `json:"columns"`
}

// PivotResult is the pivot stage's output. Rows holds one output row per
// distinct rowFields value-combination; SourceIndices maps each output row to
// the source indices that contributed to it.
type PivotResult struct {
	Rows          []Row       `json:"rows"`
	Columns       []ColumnDef `json:"columns"`
	SourceIndices [][]int     `json:"sourceIndices,omitempty"`
}

// TransformContext is the value threaded through the pipeline. Data and
// Columns are shared by reference with the caller and never mutated; Indices,
// GroupInfo, PivotResult and Materialized are stage-owned outputs.
// A nil Indices means "all rows, in original order".
type TransformContext struct {
	Data         []Row
	Indices      []int
	Columns      []ColumnDef
	GroupInfo    *GroupInfo
	PivotResult  *PivotResult
	Materialized []MaterializedRow
	Metadata     map[string]any
}

// NewTransformContext creates a fresh context for one pipeline run
func NewTransformContext(data []Row, columns []ColumnDef) *TransformContext {
	return &TransformContext{
		Data:    data,
		Columns: columns,
	}
}

// EffectiveIndices returns the current index set, materializing the implicit
// full range when no stage has produced one yet
func (c *TransformContext) EffectiveIndices() []int {
	if c.Indices != nil {
		return c.Indices
	}
	indices := make([]int, len(c.Data))
	for i := range indices {
		indices[i] = i
	}
	return indices
}

// Clone returns a shallow copy of the context. Data and columns stay shared;
// stage outputs are carried over so a resumed pipeline can build on them.
func (c *TransformContext) Clone() *TransformContext {
	clone := *c
	return &clone
}
