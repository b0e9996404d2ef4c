package grid

// Row is a single source record: an immutable mapping of column key to a
// scalar cell value (string, float64/int, bool, time.Time, or nil).
// The engine never mutates caller-supplied rows.
type Row map[string]any

// ColumnType is the logical type of a column
type ColumnType string

const (
	ColumnString ColumnType = "string"
	ColumnNumber ColumnType = "number"
	ColumnBool   ColumnType = "boolean"
	ColumnDate   ColumnType = "date"
)

// ColumnDef describes a single column of the view
type ColumnDef struct {
	Key   string     `json:"key" yaml:"key"`
	Label string     `json:"label" yaml:"label"`
	Type  ColumnType `json:"type" yaml:"type"`
	Width int        `json:"width" yaml:"width"` // Width hint in pixels, 0 means unspecified
}

// FilterOperator identifies a filter predicate
type FilterOperator string

const (
	OpEq          FilterOperator = "eq"
	OpNeq         FilterOperator = "neq"
	OpGt          FilterOperator = "gt"
	OpGte         FilterOperator = "gte"
	OpLt          FilterOperator = "lt"
	OpLte         FilterOperator = "lte"
	OpContains    FilterOperator = "contains"
	OpNotContains FilterOperator = "notContains"
	OpStartsWith  FilterOperator = "startsWith"
	OpEndsWith    FilterOperator = "endsWith"
	OpBetween     FilterOperator = "between"
	OpIsNull      FilterOperator = "isNull"
	OpIsNotNull   FilterOperator = "isNotNull"
)

// FilterState is one filter condition. All configured filters must pass for a
// row to survive (AND semantics).
// For OpBetween, Value holds the lower bound and SecondValue the upper bound;
// a two-element slice in Value is also accepted.
type FilterState struct {
	ColumnKey   string         `json:"columnKey" yaml:"column"`
	Operator    FilterOperator `json:"operator" yaml:"operator"`
	Value       any            `json:"value" yaml:"value"`
	SecondValue any            `json:"secondValue,omitempty" yaml:"secondValue,omitempty"`
}

// SortDirection represents sort order
type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// SortState is one sort key. Earlier entries take priority, later entries
// break ties.
type SortState struct {
	ColumnKey string        `json:"columnKey" yaml:"column"`
	Direction SortDirection `json:"direction" yaml:"direction"`
}

// Descending reports whether this key sorts in descending order
func (s SortState) Descending() bool {
	return s.Direction == SortDescending
}

// AggregateFunc identifies an aggregate function for group and pivot stages
type AggregateFunc string

const (
	AggSum   AggregateFunc = "sum"
	AggAvg   AggregateFunc = "avg"
	AggMin   AggregateFunc = "min"
	AggMax   AggregateFunc = "max"
	AggCount AggregateFunc = "count"
	AggFirst AggregateFunc = "first"
	AggLast  AggregateFunc = "last"
)

// AggregateSpec requests one aggregate per group node, stored under the key
// "<columnKey>_<function>" in GroupNode.Aggregates
type AggregateSpec struct {
	ColumnKey string        `json:"columnKey" yaml:"column"`
	Function  AggregateFunc `json:"function" yaml:"function"`
}

// Key returns the aggregate result key for this spec
func (a AggregateSpec) Key() string {
	return a.ColumnKey + "_" + string(a.Function)
}

// GroupSpec configures hierarchical grouping. Columns[0] is the top level.
type GroupSpec struct {
	Columns    []string        `json:"groupColumns" yaml:"columns"`
	Aggregates []AggregateSpec `json:"aggregates,omitempty" yaml:"aggregates,omitempty"`
}

// ValueField is one measure of a pivot: the source field and how to
// aggregate it into each generated cell
type ValueField struct {
	Field     string        `json:"field" yaml:"field"`
	Aggregate AggregateFunc `json:"aggregate" yaml:"aggregate"`
	Label     string        `json:"label,omitempty" yaml:"label,omitempty"`
}

// PivotSpec configures the pivot stage. RowFields become the leading output
// columns; the cartesian product of ColumnFields' observed values crossed
// with ValueFields generates the remaining columns.
type PivotSpec struct {
	RowFields    []string     `json:"rowFields" yaml:"rowFields"`
	ColumnFields []string     `json:"columnFields" yaml:"columnFields"`
	ValueFields  []ValueField `json:"valueFields" yaml:"valueFields"`
}

// MaterializeOptions controls how grouped results are flattened.
// Collapsed is an externally supplied set of group ids whose subtrees are
// skipped when RespectCollapsed is set; collapse state is never stored on the
// group tree itself.
type MaterializeOptions struct {
	IncludeGroupHeaders bool            `json:"includeGroupHeaders" yaml:"includeGroupHeaders"`
	IncludeSubtotals    bool            `json:"includeSubtotals" yaml:"includeSubtotals"`
	RespectCollapsed    bool            `json:"respectCollapsed" yaml:"respectCollapsed"`
	Collapsed           map[string]bool `json:"collapsed,omitempty" yaml:"collapsed,omitempty"`
}

// ViewConfig is the full declarative view configuration. Group and Pivot are
// mutually exclusive transform modes; when Pivot has column fields the group
// spec is ignored.
type ViewConfig struct {
	Filters     []FilterState      `json:"filters,omitempty" yaml:"filters,omitempty"`
	Sorts       []SortState        `json:"sorts,omitempty" yaml:"sorts,omitempty"`
	Group       *GroupSpec         `json:"group,omitempty" yaml:"group,omitempty"`
	Pivot       *PivotSpec         `json:"pivot,omitempty" yaml:"pivot,omitempty"`
	Materialize MaterializeOptions `json:"materialize" yaml:"materialize"`
}

// PivotActive reports whether the pivot mode is configured with at least one
// column field (an empty columnFields list makes the pivot stage a no-op)
func (v *ViewConfig) PivotActive() bool {
	return v.Pivot != nil && len(v.Pivot.ColumnFields) > 0
}

// MaterializedRowKind distinguishes the flat row kinds emitted by the
// materialize stage
type MaterializedRowKind string

const (
	RowKindData        MaterializedRowKind = "data"
	RowKindGroupHeader MaterializedRowKind = "groupHeader"
	RowKindSubtotal    MaterializedRowKind = "subtotal"
)

// MaterializedRow is the final render-ready row descriptor. DataIndex is the
// offset into the source data for RowKindData rows, -1 otherwise.
type MaterializedRow struct {
	Kind      MaterializedRowKind `json:"kind"`
	Cells     Row                 `json:"cells"`
	DataIndex int                 `json:"dataIndex"`
	GroupID   string              `json:"groupId,omitempty"`
	GroupPath []any               `json:"groupPath,omitempty"`
	Level     int                 `json:"level"`
}
