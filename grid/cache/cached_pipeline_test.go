package cache

import (
	"context"
	"testing"

	"github.com/jook1356/grid-sub001/grid"
	"github.com/jook1356/grid-sub001/grid/transform"
)

// countingTransformer wraps a stage and counts its executions
type countingTransformer struct {
	transform.Transformer
	runs map[string]int
}

func (c *countingTransformer) Transform(ctx context.Context, tc *grid.TransformContext) (*grid.TransformContext, error) {
	c.runs[c.Name()]++
	return c.Transformer.Transform(ctx, tc)
}

// countingFactory wraps DefaultFactory so tests can assert which stages ran
type countingFactory struct {
	inner transform.DefaultFactory
	runs  map[string]int
}

func newCountingFactory() *countingFactory {
	return &countingFactory{runs: make(map[string]int)}
}

func (f *countingFactory) wrap(t transform.Transformer) transform.Transformer {
	if t == nil {
		return nil
	}
	return &countingTransformer{Transformer: t, runs: f.runs}
}

func (f *countingFactory) CreateFilterTransformer(filters []grid.FilterState) transform.Transformer {
	return f.wrap(f.inner.CreateFilterTransformer(filters))
}

func (f *countingFactory) CreateSortTransformer(sorts []grid.SortState) transform.Transformer {
	return f.wrap(f.inner.CreateSortTransformer(sorts))
}

func (f *countingFactory) CreateGroupTransformer(spec grid.GroupSpec) transform.Transformer {
	return f.wrap(f.inner.CreateGroupTransformer(spec))
}

func (f *countingFactory) CreatePivotTransformer(spec grid.PivotSpec) transform.Transformer {
	return f.wrap(f.inner.CreatePivotTransformer(spec))
}

func (f *countingFactory) CreateMaterializeTransformer(opts grid.MaterializeOptions) transform.Transformer {
	return f.wrap(f.inner.CreateMaterializeTransformer(opts))
}

func cacheTestData() []grid.Row {
	return []grid.Row{
		{"cat": "A", "val": 10.0},
		{"cat": "B", "val": 5.0},
		{"cat": "A", "val": 20.0},
	}
}

func TestExecuteUnchangedConfigIsFullHit(t *testing.T) {
	cp := NewCachedPipeline()
	cp.SetData(cacheTestData(), nil)
	factory := newCountingFactory()
	cfg := &grid.ViewConfig{
		Filters: []grid.FilterState{{ColumnKey: "val", Operator: grid.OpGt, Value: 1}},
	}

	first, err := cp.Execute(context.Background(), cfg, factory)
	if err != nil {
		t.Fatalf("First execute failed: %v", err)
	}
	second, err := cp.Execute(context.Background(), cfg, factory)
	if err != nil {
		t.Fatalf("Second execute failed: %v", err)
	}

	stats := cp.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Expected 1 hit and 1 miss, got %+v", stats)
	}
	if factory.runs["filter"] != 1 || factory.runs["materialize"] != 1 {
		t.Errorf("Expected each stage to run exactly once, got %v", factory.runs)
	}
	if len(second.Context.Materialized) != len(first.Context.Materialized) {
		t.Errorf("Expected identical materialized output, got %d vs %d rows",
			len(second.Context.Materialized), len(first.Context.Materialized))
	}
}

func TestExecuteSortChangeReusesFilterPhase(t *testing.T) {
	cp := NewCachedPipelineWithResultCache(nil)
	cp.SetData(cacheTestData(), nil)
	factory := newCountingFactory()

	cfg := &grid.ViewConfig{
		Filters: []grid.FilterState{{ColumnKey: "val", Operator: grid.OpGt, Value: 1}},
		Sorts:   []grid.SortState{{ColumnKey: "val", Direction: grid.SortAscending}},
	}
	if _, err := cp.Execute(context.Background(), cfg, factory); err != nil {
		t.Fatalf("First execute failed: %v", err)
	}

	changed := &grid.ViewConfig{
		Filters: cfg.Filters,
		Sorts:   []grid.SortState{{ColumnKey: "val", Direction: grid.SortDescending}},
	}
	result, err := cp.Execute(context.Background(), changed, factory)
	if err != nil {
		t.Fatalf("Second execute failed: %v", err)
	}

	if factory.runs["filter"] != 1 {
		t.Errorf("Expected filter to run once (reused from cache), ran %d times", factory.runs["filter"])
	}
	if factory.runs["sort"] != 2 {
		t.Errorf("Expected sort to re-run, ran %d times", factory.runs["sort"])
	}

	stats := cp.Stats()
	if stats.Invalidations != 1 {
		t.Errorf("Expected 1 invalidation, got %+v", stats)
	}

	rows := result.Context.Materialized
	if len(rows) != 3 || rows[0].DataIndex != 2 {
		t.Errorf("Expected descending order starting at index 2, got %v", rows)
	}
}

func TestExecuteFilterChangeRerunsEverything(t *testing.T) {
	cp := NewCachedPipelineWithResultCache(nil)
	cp.SetData(cacheTestData(), nil)
	factory := newCountingFactory()

	cfgA := &grid.ViewConfig{
		Filters: []grid.FilterState{{ColumnKey: "val", Operator: grid.OpGt, Value: 1}},
		Sorts:   []grid.SortState{{ColumnKey: "val", Direction: grid.SortAscending}},
	}
	if _, err := cp.Execute(context.Background(), cfgA, factory); err != nil {
		t.Fatalf("First execute failed: %v", err)
	}

	cfgB := &grid.ViewConfig{
		Filters: []grid.FilterState{{ColumnKey: "val", Operator: grid.OpGt, Value: 7}},
		Sorts:   cfgA.Sorts,
	}
	result, err := cp.Execute(context.Background(), cfgB, factory)
	if err != nil {
		t.Fatalf("Second execute failed: %v", err)
	}

	if factory.runs["filter"] != 2 || factory.runs["sort"] != 2 {
		t.Errorf("Expected filter and sort to both re-run, got %v", factory.runs)
	}
	if len(result.Context.Materialized) != 2 {
		t.Errorf("Expected 2 rows after tighter filter, got %d", len(result.Context.Materialized))
	}
}

func TestExecuteGroupChangeReusesSortPhase(t *testing.T) {
	cp := NewCachedPipelineWithResultCache(nil)
	cp.SetData(cacheTestData(), nil)
	factory := newCountingFactory()

	cfg := &grid.ViewConfig{
		Sorts: []grid.SortState{{ColumnKey: "val", Direction: grid.SortAscending}},
		Group: &grid.GroupSpec{Columns: []string{"cat"}},
	}
	if _, err := cp.Execute(context.Background(), cfg, factory); err != nil {
		t.Fatalf("First execute failed: %v", err)
	}

	changed := &grid.ViewConfig{
		Sorts: cfg.Sorts,
		Group: &grid.GroupSpec{
			Columns:    []string{"cat"},
			Aggregates: []grid.AggregateSpec{{ColumnKey: "val", Function: grid.AggSum}},
		},
	}
	if _, err := cp.Execute(context.Background(), changed, factory); err != nil {
		t.Fatalf("Second execute failed: %v", err)
	}

	if factory.runs["sort"] != 1 {
		t.Errorf("Expected sort to be reused, ran %d times", factory.runs["sort"])
	}
	if factory.runs["group"] != 2 {
		t.Errorf("Expected group to re-run, ran %d times", factory.runs["group"])
	}
}

func TestSetDataInvalidatesOnFingerprintChange(t *testing.T) {
	cp := NewCachedPipelineWithResultCache(nil)
	cp.SetData(cacheTestData(), nil)
	factory := newCountingFactory()
	cfg := &grid.ViewConfig{
		Filters: []grid.FilterState{{ColumnKey: "val", Operator: grid.OpGt, Value: 1}},
	}

	if _, err := cp.Execute(context.Background(), cfg, factory); err != nil {
		t.Fatalf("First execute failed: %v", err)
	}

	newData := append(cacheTestData(), grid.Row{"cat": "C", "val": 99.0})
	cp.SetData(newData, nil)

	result, err := cp.Execute(context.Background(), cfg, factory)
	if err != nil {
		t.Fatalf("Second execute failed: %v", err)
	}

	if factory.runs["filter"] != 2 {
		t.Errorf("Expected filter to re-run after data change, ran %d times", factory.runs["filter"])
	}
	if len(result.Context.Materialized) != 4 {
		t.Errorf("Expected 4 rows from the new data, got %d", len(result.Context.Materialized))
	}
}

func TestSetDataSameFingerprintKeepsCache(t *testing.T) {
	data := cacheTestData()
	cp := NewCachedPipelineWithResultCache(nil)
	cp.SetData(data, nil)
	factory := newCountingFactory()
	cfg := &grid.ViewConfig{}

	if _, err := cp.Execute(context.Background(), cfg, factory); err != nil {
		t.Fatalf("First execute failed: %v", err)
	}

	// Same rows, same fingerprint: snapshots survive
	cp.SetData(data, nil)
	if _, err := cp.Execute(context.Background(), cfg, factory); err != nil {
		t.Fatalf("Second execute failed: %v", err)
	}

	if factory.runs["materialize"] != 1 {
		t.Errorf("Expected materialize to run once, ran %d times", factory.runs["materialize"])
	}
}

func TestInvalidateAllForcesRerun(t *testing.T) {
	cp := NewCachedPipelineWithResultCache(nil)
	cp.SetData(cacheTestData(), nil)
	factory := newCountingFactory()
	cfg := &grid.ViewConfig{}

	if _, err := cp.Execute(context.Background(), cfg, factory); err != nil {
		t.Fatalf("First execute failed: %v", err)
	}
	cp.InvalidateAll()
	if _, err := cp.Execute(context.Background(), cfg, factory); err != nil {
		t.Fatalf("Second execute failed: %v", err)
	}

	if factory.runs["materialize"] != 2 {
		t.Errorf("Expected materialize to re-run after InvalidateAll, ran %d times", factory.runs["materialize"])
	}
}

func TestResultCacheServesPreviousConfig(t *testing.T) {
	cp := NewCachedPipeline()
	cp.SetData(cacheTestData(), nil)
	factory := newCountingFactory()

	cfgA := &grid.ViewConfig{
		Sorts: []grid.SortState{{ColumnKey: "val", Direction: grid.SortAscending}},
	}
	cfgB := &grid.ViewConfig{
		Sorts: []grid.SortState{{ColumnKey: "val", Direction: grid.SortDescending}},
	}

	if _, err := cp.Execute(context.Background(), cfgA, factory); err != nil {
		t.Fatalf("Execute A failed: %v", err)
	}
	if _, err := cp.Execute(context.Background(), cfgB, factory); err != nil {
		t.Fatalf("Execute B failed: %v", err)
	}

	// Flipping back to A: the phase slots were invalidated by B, but the
	// result cache still holds A's materialized output
	result, err := cp.Execute(context.Background(), cfgA, factory)
	if err != nil {
		t.Fatalf("Execute A again failed: %v", err)
	}

	if factory.runs["sort"] != 2 {
		t.Errorf("Expected sort to run twice total (A, B), ran %d times", factory.runs["sort"])
	}
	if result.Context.Materialized[0].DataIndex != 1 {
		t.Errorf("Expected ascending order (index 1 first), got %v", result.Context.Materialized[0])
	}

	stats := cp.Stats()
	if stats.Hits != 1 {
		t.Errorf("Expected 1 hit from the result cache, got %+v", stats)
	}
}

func TestResultCacheHitThenSortChangeRerunsFilter(t *testing.T) {
	data := []grid.Row{{"v": 1.0}, {"v": 2.0}, {"v": 3.0}}
	cp := NewCachedPipeline()
	cp.SetData(data, nil)
	factory := newCountingFactory()

	cfgA := &grid.ViewConfig{
		Filters: []grid.FilterState{{ColumnKey: "v", Operator: grid.OpGt, Value: 1}},
		Sorts:   []grid.SortState{{ColumnKey: "v", Direction: grid.SortAscending}},
	}
	cfgB := &grid.ViewConfig{
		Filters: []grid.FilterState{{ColumnKey: "v", Operator: grid.OpGt, Value: 0}},
		Sorts:   cfgA.Sorts,
	}

	if _, err := cp.Execute(context.Background(), cfgA, factory); err != nil {
		t.Fatalf("Execute A failed: %v", err)
	}
	if _, err := cp.Execute(context.Background(), cfgB, factory); err != nil {
		t.Fatalf("Execute B failed: %v", err)
	}
	// Back to A: served from the result cache, so only the materialize slot
	// is live and every earlier phase slot is a gap
	if _, err := cp.Execute(context.Background(), cfgA, factory); err != nil {
		t.Fatalf("Execute A again failed: %v", err)
	}
	if cp.Stats().Hits != 1 {
		t.Fatalf("Expected the A flip-back to hit the result cache, got %+v", cp.Stats())
	}

	// A sorts-only change must still run A's unchanged filter: there is no
	// cached pre-transform snapshot to resume from
	cfgC := &grid.ViewConfig{
		Filters: cfgA.Filters,
		Sorts:   []grid.SortState{{ColumnKey: "v", Direction: grid.SortDescending}},
	}
	result, err := cp.Execute(context.Background(), cfgC, factory)
	if err != nil {
		t.Fatalf("Execute C failed: %v", err)
	}

	rows := result.Context.Materialized
	if len(rows) != 2 {
		t.Fatalf("Expected filter v>1 to leave 2 rows, got %d", len(rows))
	}
	if rows[0].DataIndex != 2 || rows[1].DataIndex != 1 {
		t.Errorf("Expected descending order [2 1], got %v", rows)
	}
	if factory.runs["filter"] != 3 {
		t.Errorf("Expected filter to run for A, B and C, ran %d times", factory.runs["filter"])
	}
}

func TestExecuteNilConfig(t *testing.T) {
	cp := NewCachedPipeline()
	cp.SetData(cacheTestData(), nil)

	result, err := cp.Execute(context.Background(), nil, &transform.DefaultFactory{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(result.Context.Materialized) != 3 {
		t.Errorf("Expected passthrough of all 3 rows, got %d", len(result.Context.Materialized))
	}
}

func TestStatsHitRate(t *testing.T) {
	s := Stats{Hits: 3, Misses: 1}
	if s.HitRate() != 0.75 {
		t.Errorf("Expected hit rate 0.75, got %f", s.HitRate())
	}
	if (Stats{}).HitRate() != 0 {
		t.Error("Expected zero hit rate with no executions")
	}
}
