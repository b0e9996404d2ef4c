// Package transform implements the staged view-computation pipeline: filter,
// sort, group, pivot and materialize transformers composed in phase order.
package transform

import (
	"context"

	"github.com/jook1356/grid-sub001/grid"
)

// Transformer is a single pipeline stage. Implementations must treat the
// incoming context's Data and Columns as read-only and publish their output
// on a (possibly shallow-copied) context.
type Transformer interface {
	// Name returns the stage name for logging and cache keys
	Name() string

	// Phase returns the fixed ordinal controlling execution order
	Phase() grid.Phase

	// RunInWorker reports whether this stage should run on the worker
	// sub-sequence of a split execution
	RunInWorker() bool

	// CacheKey returns a fingerprint of this stage's configuration
	CacheKey() string

	// Transform processes the context and returns the stage output
	Transform(ctx context.Context, tc *grid.TransformContext) (*grid.TransformContext, error)
}

// TransformerFactory is the sole injection seam for stage construction.
// A factory may return nil from any method to signal that the capability is
// unavailable; the pipeline skips nil stages.
type TransformerFactory interface {
	CreateFilterTransformer(filters []grid.FilterState) Transformer
	CreateSortTransformer(sorts []grid.SortState) Transformer
	CreateGroupTransformer(spec grid.GroupSpec) Transformer
	CreatePivotTransformer(spec grid.PivotSpec) Transformer
	CreateMaterializeTransformer(opts grid.MaterializeOptions) Transformer
}

// DefaultFactory builds main-thread transformers. With HeavyStagesInWorker
// set, the sort/group/pivot stages report RunInWorker true so callers can
// offload them via Pipeline.ExecuteWorkerPhase.
type DefaultFactory struct {
	HeavyStagesInWorker bool
}

// CreateFilterTransformer returns a filter stage, or nil for an empty filter list
func (f *DefaultFactory) CreateFilterTransformer(filters []grid.FilterState) Transformer {
	if len(filters) == 0 {
		return nil
	}
	return NewFilterTransformer(filters)
}

// CreateSortTransformer returns a sort stage, or nil for an empty sort list
func (f *DefaultFactory) CreateSortTransformer(sorts []grid.SortState) Transformer {
	if len(sorts) == 0 {
		return nil
	}
	t := NewSortTransformer(sorts)
	t.runInWorker = f.HeavyStagesInWorker
	return t
}

// CreateGroupTransformer returns a group stage, or nil when no group columns
// are configured
func (f *DefaultFactory) CreateGroupTransformer(spec grid.GroupSpec) Transformer {
	if len(spec.Columns) == 0 {
		return nil
	}
	t := NewGroupTransformer(spec)
	t.runInWorker = f.HeavyStagesInWorker
	return t
}

// CreatePivotTransformer returns a pivot stage
func (f *DefaultFactory) CreatePivotTransformer(spec grid.PivotSpec) Transformer {
	t := NewPivotTransformer(spec)
	t.runInWorker = f.HeavyStagesInWorker
	return t
}

// CreateMaterializeTransformer returns the materialize stage
func (f *DefaultFactory) CreateMaterializeTransformer(opts grid.MaterializeOptions) Transformer {
	return NewMaterializeTransformer(opts)
}
