package transform

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jook1356/grid-sub001/grid"
)

// Pipeline holds an ordered transformer list and executes it sequentially.
// The list is kept sorted by phase on every insertion; a stage never starts
// before the previous stage's result is available.
type Pipeline struct {
	transformers []Transformer
}

// PipelineResult contains the final context of a pipeline execution plus
// timing diagnostics
type PipelineResult struct {
	Context       *grid.TransformContext
	ExecutionTime time.Duration
	PhaseTimings  map[string]time.Duration
}

// PhaseHook observes each completed stage during execution. The cache layer
// uses it to snapshot per-phase outputs.
type PhaseHook func(t Transformer, out *grid.TransformContext)

// NewPipeline creates an empty pipeline
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// AddTransformer inserts a stage, keeping the list sorted by phase.
// Insertion is stable: stages sharing a phase keep their insertion order.
func (p *Pipeline) AddTransformer(t Transformer) {
	if t == nil {
		return
	}
	pos := len(p.transformers)
	for i, existing := range p.transformers {
		if existing.Phase() > t.Phase() {
			pos = i
			break
		}
	}
	p.transformers = append(p.transformers, nil)
	copy(p.transformers[pos+1:], p.transformers[pos:])
	p.transformers[pos] = t
}

// Transformers returns a copy of the stage list
func (p *Pipeline) Transformers() []Transformer {
	out := make([]Transformer, len(p.transformers))
	copy(out, p.transformers)
	return out
}

// Clear removes all stages from the pipeline
func (p *Pipeline) Clear() {
	p.transformers = nil
}

// Execute builds an empty context for the given data and threads it through
// every stage in phase order
func (p *Pipeline) Execute(ctx context.Context, data []grid.Row, columns []grid.ColumnDef) (*PipelineResult, error) {
	return p.ExecuteFrom(ctx, grid.NewTransformContext(data, columns), grid.PhasePreTransform, nil)
}

// ExecuteFrom threads an existing context through the stages at or after the
// given phase. The hook, when non-nil, observes each completed stage.
func (p *Pipeline) ExecuteFrom(ctx context.Context, tc *grid.TransformContext, from grid.Phase, hook PhaseHook) (*PipelineResult, error) {
	start := time.Now()
	timings := make(map[string]time.Duration, len(p.transformers))

	current := tc
	for _, t := range p.transformers {
		if t.Phase() < from {
			continue
		}

		// Check for cancellation between stages; stages themselves are never
		// suspended mid-flight
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		stageStart := time.Now()
		next, err := t.Transform(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("stage %s failed: %w", t.Name(), err)
		}
		timings[t.Name()] = time.Since(stageStart)

		current = next
		if hook != nil {
			hook(t, current)
		}
	}

	return &PipelineResult{
		Context:       current,
		ExecutionTime: time.Since(start),
		PhaseTimings:  timings,
	}, nil
}

// ExecuteWorkerPhase runs only the stages flagged RunInWorker, preserving
// relative phase order. Callers split heavy stages onto another execution
// context with this and finish with ExecuteMainPhase.
func (p *Pipeline) ExecuteWorkerPhase(ctx context.Context, tc *grid.TransformContext) (*grid.TransformContext, error) {
	return p.executeSubset(ctx, tc, true)
}

// ExecuteMainPhase runs only the stages flagged for the main execution
// context, preserving relative phase order
func (p *Pipeline) ExecuteMainPhase(ctx context.Context, tc *grid.TransformContext) (*grid.TransformContext, error) {
	return p.executeSubset(ctx, tc, false)
}

// executeSubset runs the stages whose RunInWorker flag matches inWorker
func (p *Pipeline) executeSubset(ctx context.Context, tc *grid.TransformContext, inWorker bool) (*grid.TransformContext, error) {
	current := tc
	for _, t := range p.transformers {
		if t.RunInWorker() != inWorker {
			continue
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		next, err := t.Transform(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("stage %s failed: %w", t.Name(), err)
		}
		current = next
	}
	return current, nil
}

// BuildFromConfig composes the stage list for a view configuration:
// filter (if any filters), sort (if any sorts), then either pivot (when
// column fields are configured) or group, and always materialize last.
func BuildFromConfig(cfg *grid.ViewConfig, factory TransformerFactory) *Pipeline {
	p := NewPipeline()
	if cfg == nil {
		cfg = &grid.ViewConfig{}
	}

	if len(cfg.Filters) > 0 {
		p.AddTransformer(factory.CreateFilterTransformer(cfg.Filters))
	}
	if len(cfg.Sorts) > 0 {
		p.AddTransformer(factory.CreateSortTransformer(cfg.Sorts))
	}

	// Pivot and group are mutually exclusive transform modes
	if cfg.PivotActive() {
		p.AddTransformer(factory.CreatePivotTransformer(*cfg.Pivot))
	} else if cfg.Group != nil && len(cfg.Group.Columns) > 0 {
		p.AddTransformer(factory.CreateGroupTransformer(*cfg.Group))
	}

	p.AddTransformer(factory.CreateMaterializeTransformer(cfg.Materialize))

	if len(p.transformers) == 0 {
		log.Printf("[PIPELINE_EMPTY] View config produced no stages")
	}
	return p
}
