package engine

import (
	"context"

	"github.com/chainline/chainline/pkg/domain"
)

// Pipeline is the composed artifact returned by Compose. It closes over a
// registry snapshot only, so it carries no hidden state: Apply calls are
// independent, reentrant, and safe to run concurrently with different inputs
// (assuming the registered transformations honour the purity precondition).
// Rebuilding a registry and recomposing yields a new, independent pipeline;
// existing pipelines are unaffected.
type Pipeline[T any] struct {
	apply  domain.Transformation[T]
	stages int
}

// Apply runs the composed transformation over input. The context is accepted
// for signature symmetry with hosts that thread cancellation everywhere, but
// composition has no blocking points: Apply always runs every stage in order
// and returns whatever the transformations produce.
func (p *Pipeline[T]) Apply(_ context.Context, input T) T {
	if p == nil || p.apply == nil {
		return input
	}
	return p.apply(input)
}

// Len returns the number of stages folded into the pipeline. Skipped
// identifiers do not count; the identity pipeline has zero stages.
func (p *Pipeline[T]) Len() int {
	if p == nil {
		return 0
	}
	return p.stages
}

// Transformation exposes the pipeline as a plain domain.Transformation so it
// can itself be registered or composed further.
func (p *Pipeline[T]) Transformation() domain.Transformation[T] {
	if p == nil || p.apply == nil {
		return domain.Identity[T]()
	}
	return p.apply
}
