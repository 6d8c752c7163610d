package engine

import (
	"github.com/chainline/chainline/pkg/domain"
)

// Composition is the result of composing an order list against a registry
// snapshot: the pipeline itself plus the identifiers that were skipped under
// domain.SkipUnresolved, in their original relative order. Skipped is always
// empty under domain.FailFast.
type Composition[T any] struct {
	Pipeline *Pipeline[T]
	Skipped  []domain.Identifier
}

// Compose resolves each identifier of order against snap, applies the
// unresolved-identifier policy, and folds the surviving transformations into
// a single pipeline: seed the fold with identity, then combine left-to-right
// so the first element of order is applied first at runtime.
//
// Composition is deterministic: the same (order, snapshot) always yields a
// behaviourally identical pipeline. An empty order list composes to the
// identity pipeline, never an error. Duplicate identifiers mean "apply it
// that many times". Resolution is independent per position: under FailFast a
// later occurrence of an identifier cannot repair an earlier failure.
func Compose[T any](snap *Snapshot[T], order []domain.Identifier, policy domain.UnresolvedPolicy) (*Composition[T], error) {
	if snap == nil {
		snap = &Snapshot[T]{}
	}

	composed := domain.Identity[T]()
	var skipped []domain.Identifier
	stages := 0

	for pos, id := range order {
		fn, err := snap.Resolve(id)
		if err != nil {
			switch policy {
			case domain.SkipUnresolved:
				skipped = append(skipped, id)
				continue
			default: // domain.FailFast
				return nil, &domain.UnknownIdentifierError{ID: id, Position: pos}
			}
		}
		composed = composed.Then(fn)
		stages++
	}

	return &Composition[T]{
		Pipeline: &Pipeline[T]{apply: composed, stages: stages},
		Skipped:  skipped,
	}, nil
}
