package engine

import (
	"sort"
	"sync"

	"github.com/chainline/chainline/pkg/domain"
)

// Registry - Named Transformation Management
// ================================

// Registry holds the universe of transformations available for composition,
// addressable by identifier. The lifecycle is construct-then-freeze: handlers
// are registered during startup, the registry is frozen, and composition only
// ever sees immutable snapshots. Registration after Freeze is refused, which
// eliminates the half-updated-mapping hazard entirely.
//
// Duplicate registration is always an error. Overwriting silently was
// considered and rejected: a misconfigured identifier vanishing from behavior
// is exactly the failure mode this design exists to prevent. Test fixtures
// build fresh registries instead.
type Registry[T any] struct {
	mu      sync.RWMutex
	entries map[domain.Identifier]domain.Transformation[T]
	frozen  bool
}

// NewRegistry creates an empty, unfrozen registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		entries: make(map[domain.Identifier]domain.Transformation[T]),
	}
}

// Register adds a transformation under the given identifier.
// Returns domain.ErrEmptyIdentifier, domain.ErrNilTransformation,
// domain.ErrRegistryFrozen, or a *domain.DuplicateIdentifierError.
func (r *Registry[T]) Register(id domain.Identifier, fn domain.Transformation[T]) error {
	if id == "" {
		return domain.ErrEmptyIdentifier
	}
	if fn == nil {
		return domain.ErrNilTransformation
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return domain.ErrRegistryFrozen
	}
	if _, exists := r.entries[id]; exists {
		return &domain.DuplicateIdentifierError{ID: id}
	}
	r.entries[id] = fn
	return nil
}

// MustRegister is Register for wiring builtin catalogs at startup, where a
// collision is a programming error.
func (r *Registry[T]) MustRegister(id domain.Identifier, fn domain.Transformation[T]) {
	if err := r.Register(id, fn); err != nil {
		panic("engine: " + err.Error())
	}
}

// Resolve returns the transformation registered under id. No side effects.
func (r *Registry[T]) Resolve(id domain.Identifier) (domain.Transformation[T], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.entries[id]
	if !ok {
		return nil, &domain.UnknownIdentifierError{ID: id, Position: -1}
	}
	return fn, nil
}

// Freeze marks the registry immutable. Subsequent Register calls fail with
// domain.ErrRegistryFrozen. Freeze is idempotent.
func (r *Registry[T]) Freeze() *Registry[T] {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
	return r
}

// Frozen reports whether the registry has been frozen.
func (r *Registry[T]) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Snapshot returns an immutable copy of the current mapping. Compositions
// resolve against snapshots, so a registry that is later rebuilt can never be
// observed mid-mutation; pipelines composed from earlier snapshots are
// unaffected by rebuilds.
func (r *Registry[T]) Snapshot() *Snapshot[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make(map[domain.Identifier]domain.Transformation[T], len(r.entries))
	for id, fn := range r.entries {
		entries[id] = fn
	}
	return &Snapshot[T]{entries: entries}
}

// Len returns the number of registered transformations.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Identifiers returns the registered identifiers in sorted order, for
// diagnostics and error messages.
func (r *Registry[T]) Identifiers() []domain.Identifier {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]domain.Identifier, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot is a point-in-time, immutable view of a registry. It is safe to
// share across goroutines without synchronization: nothing mutates it after
// construction.
type Snapshot[T any] struct {
	entries map[domain.Identifier]domain.Transformation[T]
}

// Resolve returns the transformation for id, or a *domain.UnknownIdentifierError.
func (s *Snapshot[T]) Resolve(id domain.Identifier) (domain.Transformation[T], error) {
	fn, ok := s.entries[id]
	if !ok {
		return nil, &domain.UnknownIdentifierError{ID: id, Position: -1}
	}
	return fn, nil
}

// Len returns the number of entries in the snapshot.
func (s *Snapshot[T]) Len() int { return len(s.entries) }
