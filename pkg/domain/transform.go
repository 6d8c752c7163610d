package domain

// Identifier is an opaque, comparable token naming a Transformation within a
// registry. Identifiers are unique per registry; order lists may repeat them.
type Identifier = string

// Transformation is a type-preserving unary operation. Implementations are
// expected to be pure: the concurrency guarantees of composed pipelines rest
// on transformations not sharing mutable state across calls. Purity is a
// documented precondition, not an enforced one.
type Transformation[T any] func(T) T

// Identity returns the transformation that returns its input unchanged.
// It is the seed of every composition fold: composing an empty order list
// yields exactly this.
func Identity[T any]() Transformation[T] {
	return func(v T) T { return v }
}

// Then returns the left-to-right composition of two transformations: the
// receiver is applied first, next is applied to its result. Composition is
// associative but not commutative.
func (t Transformation[T]) Then(next Transformation[T]) Transformation[T] {
	if t == nil {
		return next
	}
	if next == nil {
		return t
	}
	return func(v T) T {
		return next(t(v))
	}
}
