package domain

import "fmt"

// UnresolvedPolicy selects how composition treats identifiers that cannot be
// resolved against a registry snapshot. The choice is always made by the
// caller; there is no silent default.
type UnresolvedPolicy int

const (
	// FailFast aborts the whole composition on the first unresolved
	// identifier. No pipeline is produced.
	FailFast UnresolvedPolicy = iota

	// SkipUnresolved drops unresolved identifiers and composes the rest.
	// The skipped identifiers are reported back to the caller alongside the
	// pipeline; they are never silently discarded.
	SkipUnresolved
)

// String returns the canonical configuration spelling of the policy.
func (p UnresolvedPolicy) String() string {
	switch p {
	case FailFast:
		return "fail_fast"
	case SkipUnresolved:
		return "skip_unresolved"
	default:
		return fmt.Sprintf("UnresolvedPolicy(%d)", int(p))
	}
}

// ParsePolicy converts a configuration string into an UnresolvedPolicy.
func ParsePolicy(s string) (UnresolvedPolicy, error) {
	switch s {
	case "fail_fast":
		return FailFast, nil
	case "skip_unresolved":
		return SkipUnresolved, nil
	default:
		return FailFast, fmt.Errorf("%w: unknown unresolved policy %q", ErrConfigInvalid, s)
	}
}
