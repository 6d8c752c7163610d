package transform

import (
	"github.com/chainline/chainline/pkg/engine"
)

// Builtin identifiers for the standard string catalog.
const (
	IDLower         = "lower"
	IDUpper         = "upper"
	IDTrim          = "trim"
	IDTrimLeft      = "trim_left"
	IDTrimRight     = "trim_right"
	IDSqueezeSpaces = "squeeze_spaces"
	IDReverse       = "reverse"
	IDTitle         = "title"
)

// RegisterBuiltins registers the standard string catalog into r.
// A collision with an already-registered identifier panics via MustRegister:
// the builtin catalog is wired once at startup, before any user registration.
func RegisterBuiltins(r *engine.Registry[string]) {
	r.MustRegister(IDLower, Lower)
	r.MustRegister(IDUpper, Upper)
	r.MustRegister(IDTrim, Trim)
	r.MustRegister(IDTrimLeft, TrimLeft)
	r.MustRegister(IDTrimRight, TrimRight)
	r.MustRegister(IDSqueezeSpaces, SqueezeSpaces)
	r.MustRegister(IDReverse, Reverse)
	r.MustRegister(IDTitle, Title)
}

// NewBuiltinRegistry builds an unfrozen registry pre-loaded with the standard
// catalog. Callers add their parameterized transformations (RemoveWord,
// Prefix, ...) and then Freeze before composing.
func NewBuiltinRegistry() *engine.Registry[string] {
	r := engine.NewRegistry[string]()
	RegisterBuiltins(r)
	return r
}
