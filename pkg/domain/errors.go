package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	ErrEmptyIdentifier     = errors.New("identifier must not be empty")
	ErrDuplicateIdentifier = errors.New("identifier already registered")
	ErrUnknownIdentifier   = errors.New("unknown identifier")
	ErrRegistryFrozen      = errors.New("registry is frozen")
	ErrNilTransformation   = errors.New("transformation must not be nil")
	ErrPipelineNotFound    = errors.New("pipeline not found")
	ErrConfigInvalid       = errors.New("invalid configuration")
)

// DuplicateIdentifierError reports a registration attempt for an identifier
// that already exists. Recoverable: pick another identifier or build a fresh
// registry.
type DuplicateIdentifierError struct {
	ID Identifier
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("identifier %q already registered", e.ID)
}

func (e *DuplicateIdentifierError) Unwrap() error { return ErrDuplicateIdentifier }

// UnknownIdentifierError reports an identifier that could not be resolved.
// Position is the zero-based index in the order list when the failure comes
// from composition, or -1 for a direct resolve.
type UnknownIdentifierError struct {
	ID       Identifier
	Position int
}

func (e *UnknownIdentifierError) Error() string {
	if e.Position < 0 {
		return fmt.Sprintf("unknown identifier %q", e.ID)
	}
	return fmt.Sprintf("unknown identifier %q at position %d", e.ID, e.Position)
}

func (e *UnknownIdentifierError) Unwrap() error { return ErrUnknownIdentifier }

// ErrorResponse defines the standard JSON error model returned by the HTTP host.
// It avoids exposing internals while providing a stable machine-readable code.
// TraceID should carry the current OpenTelemetry trace identifier when available.
type ErrorResponse struct {
	Code    string `json:"code"`               // Machine-readable error code (e.g., PIPELINE_NOT_FOUND)
	Message string `json:"message"`            // Human-readable message (safe for logs)
	TraceID string `json:"trace_id,omitempty"` // Optional trace/correlation ID
}
