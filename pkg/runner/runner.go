// Package runner hosts composed pipelines for the chainline binaries: it
// turns configuration snapshots into a named set of ready-to-apply pipelines
// and keeps that set consistent across hot reloads.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/chainline/chainline/pkg/config"
	"github.com/chainline/chainline/pkg/domain"
	"github.com/chainline/chainline/pkg/engine"
	"github.com/chainline/chainline/pkg/telemetry"
	"github.com/chainline/chainline/pkg/transform"
)

// Entry is one composed pipeline held by a Set.
type Entry struct {
	Name       string
	Spec       config.PipelineSpec
	Pipeline   *engine.Pipeline[string]
	Skipped    []domain.Identifier
	Generation int64
}

// Set maintains the active named pipelines and supports zero-downtime
// updates: Update composes every pipeline of the new snapshot against a
// fresh frozen registry and swaps the whole map atomically. A snapshot that
// fails to compose is rejected as a unit, so callers never observe a
// half-updated set. Entries handed out by Select stay valid across updates;
// they closed over the snapshot they were composed from.
type Set struct {
	mu         sync.RWMutex
	entries    map[string]*Entry
	generation int64
	logger     *slog.Logger
}

// NewSet creates an empty pipeline set.
func NewSet(logger *slog.Logger) *Set {
	if logger == nil {
		logger = slog.Default()
	}
	return &Set{
		entries: make(map[string]*Entry),
		logger:  logger,
	}
}

// Select returns the composed pipeline for name.
func (s *Set) Select(name string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrPipelineNotFound, name)
	}
	return entry, nil
}

// Names returns the configured pipeline names in sorted order.
func (s *Set) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Generation returns the generation of the snapshot currently served.
func (s *Set) Generation() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Len returns the number of active pipelines.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Update composes the snapshot and atomically replaces the active set.
func (s *Set) Update(ctx context.Context, snapshot config.Snapshot) error {
	registry, err := BuildRegistry(snapshot.Steps)
	if err != nil {
		return fmt.Errorf("build registry: %w", err)
	}
	snap := registry.Freeze().Snapshot()

	newEntries := make(map[string]*Entry, len(snapshot.Pipelines))
	for _, spec := range snapshot.Pipelines {
		policy := spec.UnresolvedPolicy()
		composition, err := engine.Compose(snap, spec.Steps, policy)
		if err != nil {
			telemetry.RecordCompose(ctx, telemetry.ComposeMetrics{
				Pipeline: spec.Name,
				Policy:   policy.String(),
				Outcome:  "unknown_identifier",
			})
			return fmt.Errorf("compose pipeline %q: %w", spec.Name, err)
		}

		telemetry.RecordCompose(ctx, telemetry.ComposeMetrics{
			Pipeline: spec.Name,
			Policy:   policy.String(),
			Outcome:  "ok",
			Stages:   composition.Pipeline.Len(),
			Skipped:  len(composition.Skipped),
		})

		if len(composition.Skipped) > 0 {
			s.logger.Warn("pipeline composed with skipped identifiers",
				"pipeline", spec.Name,
				"skipped", composition.Skipped,
				"generation", snapshot.Generation)
		}

		newEntries[spec.Name] = &Entry{
			Name:       spec.Name,
			Spec:       spec,
			Pipeline:   composition.Pipeline,
			Skipped:    composition.Skipped,
			Generation: snapshot.Generation,
		}
	}

	s.mu.Lock()
	s.entries = newEntries
	s.generation = snapshot.Generation
	s.mu.Unlock()

	s.logger.Info("pipeline set updated",
		"generation", snapshot.Generation,
		"pipeline_count", len(newEntries))

	return nil
}

// BuildRegistry constructs an unfrozen registry holding the builtin catalog
// plus the parameterized steps declared in configuration.
func BuildRegistry(steps []config.StepSpec) (*engine.Registry[string], error) {
	registry := transform.NewBuiltinRegistry()

	for _, step := range steps {
		fn, err := buildStep(step)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(step.ID, fn); err != nil {
			return nil, fmt.Errorf("register step %q: %w", step.ID, err)
		}
	}

	return registry, nil
}

func buildStep(step config.StepSpec) (domain.Transformation[string], error) {
	switch step.Kind {
	case "remove_word":
		return transform.RemoveWord(step.Word), nil
	case "prefix":
		return transform.Prefix(step.Value), nil
	case "suffix":
		return transform.Suffix(step.Value), nil
	case "replace":
		return transform.Replace(step.Old, step.New), nil
	case "truncate":
		return transform.Truncate(step.Length), nil
	default:
		return nil, fmt.Errorf("%w: unknown step kind %q", domain.ErrConfigInvalid, step.Kind)
	}
}
