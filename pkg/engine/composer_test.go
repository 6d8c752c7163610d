package engine

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/chainline/chainline/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// newWordRegistry builds the catalog used throughout these tests:
// case folding, trimming, and case-sensitive removal of "hello".
func newWordRegistry(t *testing.T) *Snapshot[string] {
	t.Helper()
	registry := NewRegistry[string]()
	require.NoError(t, registry.Register("lower", strings.ToLower))
	require.NoError(t, registry.Register("upper", strings.ToUpper))
	require.NoError(t, registry.Register("trim", strings.TrimSpace))
	require.NoError(t, registry.Register("drop_hello", func(s string) string {
		return strings.ReplaceAll(s, "hello", "")
	}))
	return registry.Freeze().Snapshot()
}

func TestComposeAppliesStepsInOrder(t *testing.T) {
	snap := newWordRegistry(t)

	// lowercased -> "hello world" -> drop "hello" -> " world" ->
	// uppercase -> " WORLD" -> trim -> "WORLD"
	composition, err := Compose(snap, []domain.Identifier{"lower", "drop_hello", "upper", "trim"}, domain.FailFast)
	require.NoError(t, err)
	assert.Empty(t, composition.Skipped)
	assert.Equal(t, 4, composition.Pipeline.Len())
	assert.Equal(t, "WORLD", composition.Pipeline.Apply(context.Background(), "Hello World"))
}

func TestComposeIsOrderSensitive(t *testing.T) {
	snap := newWordRegistry(t)

	// Trimming before the word removal reintroduces the leading space,
	// so the result keeps it.
	composition, err := Compose(snap, []domain.Identifier{"lower", "trim", "drop_hello", "upper"}, domain.FailFast)
	require.NoError(t, err)
	assert.Equal(t, " WORLD", composition.Pipeline.Apply(context.Background(), "Hello World"))
}

func TestComposeEmptyOrderIsIdentity(t *testing.T) {
	snap := newWordRegistry(t)

	composition, err := Compose(snap, nil, domain.FailFast)
	require.NoError(t, err)
	assert.Equal(t, 0, composition.Pipeline.Len())

	for _, input := range []string{"", "Hello World", "  spaced  "} {
		assert.Equal(t, input, composition.Pipeline.Apply(context.Background(), input))
	}
}

func TestComposeDuplicateIdentifiers(t *testing.T) {
	registry := NewRegistry[string]()
	require.NoError(t, registry.Register("bang", func(s string) string { return s + "!" }))
	snap := registry.Freeze().Snapshot()

	composition, err := Compose(snap, []domain.Identifier{"bang", "bang", "bang"}, domain.FailFast)
	require.NoError(t, err)
	assert.Equal(t, 3, composition.Pipeline.Len())
	assert.Equal(t, "hi!!!", composition.Pipeline.Apply(context.Background(), "hi"))
}

func TestComposeFailFastReportsPosition(t *testing.T) {
	snap := newWordRegistry(t)

	tests := []struct {
		name    string
		order   []domain.Identifier
		wantID  string
		wantPos int
	}{
		{"unknown first", []domain.Identifier{"nope", "lower"}, "nope", 0},
		{"unknown middle", []domain.Identifier{"lower", "nope", "upper"}, "nope", 1},
		{"unknown last", []domain.Identifier{"lower", "upper", "nope"}, "nope", 2},
		{"first of several unknowns wins", []domain.Identifier{"lower", "bad1", "bad2"}, "bad1", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			composition, err := Compose(snap, tt.order, domain.FailFast)
			require.Error(t, err)
			assert.Nil(t, composition)

			var unknown *domain.UnknownIdentifierError
			require.ErrorAs(t, err, &unknown)
			assert.Equal(t, tt.wantID, unknown.ID)
			assert.Equal(t, tt.wantPos, unknown.Position)
		})
	}
}

func TestComposeSkipUnresolved(t *testing.T) {
	snap := newWordRegistry(t)

	order := []domain.Identifier{"bad1", "lower", "bad2", "trim", "bad1"}
	composition, err := Compose(snap, order, domain.SkipUnresolved)
	require.NoError(t, err)

	// Skipped identifiers come back in original relative order, repeats included.
	assert.Equal(t, []domain.Identifier{"bad1", "bad2", "bad1"}, composition.Skipped)
	assert.Equal(t, 2, composition.Pipeline.Len())

	// Resulting pipeline equals composing the order with unknowns removed.
	filtered, err := Compose(snap, []domain.Identifier{"lower", "trim"}, domain.FailFast)
	require.NoError(t, err)
	input := "  Hello World  "
	assert.Equal(t,
		filtered.Pipeline.Apply(context.Background(), input),
		composition.Pipeline.Apply(context.Background(), input))
}

func TestComposeFullySkippedOrderIsIdentity(t *testing.T) {
	snap := newWordRegistry(t)

	composition, err := Compose(snap, []domain.Identifier{"bad1", "bad2"}, domain.SkipUnresolved)
	require.NoError(t, err)
	assert.Equal(t, []domain.Identifier{"bad1", "bad2"}, composition.Skipped)
	assert.Equal(t, 0, composition.Pipeline.Len())
	assert.Equal(t, "unchanged", composition.Pipeline.Apply(context.Background(), "unchanged"))
}

func TestComposeNilSnapshot(t *testing.T) {
	composition, err := Compose[string](nil, nil, domain.FailFast)
	require.NoError(t, err)
	assert.Equal(t, "x", composition.Pipeline.Apply(context.Background(), "x"))
}

// knownIDs is the generator vocabulary for the property tests below. Each
// identifier appends its own marker, so any two distinct application orders
// produce distinct outputs and order bugs cannot hide.
var knownIDs = []string{"a", "b", "c", "d"}

func newMarkerSnapshot(tb testing.TB) *Snapshot[string] {
	tb.Helper()
	registry := NewRegistry[string]()
	for _, id := range knownIDs {
		id := id
		if err := registry.Register(id, func(s string) string { return s + "." + id }); err != nil {
			tb.Fatalf("register %q: %v", id, err)
		}
	}
	return registry.Freeze().Snapshot()
}

func TestComposeDeterminismProperty(t *testing.T) {
	snap := newMarkerSnapshot(t)

	rapid.Check(t, func(t *rapid.T) {
		order := rapid.SliceOfN(rapid.SampledFrom(knownIDs), 0, 12).Draw(t, "order")
		input := rapid.String().Draw(t, "input")

		first, err := Compose(snap, order, domain.FailFast)
		if err != nil {
			t.Fatalf("compose: %v", err)
		}
		second, err := Compose(snap, order, domain.FailFast)
		if err != nil {
			t.Fatalf("compose: %v", err)
		}

		if got, want := first.Pipeline.Apply(context.Background(), input), second.Pipeline.Apply(context.Background(), input); got != want {
			t.Fatalf("same (order, snapshot) produced different outputs: %q vs %q", got, want)
		}
	})
}

func TestComposeConcatenationProperty(t *testing.T) {
	snap := newMarkerSnapshot(t)

	rapid.Check(t, func(t *rapid.T) {
		l1 := rapid.SliceOfN(rapid.SampledFrom(knownIDs), 0, 8).Draw(t, "l1")
		l2 := rapid.SliceOfN(rapid.SampledFrom(knownIDs), 0, 8).Draw(t, "l2")
		input := rapid.String().Draw(t, "input")

		combined, err := Compose(snap, append(append([]string{}, l1...), l2...), domain.FailFast)
		if err != nil {
			t.Fatalf("compose combined: %v", err)
		}
		first, err := Compose(snap, l1, domain.FailFast)
		if err != nil {
			t.Fatalf("compose l1: %v", err)
		}
		second, err := Compose(snap, l2, domain.FailFast)
		if err != nil {
			t.Fatalf("compose l2: %v", err)
		}

		chained := second.Pipeline.Apply(context.Background(), first.Pipeline.Apply(context.Background(), input))
		if got := combined.Pipeline.Apply(context.Background(), input); got != chained {
			t.Fatalf("compose(l1++l2) != compose(l2)∘compose(l1): %q vs %q", got, chained)
		}
	})
}

func TestComposeRepetitionProperty(t *testing.T) {
	snap := newMarkerSnapshot(t)

	rapid.Check(t, func(t *rapid.T) {
		id := rapid.SampledFrom(knownIDs).Draw(t, "id")
		n := rapid.IntRange(0, 10).Draw(t, "n")
		input := rapid.String().Draw(t, "input")

		order := make([]string, n)
		for i := range order {
			order[i] = id
		}
		composition, err := Compose(snap, order, domain.FailFast)
		if err != nil {
			t.Fatalf("compose: %v", err)
		}

		fn, err := snap.Resolve(id)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		want := input
		for i := 0; i < n; i++ {
			want = fn(want)
		}

		if got := composition.Pipeline.Apply(context.Background(), input); got != want {
			t.Fatalf("%d-fold repetition mismatch: %q vs %q", n, got, want)
		}
	})
}

func TestComposeSkipEquivalenceProperty(t *testing.T) {
	snap := newMarkerSnapshot(t)

	rapid.Check(t, func(t *rapid.T) {
		vocabulary := append(append([]string{}, knownIDs...), "x1", "x2", "x3")
		order := rapid.SliceOfN(rapid.SampledFrom(vocabulary), 0, 12).Draw(t, "order")
		input := rapid.String().Draw(t, "input")

		skipping, err := Compose(snap, order, domain.SkipUnresolved)
		if err != nil {
			t.Fatalf("compose skip: %v", err)
		}

		var known, unknown []string
		for _, id := range order {
			if _, err := snap.Resolve(id); err != nil {
				unknown = append(unknown, id)
			} else {
				known = append(known, id)
			}
		}

		filtered, err := Compose(snap, known, domain.FailFast)
		if err != nil {
			t.Fatalf("compose filtered: %v", err)
		}

		if fmt.Sprint(skipping.Skipped) != fmt.Sprint(unknown) {
			t.Fatalf("skipped list mismatch: %v vs %v", skipping.Skipped, unknown)
		}
		if got, want := skipping.Pipeline.Apply(context.Background(), input), filtered.Pipeline.Apply(context.Background(), input); got != want {
			t.Fatalf("skip pipeline differs from filtered pipeline: %q vs %q", got, want)
		}
	})
}
