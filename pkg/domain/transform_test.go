package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity(t *testing.T) {
	id := Identity[string]()
	assert.Equal(t, "", id(""))
	assert.Equal(t, "unchanged", id("unchanged"))

	intID := Identity[int]()
	assert.Equal(t, 42, intID(42))
}

func TestThenAppliesLeftToRight(t *testing.T) {
	appendA := Transformation[string](func(s string) string { return s + "a" })
	appendB := Transformation[string](func(s string) string { return s + "b" })

	assert.Equal(t, "_ab", appendA.Then(appendB)("_"))
	assert.Equal(t, "_ba", appendB.Then(appendA)("_"))
}

func TestThenIsAssociative(t *testing.T) {
	f := Transformation[string](func(s string) string { return s + "f" })
	g := Transformation[string](func(s string) string { return s + "g" })
	h := Transformation[string](func(s string) string { return s + "h" })

	left := f.Then(g).Then(h)
	right := f.Then(g.Then(h))
	assert.Equal(t, left("_"), right("_"))
}

func TestThenWithNil(t *testing.T) {
	appendA := Transformation[string](func(s string) string { return s + "a" })

	assert.Equal(t, "_a", appendA.Then(nil)("_"))
	assert.Equal(t, "_a", Transformation[string](nil).Then(appendA)("_"))
}

func TestIdentityIsCompositionNeutral(t *testing.T) {
	appendA := Transformation[string](func(s string) string { return s + "a" })

	assert.Equal(t, appendA("_"), Identity[string]().Then(appendA)("_"))
	assert.Equal(t, appendA("_"), appendA.Then(Identity[string]())("_"))
}

func TestParsePolicy(t *testing.T) {
	policy, err := ParsePolicy("fail_fast")
	require.NoError(t, err)
	assert.Equal(t, FailFast, policy)

	policy, err = ParsePolicy("skip_unresolved")
	require.NoError(t, err)
	assert.Equal(t, SkipUnresolved, policy)

	_, err = ParsePolicy("whatever")
	assert.ErrorIs(t, err, ErrConfigInvalid)
}

func TestPolicyStringRoundTrip(t *testing.T) {
	for _, policy := range []UnresolvedPolicy{FailFast, SkipUnresolved} {
		parsed, err := ParsePolicy(policy.String())
		require.NoError(t, err)
		assert.Equal(t, policy, parsed)
	}
}

func TestErrorWrapping(t *testing.T) {
	dup := &DuplicateIdentifierError{ID: "upper"}
	assert.ErrorIs(t, dup, ErrDuplicateIdentifier)
	assert.Contains(t, dup.Error(), "upper")

	unknown := &UnknownIdentifierError{ID: "nope", Position: 3}
	assert.ErrorIs(t, unknown, ErrUnknownIdentifier)
	assert.Contains(t, unknown.Error(), `"nope"`)
	assert.Contains(t, unknown.Error(), "position 3")

	direct := &UnknownIdentifierError{ID: "nope", Position: -1}
	assert.NotContains(t, direct.Error(), "position")
}
