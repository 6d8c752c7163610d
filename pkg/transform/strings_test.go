package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicTransforms(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) string
		in   string
		want string
	}{
		{"lower", Lower, "Hello World", "hello world"},
		{"upper", Upper, "Hello World", "HELLO WORLD"},
		{"trim", Trim, "  padded  ", "padded"},
		{"trim keeps inner", Trim, " a b ", "a b"},
		{"trim_left", TrimLeft, "  padded  ", "padded  "},
		{"trim_right", TrimRight, "  padded  ", "  padded"},
		{"squeeze", SqueezeSpaces, "a   b\t\tc", "a b c"},
		{"squeeze keeps edges", SqueezeSpaces, "  a  ", " a "},
		{"reverse", Reverse, "abc", "cba"},
		{"reverse unicode", Reverse, "héllo", "olléh"},
		{"title", Title, "hello BIG world", "Hello Big World"},
		{"title empty", Title, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fn(tt.in))
		})
	}
}

func TestRemoveWord(t *testing.T) {
	drop := RemoveWord("hello")

	// Case-sensitive: "Hello" survives, "hello" does not. Whitespace around
	// the removed word stays in place.
	assert.Equal(t, " world", drop("hello world"))
	assert.Equal(t, "Hello world", drop("Hello world"))
	assert.Equal(t, "unchanged", RemoveWord("")("unchanged"))
}

func TestParameterizedConstructors(t *testing.T) {
	assert.Equal(t, ">>x", Prefix(">>")("x"))
	assert.Equal(t, "x<<", Suffix("<<")("x"))
	assert.Equal(t, "b_b", Replace("a", "b")("a_a"))
	assert.Equal(t, "same", Replace("", "b")("same"))
	assert.Equal(t, "ab", Truncate(2)("abcd"))
	assert.Equal(t, "ab", Truncate(5)("ab"))
	assert.Equal(t, "", Truncate(0)("abcd"))
	assert.Equal(t, "", Truncate(-1)("abcd"))
	assert.Equal(t, "hél", Truncate(3)("héllo"))
}

func TestNewBuiltinRegistry(t *testing.T) {
	registry := NewBuiltinRegistry()
	require.False(t, registry.Frozen())

	for _, id := range []string{IDLower, IDUpper, IDTrim, IDTrimLeft, IDTrimRight, IDSqueezeSpaces, IDReverse, IDTitle} {
		fn, err := registry.Resolve(id)
		require.NoError(t, err, "builtin %q should resolve", id)
		require.NotNil(t, fn)
	}

	// Callers can still add their own steps before freezing.
	require.NoError(t, registry.Register("drop_hello", RemoveWord("hello")))
	registry.Freeze()
	assert.True(t, registry.Frozen())
}
