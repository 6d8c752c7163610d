// Package transform ships the builtin string transformation catalog.
//
// Each transformation is a pure func(string) string suitable for
// registration in an engine.Registry. Parameterized constructors
// (RemoveWord, Prefix, Replace, ...) return closures over their
// configuration; the closure captures immutable values only, keeping the
// purity guarantees of composed pipelines intact.
package transform

import (
	"strings"
	"unicode"

	"github.com/chainline/chainline/pkg/domain"
)

// Lower folds the input to lower case.
func Lower(s string) string { return strings.ToLower(s) }

// Upper folds the input to upper case.
func Upper(s string) string { return strings.ToUpper(s) }

// Trim removes leading and trailing whitespace.
func Trim(s string) string { return strings.TrimSpace(s) }

// TrimLeft removes leading whitespace.
func TrimLeft(s string) string {
	return strings.TrimLeftFunc(s, unicode.IsSpace)
}

// TrimRight removes trailing whitespace.
func TrimRight(s string) string {
	return strings.TrimRightFunc(s, unicode.IsSpace)
}

// SqueezeSpaces collapses runs of whitespace into single spaces. Leading and
// trailing whitespace is preserved as a single space; combine with Trim when
// that is unwanted.
func SqueezeSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte(' ')
				inSpace = true
			}
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// Reverse reverses the input rune-wise.
func Reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

// Title upper-cases the first letter of each space-separated word and
// lower-cases the rest.
func Title(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// RemoveWord returns a transformation that deletes every case-sensitive
// occurrence of word. Surrounding whitespace is left untouched: removing
// "hello" from "hello world" yields " world".
func RemoveWord(word string) domain.Transformation[string] {
	return func(s string) string {
		if word == "" {
			return s
		}
		return strings.ReplaceAll(s, word, "")
	}
}

// Prefix returns a transformation that prepends p.
func Prefix(p string) domain.Transformation[string] {
	return func(s string) string { return p + s }
}

// Suffix returns a transformation that appends suf.
func Suffix(suf string) domain.Transformation[string] {
	return func(s string) string { return s + suf }
}

// Replace returns a transformation that replaces every occurrence of old
// with new.
func Replace(old, new string) domain.Transformation[string] {
	return func(s string) string {
		if old == "" {
			return s
		}
		return strings.ReplaceAll(s, old, new)
	}
}

// Truncate returns a transformation that cuts the input to at most n runes.
// Negative n is treated as zero.
func Truncate(n int) domain.Transformation[string] {
	return func(s string) string {
		if n <= 0 {
			return ""
		}
		runes := []rune(s)
		if len(runes) <= n {
			return s
		}
		return string(runes[:n])
	}
}
