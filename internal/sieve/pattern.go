package sieve

import (
	"encoding/json"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
)

// Pattern is one matching criterion for a string value: a doublestar glob, a
// compiled regular expression, or an opaque match function.
type Pattern struct {
	kind patternKind
	src  string
	re   *regexp.Regexp
	fn   func(string) bool
}

type patternKind uint8

const (
	kindGlob patternKind = iota
	kindRegexp
	kindFunc
)

// Glob returns a pattern matching gitignore-style globs against slash paths:
// `*` stays inside one path segment, `**` crosses segments, and character
// classes like `[a-z]` are honored.
func Glob(pattern string) Pattern {
	return Pattern{kind: kindGlob, src: pattern}
}

// Regexp returns a pattern matching a compiled regular expression.
func Regexp(re *regexp.Regexp) Pattern {
	return Pattern{kind: kindRegexp, src: re.String(), re: re}
}

// MatchFunc returns a dynamic pattern backed by fn. Dynamic patterns match at
// selection time only: they cannot take part in static pre-filter
// composition, and two of them never compare equal. The name is used for
// display.
func MatchFunc(name string, fn func(string) bool) Pattern {
	return Pattern{kind: kindFunc, src: name, fn: fn}
}

// Match reports whether value satisfies the pattern. A malformed glob
// matches nothing; callers validate glob syntax when patterns are built from
// configuration.
func (p Pattern) Match(value string) bool {
	switch p.kind {
	case kindRegexp:
		return p.re != nil && p.re.MatchString(value)
	case kindFunc:
		return p.fn != nil && p.fn(value)
	default:
		ok, err := doublestar.Match(p.src, value)
		return err == nil && ok
	}
}

// Dynamic reports whether the pattern is an opaque match function.
func (p Pattern) Dynamic() bool {
	return p.kind == kindFunc
}

// Equal reports whether two patterns are interchangeable: same kind and same
// source text. Dynamic patterns are never interchangeable, not even with
// themselves.
func (p Pattern) Equal(o Pattern) bool {
	if p.kind == kindFunc || o.kind == kindFunc {
		return false
	}
	return p.kind == o.kind && p.src == o.src
}

// String returns the pattern source, prefixed for non-glob kinds.
func (p Pattern) String() string {
	switch p.kind {
	case kindRegexp:
		return "regexp:" + p.src
	case kindFunc:
		return "func:" + p.src
	default:
		return p.src
	}
}

// MarshalYAML renders globs as plain strings and the other kinds as tagged
// maps, mirroring the configuration file syntax.
func (p Pattern) MarshalYAML() (any, error) {
	return p.marshal(), nil
}

// MarshalJSON renders the same shape as MarshalYAML.
func (p Pattern) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.marshal())
}

func (p Pattern) marshal() any {
	switch p.kind {
	case kindRegexp:
		return map[string]string{"regex": p.src}
	case kindFunc:
		return map[string]string{"func": p.src}
	default:
		return p.src
	}
}

// matchAny folds a pattern list into a single any-of matcher. An empty list
// matches nothing.
func matchAny(patterns []Pattern) func(string) bool {
	if len(patterns) == 1 {
		return patterns[0].Match
	}
	return func(v string) bool {
		for _, p := range patterns {
			if p.Match(v) {
				return true
			}
		}
		return false
	}
}
