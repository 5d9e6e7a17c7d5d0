package service

import (
	"strings"

	"github.com/gobwas/glob"
)

// nameMatcher implements the engine's dual name matching rule: a candidate
// matches when the case-insensitive wildcard pattern (`*`, `?`) matches, or
// when its name case-insensitively starts with the pattern's literal,
// wildcard-stripped text. The prefix fallback lets a partial literal match
// without a trailing `*`.
//
// TODO(product): the OR'd prefix fallback is inherited behavior; review
// whether wildcard-only matching would do before anyone starts relying on
// the difference.
type nameMatcher struct {
	glob    glob.Glob
	literal string
}

func newNameMatcher(pattern string) nameMatcher {
	m := nameMatcher{
		literal: strings.ToLower(stripWildcards(pattern)),
	}
	if g, err := glob.Compile(strings.ToLower(pattern)); err == nil {
		m.glob = g
	}
	return m
}

func (m nameMatcher) match(name string) bool {
	lower := strings.ToLower(name)
	if m.glob != nil && m.glob.Match(lower) {
		return true
	}
	return m.literal != "" && strings.HasPrefix(lower, m.literal)
}

func stripWildcards(pattern string) string {
	return strings.Map(func(r rune) rune {
		if r == '*' || r == '?' {
			return -1
		}
		return r
	}, pattern)
}
