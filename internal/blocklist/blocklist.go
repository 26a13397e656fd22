// Package blocklist decides which sub-resource requests a capture suppresses.
//
// Patterns are globs where "*" matches any run of characters. Matching is
// case-insensitive and anchored on the whole URL, so "*ads.example.com*"
// matches "https://ads.example.com/x.js" but "ads.example.com" alone only
// matches that exact string.
package blocklist

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrEmptyPattern is returned when a pattern is blank.
var ErrEmptyPattern = errors.New("blocklist: empty pattern")

// Matcher holds compiled patterns. It is read-only after Compile and safe
// for concurrent use.
type Matcher struct {
	patterns []string
	rules    []*regexp.Regexp
}

// Compile builds a Matcher from glob patterns.
func Compile(patterns []string) (*Matcher, error) {
	m := &Matcher{
		patterns: make([]string, 0, len(patterns)),
		rules:    make([]*regexp.Regexp, 0, len(patterns)),
	}

	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, ErrEmptyPattern
		}
		re, err := regexp.Compile(globToRegexp(p))
		if err != nil {
			return nil, fmt.Errorf("blocklist: pattern %q: %w", p, err)
		}
		m.patterns = append(m.patterns, p)
		m.rules = append(m.rules, re)
	}

	return m, nil
}

// MustCompile is like Compile but panics on error.
// Intended for the built-in list and tests.
func MustCompile(patterns []string) *Matcher {
	m, err := Compile(patterns)
	if err != nil {
		panic(err)
	}
	return m
}

// Default compiles DefaultPatterns plus any extra patterns.
func Default(extra ...string) (*Matcher, error) {
	all := make([]string, 0, len(DefaultPatterns)+len(extra))
	all = append(all, DefaultPatterns...)
	all = append(all, extra...)
	return Compile(all)
}

// ShouldBlock reports whether url matches any pattern.
// A nil Matcher blocks nothing.
func (m *Matcher) ShouldBlock(url string) bool {
	if m == nil {
		return false
	}
	for _, re := range m.rules {
		if re.MatchString(url) {
			return true
		}
	}
	return false
}

// Len returns the number of compiled patterns.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.rules)
}

// Patterns returns a copy of the source patterns.
func (m *Matcher) Patterns() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.patterns))
	copy(out, m.patterns)
	return out
}

// globToRegexp converts a glob into an anchored, case-insensitive regexp.
func globToRegexp(glob string) string {
	parts := strings.Split(glob, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return `(?is)^` + strings.Join(parts, ".*") + `$`
}
