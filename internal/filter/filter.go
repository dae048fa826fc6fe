// Package filter classifies log lines as kept or dropped against a pair of
// regex sets compiled once at startup.
package filter

import (
	"fmt"
	"regexp"
)

// Filter decides whether a line should be shipped or dropped.
type Filter struct {
	match   []*regexp.Regexp
	exclude []*regexp.Regexp
}

// New compiles matchPatterns and excludePatterns once. An invalid pattern
// in either list is a configuration error — it is returned, never
// recovered from, per the design's ConfigError semantics.
func New(matchPatterns, excludePatterns []string) (*Filter, error) {
	match, err := compileAll(matchPatterns)
	if err != nil {
		return nil, fmt.Errorf("match_on: %w", err)
	}
	exclude, err := compileAll(excludePatterns)
	if err != nil {
		return nil, fmt.Errorf("exclude_on: %w", err)
	}
	return &Filter{match: match, exclude: exclude}, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// Keep reports whether line should be shipped. Exclude patterns win over
// match patterns: any exclude match drops the line regardless of match_on.
// With both lists empty every line is kept.
func (f *Filter) Keep(line string) bool {
	for _, re := range f.exclude {
		if re.MatchString(line) {
			return false
		}
	}
	if len(f.match) == 0 {
		return true
	}
	for _, re := range f.match {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
