package scanner

import (
	"fmt"
	"regexp"
)

// Filter decides whether a filename takes part in a scan. Exclude rules
// are evaluated first; an empty include set accepts everything.
type Filter struct {
	include []*regexp.Regexp
	exclude []*regexp.Regexp
}

// NewFilter compiles include and exclude globs. In a glob '*' matches any
// sequence and every other character is literal; globs are anchored to the
// full filename.
func NewFilter(include, exclude []string) (*Filter, error) {
	inc, err := compileGlobs(include)
	if err != nil {
		return nil, err
	}
	exc, err := compileGlobs(exclude)
	if err != nil {
		return nil, err
	}
	return &Filter{include: inc, exclude: exc}, nil
}

// Allow reports whether name passes the filter.
func (f *Filter) Allow(name string) bool {
	if f == nil {
		return true
	}
	for _, re := range f.exclude {
		if re.MatchString(name) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, re := range f.include {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

func compileGlobs(globs []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(globs))
	for _, g := range globs {
		if g == "" {
			continue
		}
		re, err := regexp.Compile("^" + wildcardToRegex(g) + "$")
		if err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", g, err)
		}
		out = append(out, re)
	}
	return out, nil
}
