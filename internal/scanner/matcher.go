package scanner

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Match is one occurrence found in a line or filename.
type Match struct {
	Offset  int    `json:"offset"`
	Keyword string `json:"keyword"`
	Text    string `json:"text"`
}

// Matcher pairs a keyword with its compiled pattern.
type Matcher struct {
	Keyword string
	pattern *regexp.Regexp
}

// Compile turns a keyword into a Matcher. Every regex metacharacter is
// escaped except '*', which becomes a greedy wildcard. A wildcard keyword
// starting with a word character must start at a word boundary, so "sql*"
// matches "sqlQuery" but not "mysql". A keyword made only of '*' matches
// a whole line.
func Compile(keyword string, caseSensitive bool) (*Matcher, error) {
	expr := wildcardToRegex(keyword)
	if strings.Contains(keyword, "*") {
		if r, _ := utf8.DecodeRuneInString(keyword); isWordRune(r) {
			expr = `\b` + expr
		}
	}
	if !caseSensitive {
		expr = "(?i)" + expr
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("failed to compile keyword %q: %w", keyword, err)
	}
	return &Matcher{Keyword: keyword, pattern: re}, nil
}

// FindAll returns every non-overlapping occurrence of the keyword in line.
// Empty matches are dropped.
func (m *Matcher) FindAll(line string) []Match {
	locs := m.pattern.FindAllStringIndex(line, -1)
	if len(locs) == 0 {
		return nil
	}
	var matches []Match
	for _, loc := range locs {
		if loc[0] == loc[1] {
			continue
		}
		matches = append(matches, Match{
			Offset:  loc[0],
			Keyword: m.Keyword,
			Text:    line[loc[0]:loc[1]],
		})
	}
	return matches
}

// CompileAll compiles keywords in order.
func CompileAll(keywords []string, caseSensitive bool) ([]*Matcher, error) {
	matchers := make([]*Matcher, 0, len(keywords))
	for _, k := range keywords {
		m, err := Compile(k, caseSensitive)
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, m)
	}
	return matchers, nil
}

// wildcardToRegex escapes s and expands '*' to ".*". The result is not
// anchored.
func wildcardToRegex(s string) string {
	parts := strings.Split(s, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return strings.Join(parts, ".*")
}

func isWordRune(r rune) bool {
	return r == '_' || (r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r)))
}

// sortMatches orders matches by offset, keeping discovery order on ties.
func sortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Offset < matches[j].Offset
	})
}
