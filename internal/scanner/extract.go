package scanner

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Mode selects what is extracted from each line.
type Mode string

const (
	ModeKeyword Mode = "keyword"
	ModeComment Mode = "comment"
	ModeStrings Mode = "strings"
	ModeNames   Mode = "names"
)

// ErrInvalidMode is returned for an unknown scan mode.
var ErrInvalidMode = errors.New("invalid scan mode")

// Modes lists every scan mode. AllModes lists the modes run by --all.
var (
	Modes    = []Mode{ModeKeyword, ModeComment, ModeStrings, ModeNames}
	AllModes = []Mode{ModeKeyword, ModeComment, ModeStrings}
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Modes {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// NeedsKeywords reports whether the mode searches for dictionary keywords.
func (m Mode) NeedsKeywords() bool {
	return m == ModeKeyword || m == ModeNames
}

// LineScanner extracts matches from a single line of text.
type LineScanner interface {
	ScanLine(line string) []Match
}

// KeywordScanner finds every occurrence of every keyword.
type KeywordScanner struct {
	matchers []*Matcher
}

// NewKeywordScanner compiles keywords in dictionary order.
func NewKeywordScanner(keywords []string, caseSensitive bool) (*KeywordScanner, error) {
	matchers, err := CompileAll(keywords, caseSensitive)
	if err != nil {
		return nil, err
	}
	return &KeywordScanner{matchers: matchers}, nil
}

// ScanLine returns the union of all matchers' occurrences sorted by
// offset. Matches at the same offset keep dictionary order.
func (s *KeywordScanner) ScanLine(line string) []Match {
	var matches []Match
	for _, m := range s.matchers {
		matches = append(matches, m.FindAll(line)...)
	}
	sortMatches(matches)
	return matches
}

// ScanName runs the keyword search against a filename.
func (s *KeywordScanner) ScanName(name string) []Match {
	return s.ScanLine(name)
}

// Default one-line comment shapes, tried in order. Each captures the
// comment body in group 1.
var defaultCommentShapes = []*regexp.Regexp{
	regexp.MustCompile(`//(.*)$`),
	regexp.MustCompile(`#(.*)$`),
	regexp.MustCompile(`/\*(.*?)\*/`),
	regexp.MustCompile(`"""(.*?)"""`),
	regexp.MustCompile(`'''(.*?)'''`),
}

// CommentScanner extracts comment bodies with line-local heuristics.
// Block comments spanning several lines are not reconstructed.
type CommentScanner struct {
	shapes []*regexp.Regexp
}

// NewCommentScanner uses the default shapes, or a single
// "everything after tag" rule when tag is set.
func NewCommentScanner(tag string) *CommentScanner {
	if tag == "" {
		return &CommentScanner{shapes: defaultCommentShapes}
	}
	return &CommentScanner{shapes: []*regexp.Regexp{
		regexp.MustCompile(regexp.QuoteMeta(tag) + `(.*)$`),
	}}
}

// ScanLine returns one match per comment body, at the body's offset.
func (s *CommentScanner) ScanLine(line string) []Match {
	var matches []Match
	for _, re := range s.shapes {
		matches = append(matches, captureMatches(re, line)...)
	}
	sortMatches(matches)
	return matches
}

var quotedString = regexp.MustCompile(`"([^"]*)"`)

// StringScanner extracts double-quoted spans. Escaped quotes are not
// special-cased.
type StringScanner struct{}

// ScanLine returns one match per quoted span.
func (StringScanner) ScanLine(line string) []Match {
	return captureMatches(quotedString, line)
}

// captureMatches turns group 1 of every match into a Match. Blank bodies
// are dropped.
func captureMatches(re *regexp.Regexp, line string) []Match {
	var matches []Match
	for _, loc := range re.FindAllStringSubmatchIndex(line, -1) {
		if len(loc) < 4 || loc[2] < 0 {
			continue
		}
		body := line[loc[2]:loc[3]]
		keyword := strings.TrimSpace(body)
		if keyword == "" {
			continue
		}
		matches = append(matches, Match{Offset: loc[2], Keyword: keyword, Text: body})
	}
	return matches
}

// NewLineScanner resolves a content mode into its LineScanner.
func NewLineScanner(mode Mode, keywords []string, cfg ScanConfig) (LineScanner, error) {
	switch mode {
	case ModeKeyword:
		return NewKeywordScanner(keywords, cfg.Sensitive)
	case ModeComment:
		return NewCommentScanner(cfg.CommentTag), nil
	case ModeStrings:
		return StringScanner{}, nil
	default:
		return nil, fmt.Errorf("%w: %q has no line scanner", ErrInvalidMode, mode)
	}
}
