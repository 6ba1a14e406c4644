// Package dictionary loads keyword dictionaries.
//
// A dictionary is a line-oriented text file:
//
//	# comment line, ignored
//	keyword one
//
//	[category-name]
//	keyword3
//	KeyWord4   # inline comment ignored after tag
//
// Keywords listed before any [category] header are uncategorized.
package dictionary

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// DefaultCommentTag starts a comment in dictionary files.
	DefaultCommentTag = "#"
	// DefaultName is the name reported for the embedded dictionary.
	DefaultName = "megagrep.dict"
)

//go:embed megagrep.dict
var defaultDictionary string

// ErrNoDictionary is returned when every explicitly requested dictionary
// failed to load and nothing else supplied keywords.
var ErrNoDictionary = errors.New("no readable dictionary")

var categoryRegex = regexp.MustCompile(`^\[([\w\-+]+)\]$`)

// Keyword is a literal or wildcard search term.
type Keyword struct {
	Text     string
	Category string // lower-cased, empty when uncategorized
	Source   string
}

// Options control how dictionary files are parsed.
type Options struct {
	// Categories restricts loading to these categories. Empty keeps all.
	Categories []string
	// CommentTag overrides DefaultCommentTag.
	CommentTag string
}

// Logger receives soft errors and diagnostics.
type Logger interface {
	Warnf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Parse reads dictionary lines from r. Category matching is
// case-insensitive.
func Parse(r io.Reader, source string, opts Options) ([]Keyword, error) {
	tag := opts.CommentTag
	if tag == "" {
		tag = DefaultCommentTag
	}
	filter := make(map[string]bool, len(opts.Categories))
	for _, c := range opts.Categories {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			filter[c] = true
		}
	}

	var keywords []Keyword
	current := ""
	add := func(line string) {
		if i := strings.Index(line, tag); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return
		}
		if m := categoryRegex.FindStringSubmatch(line); m != nil {
			current = strings.ToLower(m[1])
			return
		}
		if len(filter) > 0 && !filter[current] {
			return
		}
		keywords = append(keywords, Keyword{Text: line, Category: current, Source: source})
	}

	// Lines may be longer than bufio.Scanner accepts.
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		add(line)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read dictionary %s: %w", source, err)
		}
	}
	return keywords, nil
}

// Load parses the dictionary file at path. It fails soft: an unreadable
// file is reported through log and yields no keywords.
func Load(path string, opts Options, log Logger) []Keyword {
	if log == nil {
		log = nopLogger{}
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	f, err := os.Open(path)
	if err != nil {
		log.Warnf("File %s cannot be opened.", path)
		return nil
	}
	defer f.Close()

	log.Debugf("Adding dictionary: %s", path)
	keywords, err := Parse(f, path, opts)
	if err != nil {
		log.Warnf("%v", err)
		return nil
	}
	return keywords
}

// LoadDefault parses the embedded default dictionary.
func LoadDefault(opts Options) []Keyword {
	// The embedded file is always readable.
	keywords, _ := Parse(strings.NewReader(defaultDictionary), DefaultName, opts)
	return keywords
}

// Sources lists every place keywords may come from.
type Sources struct {
	Words []string
	Dicts []string
	Options
}

// LoadAll gathers keywords from direct words and dictionary files, in that
// order. Duplicates across sources are kept. When neither words nor
// dictionaries are given, the embedded default dictionary is used.
func LoadAll(src Sources, log Logger) ([]Keyword, error) {
	if log == nil {
		log = nopLogger{}
	}

	var keywords []Keyword
	for _, w := range src.Words {
		if w = strings.TrimSpace(w); w != "" {
			keywords = append(keywords, Keyword{Text: w, Source: "word"})
		}
	}
	for _, path := range src.Dicts {
		keywords = append(keywords, Load(path, src.Options, log)...)
	}

	if len(src.Words) == 0 && len(src.Dicts) == 0 {
		log.Debugf("Adding dictionary: %s (default)", DefaultName)
		keywords = LoadDefault(src.Options)
		warnUnmatchedLists(src.Categories, keywords, log)
		return keywords, nil
	}
	if len(keywords) == 0 && len(src.Words) == 0 && !anyReadable(src.Dicts) {
		return nil, fmt.Errorf("%w: %s", ErrNoDictionary, strings.Join(src.Dicts, ", "))
	}
	warnUnmatchedLists(src.Categories, keywords, log)
	return keywords, nil
}

// warnUnmatchedLists reports requested categories that selected nothing.
func warnUnmatchedLists(requested []string, keywords []Keyword, log Logger) {
	found := make(map[string]bool)
	for _, c := range Categories(keywords) {
		found[c] = true
	}
	for _, c := range requested {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" && !found[c] {
			log.Warnf("List %s not found in any dictionary.", c)
		}
	}
}

func anyReadable(paths []string) bool {
	for _, p := range paths {
		if f, err := os.Open(p); err == nil {
			f.Close()
			return true
		}
	}
	return false
}

// Texts returns the keyword strings in order.
func Texts(keywords []Keyword) []string {
	out := make([]string, len(keywords))
	for i, k := range keywords {
		out[i] = k.Text
	}
	return out
}

// Categories returns the distinct categories in first-seen order. The
// uncategorized bucket is reported as an empty string.
func Categories(keywords []Keyword) []string {
	seen := make(map[string]bool)
	var out []string
	for _, k := range keywords {
		if !seen[k.Category] {
			seen[k.Category] = true
			out = append(out, k.Category)
		}
	}
	return out
}

// SplitList splits a comma-separated option value, dropping empty items.
func SplitList(values ...string) []string {
	var out []string
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}
