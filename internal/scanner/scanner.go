// Package scanner walks a directory tree and extracts keyword, comment,
// string or filename matches from every file that passes the
// include/exclude filter.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrNoKeywords is returned when a keyword-based mode has nothing to search.
var ErrNoKeywords = errors.New("no keywords to search for")

// Logger receives soft errors and diagnostics.
type Logger interface {
	Warnf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Debugf(string, ...interface{}) {}

// fileScanner scans one accepted file. It is chosen once per Scanner from
// the mode.
type fileScanner interface {
	scan(path, name string) ([]Result, Stats, error)
}

// Scanner runs one scan pass over a tree.
type Scanner struct {
	cfg    ScanConfig
	filter *Filter
	files  fileScanner
	only   map[string]bool
	log    Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithOnly restricts the scan to the given absolute file paths.
func WithOnly(paths []string) Option {
	return func(s *Scanner) {
		s.only = make(map[string]bool, len(paths))
		for _, p := range paths {
			s.only[filepath.Clean(p)] = true
		}
	}
}

// New builds a Scanner for cfg.Mode searching keywords.
func New(cfg ScanConfig, keywords []string, log Logger, opts ...Option) (*Scanner, error) {
	if log == nil {
		log = nopLogger{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Mode.NeedsKeywords() && len(keywords) == 0 {
		return nil, ErrNoKeywords
	}

	filter, err := NewFilter(cfg.Include, cfg.Exclude)
	if err != nil {
		return nil, err
	}

	s := &Scanner{cfg: cfg, filter: filter, log: log}
	if cfg.Mode == ModeNames {
		ks, err := NewKeywordScanner(keywords, cfg.Sensitive)
		if err != nil {
			return nil, err
		}
		s.files = &nameScanner{keywords: ks}
	} else {
		ls, err := NewLineScanner(cfg.Mode, keywords, cfg)
		if err != nil {
			return nil, err
		}
		s.files = &contentScanner{
			lines:       ls,
			extended:    cfg.Extended(),
			maxFileSize: cfg.MaxFileSize,
			log:         log,
		}
	}

	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run walks the configured root and returns every Result with the scan
// Stats. Results are ordered by file path, then line. Unreadable files are
// skipped with a warning; a missing root is an error.
func (s *Scanner) Run(ctx context.Context) (*Report, error) {
	root, err := filepath.Abs(s.cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", s.cfg.Path, err)
	}
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", root, err)
	}
	// WalkDir does not descend into a symlinked root.
	if info, err := os.Lstat(root); err == nil && info.Mode()&fs.ModeSymlink != 0 {
		if root, err = filepath.EvalSymlinks(root); err != nil {
			return nil, fmt.Errorf("cannot resolve %s: %w", s.cfg.Path, err)
		}
	}

	paths, err := s.collect(root)
	if err != nil {
		return nil, err
	}
	s.log.Debugf("%d file(s) to scan under %s", len(paths), root)

	type fileOutcome struct {
		results []Result
		stats   Stats
	}
	outcomes := make([]fileOutcome, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Threads)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results, stats, err := s.files.scan(path, filepath.Base(path))
			if err != nil {
				s.log.Warnf("%v", err)
				return nil
			}
			for j := range results {
				results[j].RelPath = relPath(root, path)
			}
			outcomes[i] = fileOutcome{results: results, stats: stats}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{
		RunID: uuid.NewString(),
		Mode:  s.cfg.Mode,
		Root:  root,
	}
	for _, o := range outcomes {
		report.Results = append(report.Results, o.results...)
		report.Stats.Add(o.stats)
	}
	return report, nil
}

// collect lists files to scan in lexical order. Hidden entries are pruned
// and the filter is applied to each filename.
func (s *Scanner) collect(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			s.log.Warnf("Cannot read %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if path != root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if path == root && isHidden(d.Name()) {
			return nil
		}
		if !isRegularFile(path, d) {
			return nil
		}
		if !s.filter.Allow(d.Name()) {
			return nil
		}
		if s.only != nil && !s.only[path] {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return paths, nil
}

// isRegularFile follows symlinks so linked files are scanned and linked
// directories are not.
func isRegularFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func relPath(root, path string) string {
	if root == path {
		return filepath.Base(path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// nameScanner matches keywords against filenames without opening files.
type nameScanner struct {
	keywords *KeywordScanner
}

func (n *nameScanner) scan(path, name string) ([]Result, Stats, error) {
	stats := Stats{Files: 1, Lines: 1}
	matches := n.keywords.ScanName(name)
	if len(matches) == 0 {
		return nil, stats, nil
	}
	stats.ResLines = 1
	stats.Results = len(matches)
	return []Result{{Path: path, Line: 0, Text: name, Matches: matches}}, stats, nil
}

// contentScanner runs a LineScanner over every line of a text file.
type contentScanner struct {
	lines       LineScanner
	extended    bool
	maxFileSize int64
	log         Logger
}

func (c *contentScanner) scan(path, _ string) ([]Result, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("file %s cannot be opened", path)
	}
	defer f.Close()

	if c.maxFileSize > 0 {
		if info, err := f.Stat(); err == nil && info.Size() > c.maxFileSize {
			c.log.Debugf("Skipping %s: %d bytes exceeds limit", path, info.Size())
			return nil, Stats{}, nil
		}
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("file %s cannot be read: %v", path, err)
	}
	if !utf8.Valid(data) {
		return nil, Stats{}, fmt.Errorf("file %s cannot be decoded as text", path)
	}

	lines := splitLines(string(data))
	results, stats := c.scanLines(path, lines)
	stats.Files = 1
	return results, stats, nil
}

func (c *contentScanner) scanLines(path string, lines []string) ([]Result, Stats) {
	var results []Result
	var stats Stats
	for i, line := range lines {
		stats.Lines++
		if strings.TrimSpace(line) == "" {
			continue
		}
		matches := c.lines.ScanLine(line)
		if len(matches) == 0 {
			continue
		}
		stats.ResLines++
		stats.Results += len(matches)

		res := Result{Path: path, Line: i + 1, Text: line, Matches: matches}
		if c.extended {
			if i > 0 {
				res.Before = lines[i-1]
			}
			if i+1 < len(lines) {
				res.After = lines[i+1]
				res.HasAfter = true
			}
		}
		results = append(results, res)
	}
	return results, stats
}

// splitLines splits text on newlines, dropping the empty piece after a
// trailing newline and any carriage return.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
