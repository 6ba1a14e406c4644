package scanner

import (
	"path/filepath"
)

// Result is one line, or one filename in names mode, that produced at
// least one match.
type Result struct {
	Path    string  `json:"path"`
	RelPath string  `json:"relPath"`
	Line    int     `json:"line"`
	Text    string  `json:"text"`
	Matches []Match `json:"matches"`
	// Before, After and HasAfter are only filled in extended mode. HasAfter
	// tells a blank following line apart from the end of the file.
	Before   string `json:"before,omitempty"`
	After    string `json:"after,omitempty"`
	HasAfter bool   `json:"hasAfter,omitempty"`
}

// Name returns the base filename.
func (r Result) Name() string {
	return filepath.Base(r.Path)
}

// Keywords returns the distinct matched keywords in offset order.
func (r Result) Keywords() []string {
	seen := make(map[string]bool, len(r.Matches))
	var out []string
	for _, m := range r.Matches {
		if !seen[m.Keyword] {
			seen[m.Keyword] = true
			out = append(out, m.Keyword)
		}
	}
	return out
}

// AllKeywords returns every matched keyword, duplicates included.
func (r Result) AllKeywords() []string {
	out := make([]string, len(r.Matches))
	for i, m := range r.Matches {
		out[i] = m.Keyword
	}
	return out
}

// Stats are the counters of one scan.
type Stats struct {
	Files    int `json:"files"`
	Lines    int `json:"lines"`
	ResLines int `json:"resultLines"`
	Results  int `json:"results"`
}

// Add sums o into s.
func (s *Stats) Add(o Stats) {
	s.Files += o.Files
	s.Lines += o.Lines
	s.ResLines += o.ResLines
	s.Results += o.Results
}

// Report is the outcome of one scan pass.
type Report struct {
	RunID   string   `json:"runId"`
	Mode    Mode     `json:"mode"`
	Root    string   `json:"root"`
	Results []Result `json:"results"`
	Stats   Stats    `json:"stats"`
}

// KeywordFrequencies counts every keyword occurrence across all results.
func (r *Report) KeywordFrequencies() []Frequency {
	var items []string
	for _, res := range r.Results {
		items = append(items, res.AllKeywords()...)
	}
	return TopByFrequency(items)
}

// FileFrequencies counts matching lines per file.
func (r *Report) FileFrequencies() []Frequency {
	items := make([]string, len(r.Results))
	for i, res := range r.Results {
		items[i] = res.RelPath
	}
	return TopByFrequency(items)
}
