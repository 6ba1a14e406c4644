// Package baseline records results that were already reviewed so later
// scans of the same tree only report what is new.
package baseline

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ejagojo/megagrep/internal/scanner"
)

const (
	// FileName is stored at the scan root. It is hidden, so megagrep never
	// scans it.
	FileName = ".megagrep_baseline.json"
	version  = "1.0"
)

// Baseline represents the suppression file
type Baseline struct {
	Version   string    `json:"version"`
	RunID     string    `json:"runId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Entries   []Entry   `json:"entries"`

	index map[string]bool
}

// Entry is one reviewed result.
type Entry struct {
	Path        string   `json:"path"`
	Line        int      `json:"line"`
	Keywords    []string `json:"keywords"`
	Fingerprint string   `json:"fingerprint"`
}

// Path returns the baseline location for a scan root. A file root keeps
// its baseline next to it.
func Path(root string) string {
	if info, err := os.Stat(root); err == nil && !info.IsDir() {
		root = filepath.Dir(root)
	}
	return filepath.Join(root, FileName)
}

// Load loads the baseline for root. A missing file yields an empty
// baseline.
func Load(root string) (*Baseline, error) {
	data, err := os.ReadFile(Path(root))
	if err != nil {
		if os.IsNotExist(err) {
			return &Baseline{
				Version:   version,
				CreatedAt: time.Now(),
			}, nil
		}
		return nil, fmt.Errorf("failed to read baseline file: %w", err)
	}

	var b Baseline
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse baseline file: %w", err)
	}
	return &b, nil
}

// Save writes the baseline for root.
func (b *Baseline) Save(root string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal baseline: %w", err)
	}

	if err := os.WriteFile(Path(root), data, 0644); err != nil {
		return fmt.Errorf("failed to write baseline: %w", err)
	}
	return nil
}

// Add records a result. It reports whether the result was new.
func (b *Baseline) Add(r scanner.Result) bool {
	fp := Fingerprint(r)
	if b.has(fp) {
		return false
	}

	b.Entries = append(b.Entries, Entry{
		Path:        r.RelPath,
		Line:        r.Line,
		Keywords:    r.Keywords(),
		Fingerprint: fp,
	})
	b.index[fp] = true
	return true
}

// AddReport records every result of a report and returns how many were new.
func (b *Baseline) AddReport(report *scanner.Report) int {
	added := 0
	for _, r := range report.Results {
		if b.Add(r) {
			added++
		}
	}
	b.RunID = report.RunID
	return added
}

// IsSuppressed checks if a result is in the baseline
func (b *Baseline) IsSuppressed(r scanner.Result) bool {
	return b.has(Fingerprint(r))
}

// Filter returns the results that are not suppressed.
func (b *Baseline) Filter(results []scanner.Result) []scanner.Result {
	var filtered []scanner.Result
	for _, r := range results {
		if !b.IsSuppressed(r) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func (b *Baseline) has(fp string) bool {
	if b.index == nil {
		b.index = make(map[string]bool, len(b.Entries))
		for _, e := range b.Entries {
			b.index[e.Fingerprint] = true
		}
	}
	return b.index[fp]
}

// Fingerprint identifies a result by file, line text and keywords. The line
// number is left out so unrelated edits above a reviewed line do not
// resurface it.
func Fingerprint(r scanner.Result) string {
	h := sha256.New()
	h.Write([]byte(r.RelPath))
	h.Write([]byte{0})
	h.Write([]byte(strings.TrimSpace(r.Text)))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(r.Keywords(), "\x00")))
	return fmt.Sprintf("%x", h.Sum(nil))
}
