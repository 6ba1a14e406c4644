// Package output renders scan reports.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ejagojo/megagrep/internal/scanner"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// OutputType defines the supported output formats
type OutputType string

const (
	OutputTypePlain    OutputType = "plain"
	OutputTypeExtended OutputType = "extended"
	OutputTypeCSV      OutputType = "csv"
	OutputTypeJSON     OutputType = "json"
	OutputTypeStat     OutputType = "stat"
)

// CSVHeader is the column order spreadsheets used for review tracking rely
// on. Status and Walkthrough are always written empty for manual triage.
var CSVHeader = []string{"Filename", "Line number", "Line", "Found", "Status", "Walkthrough", "Full path"}

// KeywordSeparator joins keywords in the CSV Found column.
const KeywordSeparator = " | "

// Options control rendering.
type Options struct {
	Type  OutputType
	Color bool
	Top   int
}

// Write renders reports to w. Several reports (one per mode with --all)
// are written one after another; CSV and JSON stay a single document.
func Write(w io.Writer, opts Options, reports ...*scanner.Report) error {
	if opts.Top <= 0 {
		opts.Top = scanner.DefaultTop
	}

	switch opts.Type {
	case OutputTypeCSV:
		return writeCSV(w, reports)
	case OutputTypeJSON:
		return writeJSON(w, reports)
	case OutputTypePlain, OutputTypeExtended, OutputTypeStat:
	default:
		return fmt.Errorf("unsupported output type: %s", opts.Type)
	}

	p := newPalette(opts.Color)
	for _, r := range reports {
		if len(reports) > 1 {
			if _, err := fmt.Fprintln(w, p.header.Sprint(centered(" "+strings.ToUpper(string(r.Mode))+" "))); err != nil {
				return err
			}
		}
		var err error
		switch opts.Type {
		case OutputTypeStat:
			err = writeStat(w, r, opts.Top)
		case OutputTypeExtended:
			err = writeText(w, r, p, true)
		default:
			err = writeText(w, r, p, false)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

type palette struct {
	file    *color.Color
	lineNo  *color.Color
	keyword *color.Color
	context *color.Color
	header  *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		file:    color.New(color.FgMagenta, color.Bold),
		lineNo:  color.New(color.FgGreen),
		keyword: color.New(color.FgRed, color.Bold),
		context: color.New(color.Faint),
		header:  color.New(color.FgCyan, color.Bold),
	}
	for _, c := range []*color.Color{p.file, p.lineNo, p.keyword, p.context, p.header} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func centered(title string) string {
	const width = 79
	if len(title) >= width {
		return title
	}
	left := (width - len(title)) / 2
	return strings.Repeat("-", left) + title + strings.Repeat("-", width-left-len(title))
}

// writeText renders one block per result:
//
//	path/to/file.go:12 [password, token]
//	    line text
func writeText(w io.Writer, r *scanner.Report, p palette, extended bool) error {
	for _, res := range r.Results {
		loc := p.file.Sprint(res.RelPath)
		if res.Line > 0 {
			loc += ":" + p.lineNo.Sprint(res.Line)
		}
		if _, err := fmt.Fprintf(w, "%s [%s]\n", loc, strings.Join(res.Keywords(), ", ")); err != nil {
			return err
		}

		if res.Line == 0 {
			continue
		}
		if extended {
			if res.Line > 1 {
				if _, err := fmt.Fprintf(w, "  %5d | %s\n", res.Line-1, p.context.Sprint(res.Before)); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "  %5d | %s\n", res.Line, Highlight(res.Text, res.Matches, p.keyword)); err != nil {
				return err
			}
			if res.HasAfter {
				if _, err := fmt.Fprintf(w, "  %5d | %s\n", res.Line+1, p.context.Sprint(res.After)); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "    %s\n", strings.TrimSpace(Highlight(res.Text, res.Matches, p.keyword))); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "%d result(s), %d match(es) in %d file(s) scanned\n",
		r.Stats.ResLines, r.Stats.Results, r.Stats.Files)
	return err
}

// Highlight wraps every match of line in c. Overlapping matches are
// merged into the earliest one.
func Highlight(line string, matches []scanner.Match, c *color.Color) string {
	var b strings.Builder
	pos := 0
	for _, m := range matches {
		start, end := m.Offset, m.Offset+len(m.Text)
		if start < pos || end > len(line) || start == end {
			continue
		}
		b.WriteString(line[pos:start])
		b.WriteString(c.Sprint(line[start:end]))
		pos = end
	}
	b.WriteString(line[pos:])
	return b.String()
}

// writeCSV writes one row per result.
func writeCSV(w io.Writer, reports []*scanner.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range reports {
		for _, res := range r.Results {
			if err := cw.Write(CSVRow(res)); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSVRow returns the CSV fields of a result in CSVHeader order.
func CSVRow(res scanner.Result) []string {
	return []string{
		res.Name(),
		fmt.Sprint(res.Line),
		strings.TrimSpace(res.Text),
		strings.Join(res.Keywords(), KeywordSeparator),
		"",
		"",
		res.Path,
	}
}

// writeJSON writes a single report as an object and several as an array.
func writeJSON(w io.Writer, reports []*scanner.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if len(reports) == 1 {
		return enc.Encode(reports[0])
	}
	return enc.Encode(reports)
}

// writeStat renders the scan counters and top-N tables.
func writeStat(w io.Writer, r *scanner.Report, top int) error {
	summary := newTable("Statistics")
	summary.AppendHeader(table.Row{"Counter", "Value"})
	summary.AppendRows([]table.Row{
		{"Files scanned", r.Stats.Files},
		{"Lines scanned", r.Stats.Lines},
		{"Lines with results", r.Stats.ResLines},
		{"Total results", r.Stats.Results},
	})

	tables := []table.Writer{
		summary,
		frequencyTable(fmt.Sprintf("Top %d keywords", top), "Keyword", scanner.Top(r.KeywordFrequencies(), top)),
		frequencyTable(fmt.Sprintf("Top %d files", top), "File", scanner.Top(r.FileFrequencies(), top)),
	}
	for _, t := range tables {
		if _, err := fmt.Fprintln(w, t.Render()); err != nil {
			return err
		}
	}
	return nil
}

func frequencyTable(title, column string, freqs []scanner.Frequency) table.Writer {
	t := newTable(title)
	t.AppendHeader(table.Row{"#", "Count", column})
	for i, f := range freqs {
		t.AppendRow(table.Row{i + 1, f.Count, f.Value})
	}
	return t
}

func newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetTitle(title)
	t.SetStyle(table.StyleLight)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})
	return t
}
