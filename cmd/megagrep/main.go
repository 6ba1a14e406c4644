package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/ejagojo/megagrep/internal/baseline"
	"github.com/ejagojo/megagrep/internal/dictionary"
	"github.com/ejagojo/megagrep/internal/gitx"
	"github.com/ejagojo/megagrep/internal/logger"
	"github.com/ejagojo/megagrep/internal/output"
	"github.com/ejagojo/megagrep/internal/scanner"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	version        = "dev" // Set by ldflags
	configPath     string
	verbose        bool
	sensitive      bool
	allModes       bool
	mode           string
	statOutput     bool
	csvOutput      bool
	extendedOutput bool
	outputType     string
	outputFile     string
	include        []string
	exclude        []string
	words          []string
	dicts          []string
	lists          []string
	commentTag     string
	top            int
	threads        int
	maxFileSize    int64
	since          string
	noBaseline     bool
	updateBaseline bool
	failOnResults  bool
	forceConfig    bool
)

// exitWith is a function that can be replaced in tests
var exitWith = func(err error, reports []*scanner.Report) {
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if failOnResults {
		for _, r := range reports {
			if len(r.Results) > 0 {
				os.Exit(3)
			}
		}
	}
	os.Exit(0)
}

var rootCmd = &cobra.Command{
	Use:   "megagrep",
	Short: "Locate critical areas and keywords in code",
	Long: `Megagrep helps beginning a code review by looking at keywords using "grep".
This is not a static analysis tool, it just searches for places in the code
that require to be investigated manually.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan a tree for keywords, comments, strings or filenames",
	Long: `Recursively scan path (default: current directory) and report every line
matching the dictionary keywords, or every comment, string or filename
depending on the mode. Hidden files and directories are never scanned.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}

		log := newLogger(config)
		log.Debugf("Options: %+v", config)

		reports, err := runScan(cmd.Context(), config, log)
		if err != nil {
			return err
		}

		if err := writeReports(config, reports, cmd.OutOrStdout()); err != nil {
			return err
		}

		exitWith(nil, reports)
		return nil
	},
}

var dictCmd = &cobra.Command{
	Use:   "dict",
	Short: "Show the keywords that a scan would search for",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig(cmd, nil)
		if err != nil {
			return err
		}

		keywords, err := dictionary.LoadAll(config.KeywordSources(), newLogger(config))
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Category", "Keyword", "Source"})
		for _, k := range keywords {
			category := k.Category
			if category == "" {
				category = "-"
			}
			t.AppendRow(table.Row{category, k.Text, k.Source})
		}
		t.AppendFooter(table.Row{"", fmt.Sprintf("%d keyword(s)", len(keywords)), ""})
		t.Render()
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Long: `Write the built-in defaults to the configuration file (default:
~/.megagrep.yaml) so they can be edited. An existing file is kept unless
--force is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(configPath); err == nil && !forceConfig {
			return fmt.Errorf("config file %s already exists, use --force to overwrite", configPath)
		}
		if err := scanner.SaveConfig(scanner.DefaultConfig(), configPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", configPath)
		return nil
	},
}

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Manage reviewed results",
	Long: `Results recorded in the baseline file are hidden from later scans.
Record the current results with "megagrep scan --update-baseline".`,
}

var baselineListCmd = &cobra.Command{
	Use:   "list [path]",
	Short: "List baseline entries",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) > 0 {
			root = args[0]
		}

		b, err := baseline.Load(root)
		if err != nil {
			return fmt.Errorf("failed to load baseline: %w", err)
		}

		for _, e := range b.Entries {
			fmt.Fprintf(cmd.OutOrStdout(), "%s:%d [%s] %s\n", e.Path, e.Line, strings.Join(e.Keywords, ", "), shortFingerprint(e.Fingerprint))
		}
		return nil
	},
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}

// loadConfig merges the config file, environment and changed flags.
func loadConfig(cmd *cobra.Command, args []string) (scanner.ScanConfig, error) {
	config, err := scanner.LoadConfig(configPath)
	if err != nil {
		return config, fmt.Errorf("failed to load config: %w", err)
	}

	flags := make(map[string]interface{})
	set := func(name string, v interface{}) {
		if cmd.Flags().Changed(name) {
			flags[name] = v
		}
	}
	set("verbose", verbose)
	set("sensitive", sensitive)
	set("all", allModes)
	set("mode", mode)
	set("stat", statOutput)
	set("csv", csvOutput)
	set("extended", extendedOutput)
	set("type", outputType)
	set("out", outputFile)
	set("include", include)
	set("exclude", exclude)
	set("word", words)
	set("dict", dicts)
	set("list", lists)
	set("comment-tag", commentTag)
	set("top", top)
	set("threads", threads)
	set("max-file-size", maxFileSize)
	set("since", since)
	set("no-baseline", noBaseline)
	if len(args) > 0 {
		flags["path"] = args[0]
	}

	config = scanner.MergeConfig(config, flags)
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

func newLogger(config scanner.ScanConfig) *logger.ConsoleLogger {
	level := "info"
	if config.Verbose {
		level = "debug"
	}
	return logger.NewConsoleLogger(os.Stderr, level)
}

// runScan runs one pass per requested mode.
func runScan(ctx context.Context, config scanner.ScanConfig, log *logger.ConsoleLogger) ([]*scanner.Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	modes := []scanner.Mode{config.Mode}
	if config.All {
		modes = scanner.AllModes
	}

	var keywords []string
	if needsKeywords(modes) {
		loaded, err := dictionary.LoadAll(config.KeywordSources(), log)
		if err != nil {
			return nil, err
		}
		keywords = dictionary.Texts(loaded)
		log.Debugf("Keywords: %s", strings.Join(keywords, ", "))
	}
	log.Debugf("Path to scan (recursive): %s", config.Path)
	log.Debugf("File included: %s", strings.Join(config.Include, ","))
	log.Debugf("File excluded: %s", strings.Join(config.Exclude, ","))

	var opts []scanner.Option
	if config.Since != "" {
		var paths []string
		var err error
		if from, to, ok := strings.Cut(config.Since, ".."); ok {
			paths, err = gitx.RangePaths(config.Path, from, to)
		} else {
			paths, err = gitx.ChangedPaths(config.Path, config.Since)
		}
		if err != nil {
			return nil, err
		}
		log.Debugf("%d file(s) changed since %s", len(paths), config.Since)
		opts = append(opts, scanner.WithOnly(paths))
	}

	var b *baseline.Baseline
	if !config.NoBaseline {
		var err error
		if b, err = baseline.Load(config.Path); err != nil {
			return nil, err
		}
	}

	var reports []*scanner.Report
	for _, m := range modes {
		s, err := scanner.New(config.WithMode(m), keywords, log, opts...)
		if err != nil {
			if errors.Is(err, scanner.ErrNoKeywords) {
				return nil, fmt.Errorf("%w: check --word, --dict and --list", err)
			}
			return nil, err
		}

		report, err := s.Run(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}

		if b != nil {
			if updateBaseline {
				added := b.AddReport(report)
				log.Infof("Added %d result(s) to baseline", added)
			} else {
				before := len(report.Results)
				report.Results = b.Filter(report.Results)
				if n := before - len(report.Results); n > 0 {
					log.Debugf("%d result(s) suppressed by baseline", n)
				}
			}
		}
		reports = append(reports, report)
	}

	if b != nil && updateBaseline {
		if err := b.Save(config.Path); err != nil {
			return nil, err
		}
	}
	return reports, nil
}

func needsKeywords(modes []scanner.Mode) bool {
	for _, m := range modes {
		if m.NeedsKeywords() {
			return true
		}
	}
	return false
}

// writeReports renders to the configured file, or to stdout.
func writeReports(config scanner.ScanConfig, reports []*scanner.Report, stdout io.Writer) (err error) {
	w := stdout
	if config.OutFile != "" {
		f, createErr := os.Create(config.OutFile)
		if createErr != nil {
			return fmt.Errorf("failed to create output file: %w", createErr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("failed to close output file: %w", cerr)
			}
		}()
		w = f
	}

	opts := output.Options{
		Type:  output.OutputType(config.Output),
		Color: logger.IsTerminal(w),
		Top:   config.Top,
	}
	if err := output.Write(w, opts, reports...); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}

func init() {
	configPath = scanner.DefaultConfigPath()

	for _, cmd := range []*cobra.Command{scanCmd, dictCmd} {
		cmd.Flags().StringVarP(&configPath, "config", "c", configPath, "path to configuration file")
		cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose mode")
		cmd.Flags().StringSliceVarP(&words, "word", "w", nil, "search for specific word(s)")
		cmd.Flags().StringSliceVarP(&dicts, "dict", "d", nil, "use other dictionary file(s)")
		cmd.Flags().StringSliceVarP(&lists, "list", "l", nil, "use specific list(s) from dictionary file(s)")
	}

	// Scan command flags
	scanCmd.Flags().BoolVarP(&sensitive, "sensitive", "s", false, "enable case-sensitive mode (default is case insensitive)")
	scanCmd.Flags().BoolVarP(&allModes, "all", "A", false, "run keyword, comment and strings modes successively")
	scanCmd.Flags().StringVarP(&mode, "mode", "m", "keyword", "scan mode (keyword, comment, strings, names, stat)")
	scanCmd.Flags().BoolVarP(&statOutput, "stat", "S", false, "give only statistics about the code")
	scanCmd.Flags().BoolVar(&csvOutput, "csv", false, "output in CSV format")
	scanCmd.Flags().BoolVarP(&extendedOutput, "extended", "e", false, "show the lines around each result")
	scanCmd.Flags().StringVarP(&outputType, "type", "t", "plain", "output type (plain, extended, csv, json, stat)")
	scanCmd.Flags().StringVarP(&outputFile, "out", "o", "", "output file (default: stdout)")
	scanCmd.Flags().StringSliceVarP(&include, "include", "i", nil, "files to include in search (ex: *.java)")
	scanCmd.Flags().StringSliceVarP(&exclude, "exclude", "x", []string{"*.min.js"}, "files to exclude from search")
	scanCmd.Flags().StringVar(&commentTag, "comment-tag", "", "only match comments starting with this tag")
	scanCmd.Flags().IntVar(&top, "top", scanner.DefaultTop, "number of entries in statistics tables")
	scanCmd.Flags().IntVar(&threads, "threads", 1, "number of files scanned concurrently")
	scanCmd.Flags().Int64Var(&maxFileSize, "max-file-size", 0, "skip files larger than this many bytes (0: no limit)")
	scanCmd.Flags().StringVar(&since, "since", "", "only scan files changed since this git revision (or in a from..to range)")
	scanCmd.Flags().BoolVar(&noBaseline, "no-baseline", false, "ignore baseline suppressions")
	scanCmd.Flags().BoolVar(&updateBaseline, "update-baseline", false, "record current results in the baseline")
	scanCmd.Flags().BoolVar(&failOnResults, "fail", false, "exit with status 3 when results are found")

	configInitCmd.Flags().StringVarP(&configPath, "config", "c", configPath, "path to configuration file")
	configInitCmd.Flags().BoolVar(&forceConfig, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)

	baselineCmd.AddCommand(baselineListCmd)

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(dictCmd)
	rootCmd.AddCommand(baselineCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		exitWith(err, nil)
	}
}
