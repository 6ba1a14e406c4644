package scanner

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ejagojo/megagrep/internal/dictionary"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed config.schema.json
var configSchema string

// ScanConfig holds everything one scan needs. It is built once and never
// mutated by the scanner.
type ScanConfig struct {
	Path        string   `yaml:"path,omitempty"`
	Sensitive   bool     `yaml:"sensitive,omitempty"`
	Mode        Mode     `yaml:"mode,omitempty"`
	All         bool     `yaml:"all,omitempty"`
	Include     []string `yaml:"include,omitempty"`
	Exclude     []string `yaml:"exclude,omitempty"`
	Words       []string `yaml:"words,omitempty"`
	Dicts       []string `yaml:"dicts,omitempty"`
	Lists       []string `yaml:"lists,omitempty"`
	CommentTag  string   `yaml:"comment_tag,omitempty"`
	Output      string   `yaml:"output,omitempty"`
	OutFile     string   `yaml:"out,omitempty"`
	Top         int      `yaml:"top,omitempty"`
	Threads     int      `yaml:"threads,omitempty"`
	MaxFileSize int64    `yaml:"max_file_size,omitempty"`
	Since       string   `yaml:"since,omitempty"`
	NoBaseline  bool     `yaml:"no_baseline,omitempty"`
	Verbose     bool     `yaml:"verbose,omitempty"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() ScanConfig {
	return ScanConfig{
		Path:    ".",
		Mode:    ModeKeyword,
		Exclude: []string{"*.min.js"},
		Output:  "plain",
		Top:     DefaultTop,
		Threads: 1,
	}
}

// DefaultConfigPath returns the default path to the configuration file
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".megagrep.yaml"
	}
	return filepath.Join(home, ".megagrep.yaml")
}

// LoadConfig loads the configuration at path on top of the defaults. A
// missing file yields the defaults.
func LoadConfig(path string) (ScanConfig, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, fmt.Errorf("failed to read config: %w", err)
	}

	if err := validateSchema(data); err != nil {
		return config, err
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse config: %w", err)
	}

	return config.Normalize(), nil
}

// validateSchema checks raw YAML against the embedded JSON schema.
func validateSchema(data []byte) error {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse config yaml: %w", err)
	}
	if raw == nil {
		return nil
	}

	// Round-trip through JSON so numbers become json.Number.
	buf, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(buf))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	schema, err := jsonschema.CompileString("config.schema.json", configSchema)
	if err != nil {
		return fmt.Errorf("failed to compile config schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SaveConfig saves the configuration to the given path
func SaveConfig(config ScanConfig, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// MergeConfig merges environment variables and flags into the config.
// Only flags present in the map are applied.
func MergeConfig(config ScanConfig, flags map[string]interface{}) ScanConfig {
	merged := config

	// Environment variables take precedence over config file
	if v := os.Getenv("MEGAGREP_DICT"); v != "" {
		merged.Dicts = dictionary.SplitList(v)
	}
	if v := os.Getenv("MEGAGREP_EXCLUDE"); v != "" {
		merged.Exclude = dictionary.SplitList(v)
	}

	// Command line flags take precedence over everything
	for k, v := range flags {
		switch val := v.(type) {
		case string:
			switch k {
			case "path":
				merged.Path = val
			case "mode":
				merged.Mode = Mode(val)
			case "comment-tag":
				merged.CommentTag = val
			case "type":
				merged.Output = val
			case "out":
				merged.OutFile = val
			case "since":
				merged.Since = val
			}
		case []string:
			switch k {
			case "include":
				merged.Include = dictionary.SplitList(val...)
			case "exclude":
				merged.Exclude = dictionary.SplitList(val...)
			case "word":
				merged.Words = dictionary.SplitList(val...)
			case "dict":
				merged.Dicts = dictionary.SplitList(val...)
			case "list":
				merged.Lists = dictionary.SplitList(val...)
			}
		case bool:
			switch k {
			case "sensitive":
				merged.Sensitive = val
			case "all":
				merged.All = val
			case "no-baseline":
				merged.NoBaseline = val
			case "verbose":
				merged.Verbose = val
			}
		case int:
			switch k {
			case "top":
				merged.Top = val
			case "threads":
				merged.Threads = val
			}
		case int64:
			if k == "max-file-size" {
				merged.MaxFileSize = val
			}
		}
	}

	// Output shortcuts override --type, the most specific one last.
	for _, k := range []string{"extended", "csv", "stat"} {
		if on, ok := flags[k].(bool); ok && on {
			merged.Output = k
		}
	}

	return merged.Normalize()
}

// Normalize folds aliases: mode "stat" means a keyword scan rendered as
// statistics.
func (c ScanConfig) Normalize() ScanConfig {
	c.Mode = Mode(strings.ToLower(strings.TrimSpace(string(c.Mode))))
	switch c.Mode {
	case "":
		c.Mode = ModeKeyword
	case "stat":
		c.Mode = ModeKeyword
		c.Output = "stat"
	}
	if c.Output == "" {
		c.Output = "plain"
	}
	if c.Path == "" {
		c.Path = "."
	}
	return c
}

// Validate reports configuration errors.
func (c ScanConfig) Validate() error {
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return err
	}
	if !validOutput(c.Output) {
		return fmt.Errorf("unsupported output type: %s", c.Output)
	}
	if c.Top <= 0 {
		return fmt.Errorf("top must be positive, got %d", c.Top)
	}
	if c.Threads <= 0 {
		return fmt.Errorf("threads must be positive, got %d", c.Threads)
	}
	if c.MaxFileSize < 0 {
		return fmt.Errorf("max file size must not be negative, got %d", c.MaxFileSize)
	}
	return nil
}

func validOutput(output string) bool {
	switch output {
	case "plain", "extended", "csv", "json", "stat":
		return true
	}
	return false
}

// WithMode returns a copy of c scanning in mode m.
func (c ScanConfig) WithMode(m Mode) ScanConfig {
	c.Mode = m
	return c
}

// KeywordSources describes where keywords are loaded from.
func (c ScanConfig) KeywordSources() dictionary.Sources {
	return dictionary.Sources{
		Words:   c.Words,
		Dicts:   c.Dicts,
		Options: dictionary.Options{Categories: c.Lists},
	}
}

// Extended reports whether results need surrounding line context.
func (c ScanConfig) Extended() bool {
	return c.Output == "extended"
}
