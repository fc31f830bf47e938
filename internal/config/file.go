package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultRulesFile is the rules file picked up from the scanned directory
// when -config is not given.
const DefaultRulesFile = "rule-sieve.yaml"

// File is the parsed rules file. It declares what the engine works with:
// user-level path settings, the category classification table, the external
// compiler command, and the rule list with its override fragments.
type File struct {
	// Include and Exclude are the user-level path settings. Either accepts a
	// single pattern or a pattern list. When absent, Include derives from
	// the category extensions and Exclude falls back to the dependency
	// directories (see Resolve).
	Include PatternList `yaml:"include"`
	Exclude PatternList `yaml:"exclude"`

	// Categories maps a category tag to the file extensions it covers,
	// e.g. typescript: [ts, tsx].
	Categories map[string][]string `yaml:"categories"`

	// Compiler configures the external compiler invocation.
	Compiler CompilerConfig `yaml:"compiler"`

	// Rules is the main rule list, in application order.
	Rules []RuleConfig `yaml:"rules"`

	// Overrides are rule fragments merged after the main list. Each
	// fragment's rules pass through the lifecycle gates on their own.
	Overrides []OverrideConfig `yaml:"overrides"`
}

// CompilerConfig names the external compiler and its fixed arguments.
type CompilerConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	Timeout Duration `yaml:"timeout"`
}

// RuleConfig is one transformation rule entry.
type RuleConfig struct {
	// Name identifies the preset forwarded to the compiler. Required.
	Name string `yaml:"name"`

	// Args are extra per-preset arguments forwarded verbatim.
	Args []string `yaml:"args"`

	// Filter limits which files the rule applies to. A nil filter matches
	// every file.
	Filter *FilterConfig `yaml:"filter"`

	// Phases limits the rule to the named build phases ("build", "watch").
	// Empty means every phase.
	Phases []string `yaml:"phases"`

	// Environments limits the rule to the named environments. Empty means
	// every environment.
	Environments []string `yaml:"environments"`
}

// OverrideConfig is one override fragment. Its include/exclude, when
// present, become the default path filter for rules in the fragment that do
// not declare their own.
type OverrideConfig struct {
	Include PatternList  `yaml:"include"`
	Exclude PatternList  `yaml:"exclude"`
	Rules   []RuleConfig `yaml:"rules"`
}

// DefaultFile returns the configuration used when no rules file exists. It
// carries no rules and no compiler, only the stock category table.
func DefaultFile() *File {
	return &File{
		Categories: map[string][]string{
			"javascript": {"js", "jsx", "mjs", "cjs"},
			"typescript": {"ts", "tsx", "mts", "cts"},
			"css":        {"css"},
			"html":       {"html"},
			"json":       {"json"},
			"markdown":   {"md"},
		},
	}
}

// Load reads and parses path into a File layered over the defaults. Unknown
// top-level or rule keys are load errors, as are malformed patterns; a
// broken rules file never half-loads.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read rules file: %w", err)
	}

	f := DefaultFile()
	dec := newStrictDecoder(bytes.NewReader(data))
	if err := dec.Decode(f); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", filepath.Base(path), err)
	}
	return f, nil
}

// newStrictDecoder rejects unknown mapping keys wherever a struct is
// decoded, so misspelled rule fields fail loudly instead of vanishing.
func newStrictDecoder(r io.Reader) *yaml.Decoder {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	return dec
}

// LoadRules locates and loads the rules file for a scan rooted at rootDir.
// An explicit path is used as given; otherwise the default file is picked up
// from rootDir when present. The returned path is empty when no file was
// loaded.
func LoadRules(rootDir, explicit string) (*File, string, error) {
	path := explicit
	if path == "" {
		candidate := filepath.Join(rootDir, DefaultRulesFile)
		if _, err := os.Stat(candidate); err != nil {
			return DefaultFile(), "", nil
		}
		path = candidate
	}
	f, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	return f, path, nil
}
