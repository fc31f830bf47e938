// Package config holds the flag surface and the rules file for rule-sieve
// and resolves both into the selection engine's inputs.
package config

import (
	"flag"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/bethropolis/rule-sieve/internal/sieve"
)

// Config holds all application configuration settings
type Config struct {
	// Directory and rules file settings
	RootDir    string
	ConfigFile string

	// Build identity
	Phase        string
	Mode         string
	Environments string
	Watch        bool

	// Output settings
	OutDir        string
	DryRun        bool
	ShowPreFilter bool

	// Logging settings
	Verbose     bool
	Quiet       bool
	LogLevel    string
	NoColor     bool
	UseColors   bool
	OutputFile  string
	ShowSkipped bool

	// Processing settings
	Concurrent    bool
	MaxWorkers    int
	MaxFileSizeMB int64
	CacheSize     int
	ShowProgress  bool
	Timeout       time.Duration

	// Scanner junk filtering
	IgnoreHidden bool
	IgnoreGit    bool
	CustomIgnore string

	// User path settings (comma-separated globs; override the rules file)
	Include string
	Exclude string

	// Output format
	JSONOutput     bool
	MarkdownOutput bool

	// Version info
	ShowVersion bool
	Version     string
}

// New creates a new Config with values from command-line flags
func New() *Config {
	c := &Config{
		Version: "0.4.0", // Update this when releasing new versions
	}

	// Parse command-line flags
	flag.StringVar(&c.RootDir, "dir", ".", "The root directory to scan")
	flag.StringVar(&c.ConfigFile, "config", "", "Rules file path (default: rule-sieve.yaml in the scanned directory, if present)")
	flag.StringVar(&c.Phase, "phase", "build", "Build phase offered to rule phase gates")
	flag.StringVar(&c.Mode, "mode", "", "Build mode offered to rule phase gates (e.g. 'production')")
	flag.StringVar(&c.Environments, "env", "", "Environments to build (comma-separated, e.g. 'client,server')")
	flag.BoolVar(&c.Watch, "watch", false, "Watch the directory and re-run on changes (build phase becomes 'watch')")
	flag.StringVar(&c.OutDir, "out", "", "Write transformed files under this directory (per environment when -env names several)")
	flag.BoolVar(&c.DryRun, "dry-run", false, "Select rules but skip the external compiler (sources pass through unchanged)")
	flag.BoolVar(&c.ShowPreFilter, "show-prefilter", false, "Print the composed pre-filter per environment before scanning")
	flag.IntVar(&c.CacheSize, "cache", 0, "Cache up to N compile results per run (0 = no cache)")
	flag.BoolVar(&c.Verbose, "verbose", false, "Enable verbose logging (DEBUG, WARN, ERROR)")
	flag.BoolVar(&c.Quiet, "quiet", false, "Suppress INFO messages (only show WARN, ERROR)")
	flag.StringVar(&c.LogLevel, "log-level", "INFO", "Set the logging level (DEBUG, INFO, WARN, ERROR)")
	flag.BoolVar(&c.Concurrent, "concurrent", false, "Enable concurrent file processing")
	flag.IntVar(&c.MaxWorkers, "workers", runtime.NumCPU(), "Max number of concurrent workers (defaults to number of CPU cores)")
	flag.Int64Var(&c.MaxFileSizeMB, "max-size", 0, "Max file size to process in MB (0 = no limit)")
	flag.BoolVar(&c.IgnoreHidden, "hidden", true, "Ignore hidden files/directories (starting with '.')")
	flag.BoolVar(&c.IgnoreGit, "git", true, "Ignore .git directories")
	flag.StringVar(&c.CustomIgnore, "ignore", "", "Extra junk patterns (comma-separated, gitignore syntax)")
	flag.StringVar(&c.Include, "include", "", "Only consider paths matching these globs (comma-separated; overrides the rules file)")
	flag.StringVar(&c.Exclude, "exclude", "", "Skip paths matching these globs (comma-separated; overrides the rules file)")
	flag.BoolVar(&c.NoColor, "no-color", false, "Disable color output")
	flag.StringVar(&c.OutputFile, "output", "", "Write the report to a file instead of stdout")
	flag.BoolVar(&c.ShowProgress, "progress", false, "Show progress information")
	flag.DurationVar(&c.Timeout, "timeout", 0, "Maximum execution time (e.g., '30s', '5m')")
	flag.BoolVar(&c.ShowSkipped, "show-skipped", false, "Show a list of skipped files/directories and reasons at the end")
	flag.BoolVar(&c.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&c.JSONOutput, "json", false, "Report results in JSON format")
	flag.BoolVar(&c.MarkdownOutput, "markdown", false, "Report results in Markdown format")

	flag.Parse()

	// Determine if colors should be used
	c.UseColors = !c.NoColor && isatty.IsTerminal(os.Stderr.Fd()) && c.OutputFile == ""

	return c
}

// EnvironmentList parses the -env flag into environment descriptors, in flag
// order. An empty flag yields the single no-environment entry, which skips
// environment gating entirely.
func (c *Config) EnvironmentList() []*sieve.Environment {
	if strings.TrimSpace(c.Environments) == "" {
		return []*sieve.Environment{nil}
	}
	var envs []*sieve.Environment
	for _, name := range strings.Split(c.Environments, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		envs = append(envs, &sieve.Environment{Name: name})
	}
	if len(envs) == 0 {
		return []*sieve.Environment{nil}
	}
	return envs
}
