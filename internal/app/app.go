package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/bethropolis/rule-sieve/internal/compiler"
	"github.com/bethropolis/rule-sieve/internal/config"
	"github.com/bethropolis/rule-sieve/internal/logger"
	"github.com/bethropolis/rule-sieve/internal/printer"
	"github.com/bethropolis/rule-sieve/internal/setup"
	"github.com/bethropolis/rule-sieve/internal/sieve"
	"github.com/bethropolis/rule-sieve/internal/summary"
	"github.com/bethropolis/rule-sieve/internal/walker"
)

// App encapsulates the main application functionality
type App struct {
	cfg    *config.Config
	log    *logger.Logger
	Output io.Writer
}

// New creates a new App instance
func New(cfg *config.Config) *App {
	// Configure color globally
	color.NoColor = !cfg.UseColors

	// Set up output destination
	var output io.Writer = os.Stdout
	if cfg.OutputFile != "" {
		file, err := os.Create(cfg.OutputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: Failed to create output file: %v\n", err)
			os.Exit(1)
		}
		// Note: file will be closed by main function
		output = file
	}

	// Set up logger; verbose and quiet win over the named level
	log := logger.New(os.Stderr, cfg.UseColors)
	switch {
	case cfg.Verbose:
		log.WithLevel(logger.LevelDebug)
	case cfg.Quiet:
		log.WithLevel(logger.LevelWarn)
	default:
		log.SetLevel(cfg.LogLevel)
	}

	return &App{
		cfg:    cfg,
		log:    log,
		Output: output,
	}
}

// Run executes the main application logic and returns the process exit
// code: 0 on success, 1 on a fatal configuration or walk error, 2 when at
// least one file failed to compile.
func (a *App) Run() int {
	startTime := time.Now() // Start timer for overall execution

	// Show version and exit if requested
	if a.cfg.ShowVersion {
		fmt.Printf("rule-sieve version %s\n", a.cfg.Version)
		return 0
	}

	// Handle timeout if specified
	var ctx context.Context
	var cancel context.CancelFunc

	if a.cfg.Timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), a.cfg.Timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	defer cancel()

	// Watch mode runs until interrupted
	if a.cfg.Watch {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
	}

	// Helper for info messages, suppressed by quiet flag
	infoLog := func(format string, args ...interface{}) {
		if !a.cfg.Quiet {
			a.log.Info(format, args...)
		}
	}

	if a.cfg.Verbose {
		a.log.Debug("Verbose mode enabled")
		a.log.Debug("Color output: %v", a.cfg.UseColors)
		a.log.Debug("Directory: %s", a.cfg.RootDir)
		a.log.Debug("Build: phase=%s mode=%s envs=%q watch=%v",
			a.cfg.Phase, a.cfg.Mode, a.cfg.Environments, a.cfg.Watch)
		a.log.Debug("Concurrent mode: %v (workers: %d)", a.cfg.Concurrent, a.cfg.MaxWorkers)
		a.log.Debug("Max file size: %d MB", a.cfg.MaxFileSizeMB)
		a.log.Debug("Ignore settings: hidden=%v, git=%v",
			a.cfg.IgnoreHidden, a.cfg.IgnoreGit)
		if a.cfg.CustomIgnore != "" {
			a.log.Debug("Custom ignore patterns: %s", a.cfg.CustomIgnore)
		}
		if a.cfg.OutDir != "" {
			a.log.Debug("Output directory: %s", a.cfg.OutDir)
		}
	}

	// --- Directory validation ---
	absRootDir, err := filepath.Abs(a.cfg.RootDir)
	if err != nil {
		a.log.Error("Invalid root directory path '%s': %v", a.cfg.RootDir, err)
		return 1
	}

	// Check if directory exists
	dirInfo, err := os.Stat(absRootDir)
	if err != nil {
		if os.IsNotExist(err) {
			a.log.Error("Root directory '%s' not found.", absRootDir)
		} else {
			a.log.Error("Could not access root directory '%s': %v", absRootDir, err)
		}
		return 1
	}
	if !dirInfo.IsDir() {
		a.log.Error("Specified path '%s' is not a directory.", absRootDir)
		return 1
	}

	// --- Load and resolve the rules ---
	rulesFile, rulesPath, err := config.LoadRules(absRootDir, a.cfg.ConfigFile)
	if err != nil {
		a.log.Error("Could not load rules: %v", err)
		return 1
	}
	if rulesPath != "" {
		infoLog("Using rules from %s", rulesPath)
	} else {
		infoLog("No rules file found; using built-in defaults.")
	}

	resolved, err := config.Resolve(rulesFile, a.cfg)
	if err != nil {
		a.log.Error("Invalid configuration: %v", err)
		return 1
	}

	// --- Build the selection engine ---
	engine := sieve.NewEngine(resolved.Core)
	a.log.Debug("Engine built for phase %q (mode %q), %d rules before gating",
		resolved.Core.Build.Phase, resolved.Core.Build.Mode, len(resolved.Core.Rules))

	// --- Choose the compiler chain ---
	comp, err := a.buildCompiler(resolved.Compiler)
	if err != nil {
		a.log.Error("Could not set up the compiler: %v", err)
		return 1
	}

	// --- Create the printer ---
	p := printer.New()
	p.WithOutput(a.Output)
	p.WithColors(a.cfg.UseColors)

	// Enable JSON output if requested
	if a.cfg.JSONOutput {
		a.log.Debug("JSON output mode enabled")
		p.WithJSON(true)
		// Disable colors in JSON mode regardless of other settings
		p.WithColors(false)
	} else if a.cfg.MarkdownOutput {
		a.log.Debug("Markdown output mode enabled")
		p.WithMarkdown(true)
		// Disable colors in Markdown mode regardless of other settings
		p.WithColors(false)
	}

	// --- Configure the walker ---
	matcher, walkOptions, err := setup.ConfigureWalker(setup.WalkerConfig{
		RootDir:       absRootDir,
		Concurrent:    a.cfg.Concurrent,
		MaxWorkers:    a.cfg.MaxWorkers,
		MaxFileSizeMB: a.cfg.MaxFileSizeMB,
		Categories:    resolved.Categories,
		IgnoreHidden:  a.cfg.IgnoreHidden,
		IgnoreGit:     a.cfg.IgnoreGit,
		CustomIgnore:  a.cfg.CustomIgnore,
		ShowProgress:  a.cfg.ShowProgress,
		Timeout:       ctx,
		Quiet:         a.cfg.Quiet,
		Logger:        a.log,
	}, infoLog)
	if err != nil {
		a.log.Error("%v", err)
		return 1
	}

	environments := a.cfg.EnvironmentList()
	run := &runState{
		app:          a,
		engine:       engine,
		comp:         comp,
		printer:      p,
		matcher:      matcher,
		walkOpts:     walkOptions,
		classifier:   walker.ExtensionClassifier(resolved.Categories),
		rootDir:      absRootDir,
		environments: environments,
		envSubdirs:   len(environments) > 1,
		noRule:       walker.NewSkippedTracker(16),
	}

	// --- Process the tree ---
	infoLog("Scanning directory: %s", absRootDir)
	if a.cfg.Concurrent {
		infoLog("Using concurrent processing with %d workers.", a.cfg.MaxWorkers)
	}

	if err := run.once(ctx); err != nil {
		if a.cfg.Watch && interrupted(err) {
			// Interrupted while watching; fall through to the summary.
		} else {
			a.log.Error("Critical error during directory walk: %v", err)
			return 1
		}
	}

	// --- Watch for changes (if requested) ---
	if a.cfg.Watch && ctx.Err() == nil {
		if err := run.watchLoop(ctx); err != nil {
			a.log.Error("Watch failed: %v", err)
			return 1
		}
	}

	// --- Show results summary ---
	// Finalize the printer (important for JSON output to close the array)
	p.Finalize()
	summary.DisplayResults(a.log, run.totals.stats(time.Since(startTime)), a.cfg.Quiet)

	// --- Show Skipped Items (if requested) ---
	if a.cfg.ShowSkipped {
		summary.DisplaySkippedItems(a.log, run.skippedItems(), os.Stderr, a.cfg.Quiet)
	}

	if run.totals.failed.Load() > 0 {
		return 2
	}
	return 0
}

// buildCompiler assembles the compiler chain: echo for dry runs, the
// external command otherwise, LRU-cached when -cache is set.
func (a *App) buildCompiler(spec compiler.Spec) (compiler.Compiler, error) {
	var comp compiler.Compiler
	if a.cfg.DryRun {
		a.log.Debug("Dry run: sources pass through unchanged")
		comp = compiler.Echo{}
	} else {
		comp = compiler.NewRunner(spec, compiler.WithLogger(a.log))
	}
	if a.cfg.CacheSize > 0 {
		cached, err := compiler.NewCache(a.cfg.CacheSize, comp)
		if err != nil {
			return nil, err
		}
		a.log.Debug("Compile cache enabled (%d entries)", a.cfg.CacheSize)
		comp = cached
	}
	return comp, nil
}

// dumpPreFilter prints the composed pre-filter for one environment as YAML.
// It goes to stderr like the other diagnostics, so report formats stay
// intact.
func (a *App) dumpPreFilter(envName string, pf *sieve.PreFilter) {
	header := "pre-filter"
	if envName != "" {
		header += " (" + envName + ")"
	}
	data, err := yaml.Marshal(pf)
	if err != nil {
		a.log.Error("Could not render pre-filter: %v", err)
		return
	}
	fmt.Fprintf(os.Stderr, "--- %s ---\n%s", header, data)
}

// interrupted reports whether err is a context cancellation or deadline.
func interrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
