package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/bethropolis/rule-sieve/internal/compiler"
	"github.com/bethropolis/rule-sieve/internal/ignore"
	"github.com/bethropolis/rule-sieve/internal/printer"
	"github.com/bethropolis/rule-sieve/internal/sieve"
	"github.com/bethropolis/rule-sieve/internal/summary"
	"github.com/bethropolis/rule-sieve/internal/walker"
)

// runState carries everything a full pass over the tree needs: the engine,
// the compiler chain, the report printer, and the walker configuration. One
// runState serves the initial pass and every watch-mode re-run.
type runState struct {
	app          *App
	engine       *sieve.Engine
	comp         compiler.Compiler
	printer      *printer.Printer
	matcher      *ignore.Matcher
	walkOpts     []walker.Option
	classifier   walker.Classifier
	rootDir      string
	environments []*sieve.Environment
	envSubdirs   bool

	totals  runTotals
	noRule  *walker.SkippedTracker
	skipped []walker.SkippedItem
}

// skippedItems merges the walkers' skip lists with the files the selector
// found no rules for.
func (r *runState) skippedItems() []walker.SkippedItem {
	return append(r.skipped, r.noRule.Items()...)
}

// runTotals aggregates per-file outcomes across environments and workers.
type runTotals struct {
	files       atomic.Int64
	transformed atomic.Int64
	unchanged   atomic.Int64
	noRule      atomic.Int64
	failed      atomic.Int64
}

func (t *runTotals) stats(d time.Duration) summary.Stats {
	return summary.Stats{
		Files:       t.files.Load(),
		Transformed: t.transformed.Load(),
		Unchanged:   t.unchanged.Load(),
		NoRule:      t.noRule.Load(),
		Failed:      t.failed.Load(),
		Duration:    d,
	}
}

// once walks the whole tree for every configured environment.
func (r *runState) once(ctx context.Context) error {
	for _, env := range r.environments {
		if err := r.runEnv(ctx, env); err != nil {
			return err
		}
	}
	return nil
}

// runEnv compiles the rule set for one environment and walks the tree with
// its pre-filter as the gate.
func (r *runState) runEnv(ctx context.Context, env *sieve.Environment) error {
	envName := envLabel(env)
	rs := r.engine.ForEnvironment(env)

	if r.app.cfg.ShowPreFilter {
		r.app.dumpPreFilter(envName, rs.PreFilter())
	}

	if rs.Empty() {
		if envName != "" {
			r.app.log.Warn("No rules survived gating for environment %q; skipping it.", envName)
		} else {
			r.app.log.Warn("No rules survived gating; nothing to do.")
		}
		return nil
	}

	if envName != "" {
		r.app.log.Debug("Processing environment %q with %d rules", envName, len(rs.Rules()))
	}

	walkFn := func(file walker.File, err error) error {
		if err != nil {
			r.app.log.Warn("Skipping file '%s' due to error: %v", file.Path, err)
			return nil // Error handled by logging
		}
		r.process(ctx, envName, rs, file)
		return nil
	}

	opts := append(append([]walker.Option{}, r.walkOpts...), walker.WithGate(rs.PreFilter()))
	skipped, err := walker.Walk(r.rootDir, r.matcher, walkFn, opts...)
	r.skipped = append(r.skipped, skipped...)
	return err
}

// process runs selection and compilation for one file that passed every
// gate, then reports the outcome.
func (r *runState) process(ctx context.Context, envName string, rs *sieve.RuleSet, file walker.File) {
	r.totals.files.Add(1)

	selected := rs.Select(sieve.FileContext{
		Path:     file.Path,
		Category: file.Category,
		Content:  string(file.Content),
	})
	if len(selected) == 0 {
		r.totals.noRule.Add(1)
		r.noRule.Track(file.Path, walker.ReasonNoMatchingRules, false)
		r.app.log.Debug("No rules matched %s", file.Path)
		r.printer.PrintResult(printer.Result{
			Path:     file.Path,
			Category: file.Category,
			Action:   printer.ActionSkipped,
			Env:      envName,
		})
		return
	}

	presets := make([]compiler.Preset, 0, len(selected))
	names := make([]string, 0, len(selected))
	for _, rule := range selected {
		preset, ok := rule.Payload.(compiler.Preset)
		if !ok {
			continue
		}
		presets = append(presets, preset)
		names = append(names, preset.Name)
	}

	res := printer.Result{
		Path:     file.Path,
		Category: file.Category,
		Rules:    names,
		Env:      envName,
	}

	output, err := r.comp.Compile(ctx, file.Path, presets, file.Content)
	if err != nil {
		r.totals.failed.Add(1)
		r.app.log.Error("Compile failed for %s: %v", file.Path, err)
		res.Action = printer.ActionFailed
		res.Err = err.Error()
		r.printer.PrintResult(res)
		return
	}

	if bytes.Equal(output, file.Content) {
		r.totals.unchanged.Add(1)
		res.Action = printer.ActionUnchanged
	} else {
		r.totals.transformed.Add(1)
		res.Action = printer.ActionTransformed
	}

	if outPath, err := r.writeOutput(envName, file.Path, output); err != nil {
		r.totals.failed.Add(1)
		r.app.log.Error("Could not write output for %s: %v", file.Path, err)
		res.Action = printer.ActionFailed
		res.Err = err.Error()
	} else {
		res.Output = outPath
	}

	r.printer.PrintResult(res)
}

// writeOutput mirrors relPath under the out directory, adding a
// per-environment subdirectory when several environments are being built.
// It returns "" when no out directory is configured.
func (r *runState) writeOutput(envName, relPath string, data []byte) (string, error) {
	if r.app.cfg.OutDir == "" {
		return "", nil
	}
	dest := r.outputPath(envName, relPath)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", err
	}
	return filepath.ToSlash(dest), nil
}

// outputPath maps a relative source path to its destination on disk.
func (r *runState) outputPath(envName, relPath string) string {
	if !r.envSubdirs {
		envName = ""
	}
	return filepath.Join(r.app.cfg.OutDir, envName, filepath.FromSlash(relPath))
}

// envLabel names an environment for reports; the no-environment case is "".
func envLabel(env *sieve.Environment) string {
	if env == nil {
		return ""
	}
	return env.Name
}
