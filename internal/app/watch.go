package app

import (
	"context"
	"os"

	"github.com/bethropolis/rule-sieve/internal/walker"
	"github.com/bethropolis/rule-sieve/internal/watch"
)

// watchLoop re-runs the per-file pipeline for files that change until ctx is
// cancelled. Directories the junk matcher ignores never trigger re-runs.
func (r *runState) watchLoop(ctx context.Context) error {
	w, err := watch.New(r.rootDir, watch.WithLogger(r.app.log))
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	if !r.app.cfg.Quiet {
		r.app.log.Info("Watching %s for changes (interrupt to stop)...", r.rootDir)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			r.handleEvent(ctx, ev)
		}
	}
}

// handleEvent pushes one changed file through the same gates the walker
// applies, for every environment.
func (r *runState) handleEvent(ctx context.Context, ev watch.Event) {
	if ev.Op == watch.OpDelete {
		r.removeOutputs(ev.Path)
		return
	}

	if r.matcher.ShouldIgnore(ev.Path, false) {
		r.app.log.Debug("Watch: ignored change to %q (junk rules)", ev.Path)
		return
	}

	if max := r.app.cfg.MaxFileSizeMB; max > 0 {
		if info, err := os.Lstat(ev.AbsPath); err != nil || !info.Mode().IsRegular() || info.Size() > max*1024*1024 {
			return
		}
	}

	category := r.classifier(ev.Path)

	var content []byte
	loaded := false

	for _, env := range r.environments {
		rs := r.engine.ForEnvironment(env)
		if rs.Empty() {
			continue
		}
		pf := rs.PreFilter()
		if !pf.AllowsPath(ev.Path) || !pf.AllowsCategory(category) {
			continue
		}

		// Read lazily, once, and only when some environment wants the file.
		if !loaded {
			data, err := os.ReadFile(ev.AbsPath)
			if err != nil {
				r.app.log.Warn("Watch: could not read %q: %v", ev.Path, err)
				return
			}
			content = data
			loaded = true
		}
		if !pf.AllowsContent(string(content)) {
			continue
		}

		r.process(ctx, envLabel(env), rs, walker.File{
			Path:     ev.Path,
			Category: category,
			Content:  content,
		})
	}
}

// removeOutputs deletes the mirrored outputs of a source file that went
// away.
func (r *runState) removeOutputs(relPath string) {
	if r.app.cfg.OutDir == "" {
		return
	}
	for _, env := range r.environments {
		dest := r.outputPath(envLabel(env), relPath)
		if err := os.Remove(dest); err == nil {
			r.app.log.Debug("Watch: removed stale output %s", dest)
		}
	}
}
