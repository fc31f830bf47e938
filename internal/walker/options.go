// Package walker traverses the source tree and feeds surviving files to the
// per-file pipeline
package walker

import (
	"context"

	"github.com/bethropolis/rule-sieve/internal/utils"
)

// WalkOptions configures the behavior of the Walk function
type WalkOptions struct {
	Logger      utils.Logger
	Gate        Gate
	Classifier  Classifier
	Concurrent  bool
	MaxWorkers  int
	MaxFileSize int64
	Context     context.Context
	ProgressFn  ProgressCallback
}

// ProgressCallback is a function that receives progress updates
type ProgressCallback func(stats ProgressStats)

// ProgressStats holds statistics about the walk progress
type ProgressStats struct {
	TotalFiles      int64  // Total files seen
	ProcessedFiles  int64  // Files that passed all gates and were processed
	SkippedFiles    int64  // Files that were skipped for any reason
	TotalDirs       int64  // Total directories seen
	SkippedDirs     int64  // Directories that were skipped
	CurrentFilePath string // Path of the current file being processed (relative)
}

// defaultOptions returns the default walk options
func defaultOptions() WalkOptions {
	return WalkOptions{
		Logger:      &utils.NoopLogger{},
		Gate:        nil, // every file passes
		Classifier:  nil, // every file unclassified
		Concurrent:  false,
		MaxWorkers:  10,
		MaxFileSize: 0, // No limit
		Context:     context.Background(),
		ProgressFn:  nil,
	}
}

// Option is a functional option for configuring WalkOptions
type Option func(*WalkOptions)

// WithLogger sets a custom logger for the walker
func WithLogger(logger utils.Logger) Option {
	return func(opts *WalkOptions) {
		opts.Logger = logger
	}
}

// WithGate sets the pre-read gate consulted for every file. A nil gate
// admits everything.
func WithGate(gate Gate) Option {
	return func(opts *WalkOptions) {
		opts.Gate = gate
	}
}

// WithClassifier sets the category classifier applied to each file path.
func WithClassifier(classifier Classifier) Option {
	return func(opts *WalkOptions) {
		opts.Classifier = classifier
	}
}

// WithConcurrency enables or disables concurrent file processing
func WithConcurrency(enabled bool) Option {
	return func(opts *WalkOptions) {
		opts.Concurrent = enabled
	}
}

// WithMaxWorkers sets the maximum number of concurrent workers
func WithMaxWorkers(workers int) Option {
	return func(opts *WalkOptions) {
		if workers > 0 {
			opts.MaxWorkers = workers
		}
	}
}

// WithMaxFileSize sets the maximum file size to read in bytes
func WithMaxFileSize(maxBytes int64) Option {
	return func(opts *WalkOptions) {
		opts.MaxFileSize = maxBytes
	}
}

// WithContext sets the context for cancellation
func WithContext(ctx context.Context) Option {
	return func(opts *WalkOptions) {
		if ctx != nil {
			opts.Context = ctx
		}
	}
}

// WithProgress adds a progress callback function
func WithProgress(fn ProgressCallback) Option {
	return func(o *WalkOptions) {
		o.ProgressFn = fn
	}
}
