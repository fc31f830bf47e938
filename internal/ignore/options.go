package ignore

import "github.com/bethropolis/rule-sieve/internal/utils"

// Option functions for configuration
type Option func(*Matcher)

// WithHiddenIgnore controls whether dotfiles and dot-directories are junk.
func WithHiddenIgnore(ignore bool) Option {
	return func(m *Matcher) {
		m.ignoreHidden = ignore
	}
}

// WithGitIgnore controls whether .git directories are junk.
func WithGitIgnore(ignore bool) Option {
	return func(m *Matcher) {
		m.ignoreGit = ignore
	}
}

// WithExtraPatterns adds user-supplied patterns in gitignore syntax.
func WithExtraPatterns(patterns []string) Option {
	return func(m *Matcher) {
		m.extraPatterns = patterns
	}
}

// WithLogger sets a custom logger for the matcher.
func WithLogger(logger utils.Logger) Option {
	return func(m *Matcher) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithDisabled turns the matcher into a pass-through that ignores nothing.
func WithDisabled(disabled bool) Option {
	return func(m *Matcher) {
		m.disabled = disabled
	}
}
