// Package ignore filters scanner junk before any rule is consulted
//
// The matcher combines hidden-file rules, .git exclusion, the repository's
// own .gitignore chain, and extra user patterns into one ShouldIgnore
// decision. It uses the functional options pattern for configuration.
package ignore

// NewDefaultMatcher creates a Matcher with default settings
func NewDefaultMatcher(rootDir string) (*Matcher, error) {
	return New(rootDir)
}

// NewFromConfig creates a Matcher from a Config struct
func NewFromConfig(cfg Config) (*Matcher, error) {
	options := []Option{
		WithHiddenIgnore(cfg.IgnoreHidden),
		WithGitIgnore(cfg.IgnoreGit),
		WithDisabled(cfg.Disabled),
	}
	if len(cfg.ExtraPatterns) > 0 {
		options = append(options, WithExtraPatterns(cfg.ExtraPatterns))
	}
	if cfg.Logger != nil {
		options = append(options, WithLogger(cfg.Logger))
	}
	return New(cfg.RootDir, options...)
}

// Disabled returns a matcher that ignores nothing.
func Disabled() *Matcher {
	matcher, _ := New(".", WithDisabled(true))
	return matcher
}

// IsIgnored is a convenience function to check if a path should be ignored
func IsIgnored(matcher *Matcher, path string, isDir bool) bool {
	if matcher == nil {
		return false
	}
	return matcher.ShouldIgnore(path, isDir)
}
