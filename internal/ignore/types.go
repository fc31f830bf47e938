// Package ignore filters scanner junk before any rule is consulted
package ignore

import (
	"github.com/bethropolis/rule-sieve/internal/utils"
	gitignore "github.com/denormal/go-gitignore"
)

// Matcher decides whether a file or directory is junk the scan should never
// consider: hidden entries, .git, anything the repository's gitignore chain
// drops, and extra user-supplied patterns. It runs before the rule
// pre-filter, which only reasons about files that are in play at all.
type Matcher struct {
	// repo is the repository .gitignore chain; extra holds the user's
	// additional patterns in the same syntax.
	repo  gitignore.GitIgnore
	extra gitignore.GitIgnore

	rootDir       string
	ignoreHidden  bool
	ignoreGit     bool
	extraPatterns []string
	logger        utils.Logger
	disabled      bool
}

// Config holds configuration options for the junk matcher
type Config struct {
	RootDir       string
	IgnoreHidden  bool
	IgnoreGit     bool
	ExtraPatterns []string
	Logger        utils.Logger
	Disabled      bool
}
