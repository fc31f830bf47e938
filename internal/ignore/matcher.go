package ignore

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bethropolis/rule-sieve/internal/utils"
	gitignore "github.com/denormal/go-gitignore"
)

// New creates and initializes a Matcher rooted at rootDir.
func New(rootDir string, opts ...Option) (*Matcher, error) {
	absRootDir, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("ignore: failed to get absolute path for %q: %w", rootDir, err)
	}

	matcher := &Matcher{
		rootDir:      absRootDir,
		ignoreHidden: true,
		ignoreGit:    true,
		logger:       &utils.NoopLogger{},
	}
	for _, opt := range opts {
		opt(matcher)
	}

	if err := matcher.init(); err != nil {
		return nil, err
	}
	return matcher, nil
}

// init loads the repository gitignore chain and compiles the extra patterns.
func (m *Matcher) init() error {
	if m.disabled {
		m.logger.Debug("ignore: matcher disabled, skipping pattern loading")
		return nil
	}

	repo, err := gitignore.NewRepository(m.rootDir)
	if err != nil {
		// A missing or unreadable .gitignore is not fatal; the hidden/.git
		// rules and extra patterns still apply.
		m.logger.Warn("ignore: could not load repository ignores from %q: %v", m.rootDir, err)
	} else {
		m.repo = repo
	}

	if len(m.extraPatterns) > 0 {
		m.logger.Debug("ignore: compiling %d extra patterns", len(m.extraPatterns))
		src := strings.Join(m.extraPatterns, "\n")
		m.extra = gitignore.New(strings.NewReader(src), m.rootDir, nil)
	}
	return nil
}
