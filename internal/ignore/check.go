package ignore

import (
	"path/filepath"
	"strings"
)

// ShouldIgnore reports whether the entry at relativePath is junk. Paths are
// relative to the matcher's root; the root itself is never junk.
func (m *Matcher) ShouldIgnore(relativePath string, isDir bool) bool {
	if m == nil || m.disabled {
		return false
	}
	if relativePath == "" || relativePath == "." {
		return false
	}

	if m.ignoreHidden && hasHiddenComponent(relativePath) {
		m.logger.Debug("ignore: %q dropped (hidden)", relativePath)
		return true
	}

	if m.ignoreGit && isPathInGitDir(relativePath, isDir) {
		m.logger.Debug("ignore: %q dropped (.git)", relativePath)
		return true
	}

	unixPath := filepath.ToSlash(relativePath)

	if m.extra != nil {
		if match := m.extra.Relative(unixPath, isDir); match != nil && match.Ignore() {
			m.logger.Debug("ignore: %q dropped (extra pattern %s)", relativePath, match)
			return true
		}
	}

	if m.repo != nil {
		if match := m.repo.Relative(unixPath, isDir); match != nil {
			// A negated pattern (!) re-includes the path.
			return match.Ignore()
		}
	}
	return false
}

// hasHiddenComponent reports whether any path component starts with a dot.
func hasHiddenComponent(relativePath string) bool {
	for _, part := range strings.Split(filepath.ToSlash(relativePath), "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}

// isPathInGitDir checks if a path is inside a .git directory
func isPathInGitDir(relativePath string, isDir bool) bool {
	parts := strings.Split(filepath.ToSlash(relativePath), "/")
	for i, part := range parts {
		if part == ".git" {
			// If .git is a directory component (not just a prefix of a filename)
			if isDir || i < len(parts)-1 {
				return true
			}
		}
	}
	return false
}
