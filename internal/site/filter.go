package site

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// skipDirs are never walked when building.
var skipDirs = []string{".git", "node_modules", ".idea", ".vscode"}

func shouldSkipDir(name string) bool {
	for _, d := range skipDirs {
		if strings.EqualFold(name, d) {
			return true
		}
	}
	return false
}

// Matcher decides which site files are pages.
type Matcher struct {
	Include []string
	Exclude []string
}

// IsPage reports whether relPath is included and not excluded.
func (m Matcher) IsPage(relPath string) bool {
	if len(m.Include) > 0 && !matchesAny(relPath, m.Include) {
		return false
	}
	return len(m.Exclude) == 0 || !matchesAny(relPath, m.Exclude)
}

// matchesAny checks relPath, then its base name, against doublestar
// patterns.
func matchesAny(relPath string, patterns []string) bool {
	normalized := filepath.ToSlash(relPath)
	base := filepath.Base(normalized)
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		if matched, err := doublestar.PathMatch(pattern, normalized); err == nil && matched {
			return true
		}
		if matched, err := doublestar.PathMatch(pattern, base); err == nil && matched {
			return true
		}
	}
	return false
}
