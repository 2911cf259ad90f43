// pattern: Functional Core

package discovery

import (
	"os"
	"path/filepath"
	"strings"
)

// manifestName is the marker file that makes a directory a ROS package root.
const manifestName = "package.xml"

// DefaultExcludedNames are the directory names skipped during discovery
// unless overridden by configuration.
var DefaultExcludedNames = []string{"test", "tests"}

// Matcher holds the name-based predicates used by the walker. The zero
// value is not usable; construct with NewMatcher.
type Matcher struct {
	excluded map[string]bool
}

// NewMatcher creates a matcher with the given excluded directory names
// (compared case-insensitively). An empty list falls back to the defaults.
func NewMatcher(excludedNames []string) *Matcher {
	if len(excludedNames) == 0 {
		excludedNames = DefaultExcludedNames
	}
	excluded := make(map[string]bool, len(excludedNames))
	for _, name := range excludedNames {
		excluded[strings.ToLower(name)] = true
	}
	return &Matcher{excluded: excluded}
}

// IsExcludedName reports whether a directory name is excluded from
// discovery (by default "test" or "tests", case-insensitive).
func (m *Matcher) IsExcludedName(dirName string) bool {
	return m.excluded[strings.ToLower(dirName)]
}

// ParentIsExcluded reports whether the immediate parent directory of dir
// bears an excluded name. Used by the top-level package walk, which only
// ever checks the candidate's own parent.
func (m *Matcher) ParentIsExcluded(dir string) bool {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	return m.IsExcludedName(filepath.Base(filepath.Dir(abs)))
}

// HasExcludedComponent reports whether any path component of dir relative
// to root bears an excluded name. Used by the index walk, which rejects
// candidates nested anywhere under a test directory.
func (m *Matcher) HasExcludedComponent(dir, root string) bool {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if m.IsExcludedName(part) {
			return true
		}
	}
	return false
}

// IsPackageRoot reports whether dir directly contains a package.xml file.
// A manifest in a subdirectory does not qualify.
func IsPackageRoot(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, manifestName))
	return err == nil && info.Mode().IsRegular()
}

// IsReadme reports whether fileName is a README: exactly "readme" or
// "readme" followed immediately by a dot, case-insensitive. Names like
// "readme_old.md" do not match.
func IsReadme(fileName string) bool {
	name := strings.ToLower(fileName)
	return name == "readme" || strings.HasPrefix(name, "readme.")
}

// HasReadme reports whether dir directly contains a README file.
// An unreadable directory counts as having none.
func HasReadme(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if !entry.IsDir() && IsReadme(entry.Name()) {
			return true
		}
	}
	return false
}
