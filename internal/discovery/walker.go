// pattern: Imperative Shell

package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"rosdex/internal/logging"
)

// Scanner discovers ROS packages under a search root. It is stateless
// between calls; every traversal threads its own walk state, so a single
// Scanner may be reused across runs.
type Scanner struct {
	matcher *Matcher
	logger  *logging.ScopedLogger
}

// NewScanner creates a scanner. A nil matcher uses the default exclusions;
// a nil logger discards diagnostics.
func NewScanner(matcher *Matcher, logger *logging.ScopedLogger) *Scanner {
	if matcher == nil {
		matcher = NewMatcher(nil)
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Scanner{matcher: matcher, logger: logger}
}

// Result holds the outcome of one traversal.
type Result struct {
	Packages   []Package // Accepted packages in discovery order
	ReachedMax bool      // Whether the traversal stopped at the result cap
}

// walkState threads the early-stop counter and cycle guard through one
// traversal, keeping the scanner re-entrant and testable in isolation.
type walkState struct {
	max        int
	packages   []Package
	reachedMax bool
	visited    map[string]bool
}

func newWalkState(maxResults int) *walkState {
	return &walkState{max: maxResults, visited: make(map[string]bool)}
}

// accept records pkg and reports whether the traversal may continue.
func (st *walkState) accept(pkg Package) bool {
	st.packages = append(st.packages, pkg)
	if st.max > 0 && len(st.packages) >= st.max {
		st.reachedMax = true
		return false
	}
	return true
}

// markVisited records the symlink-resolved identity of dir and reports
// whether it was already seen. This is the cycle guard for traversals that
// follow directory symlinks.
func (st *walkState) markVisited(dir string) bool {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		resolved = dir
	}
	if st.visited[resolved] {
		return true
	}
	st.visited[resolved] = true
	return false
}

// FindNodePackages walks searchDir for packages that define at least one
// node. Candidates directly under a test directory are skipped; nested
// packages are discovered independently. maxResults of 0 means unlimited.
func (s *Scanner) FindNodePackages(searchDir string, maxResults int) (Result, error) {
	return s.findPackages(searchDir, maxResults, func(root, dir string) (Package, bool) {
		if s.matcher.ParentIsExcluded(dir) {
			return Package{}, false
		}
		nodeFiles := s.findNodeFiles(dir)
		if len(nodeFiles) == 0 {
			return Package{}, false
		}
		return Package{Name: filepath.Base(dir), Dir: dir, NodeFiles: nodeFiles}, true
	})
}

// IndexNodePackages is FindNodePackages with the stricter exclusion used
// by the JSON index: a candidate with a test component anywhere in its
// path relative to the search root is rejected, not just one whose
// immediate parent is a test directory.
func (s *Scanner) IndexNodePackages(searchDir string, maxResults int) (Result, error) {
	return s.findPackages(searchDir, maxResults, func(root, dir string) (Package, bool) {
		if s.matcher.HasExcludedComponent(dir, root) {
			return Package{}, false
		}
		nodeFiles := s.findNodeFiles(dir)
		if len(nodeFiles) == 0 {
			return Package{}, false
		}
		return Package{Name: filepath.Base(dir), Dir: dir, NodeFiles: nodeFiles}, true
	})
}

// FindMissingReadmes walks searchDir for packages that lack a README file.
// The per-package node search is never run in this mode.
func (s *Scanner) FindMissingReadmes(searchDir string, maxResults int) (Result, error) {
	return s.findPackages(searchDir, maxResults, func(root, dir string) (Package, bool) {
		if s.matcher.ParentIsExcluded(dir) || HasReadme(dir) {
			return Package{}, false
		}
		return Package{Name: filepath.Base(dir), Dir: dir}, true
	})
}

// findPackages runs the top-level walk with the given acceptance test.
// accept receives the absolute search root and the candidate directory.
func (s *Scanner) findPackages(searchDir string, maxResults int, accept func(root, dir string) (Package, bool)) (Result, error) {
	root, err := checkSearchDir(searchDir)
	if err != nil {
		return Result{}, err
	}
	st := newWalkState(maxResults)
	s.walk(root, root, st, accept)
	return Result{Packages: st.packages, ReachedMax: st.reachedMax}, nil
}

// walk visits dir and its subtree depth-first, following directory
// symlinks. Candidates are emitted before descending, so nested packages
// appear after their ancestors. Returns false once the result cap is hit,
// which unwinds the entire traversal mid-directory.
func (s *Scanner) walk(root, dir string, st *walkState, accept func(root, dir string) (Package, bool)) bool {
	if st.markVisited(dir) {
		return true
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		// Unreadable directory: abandon this subtree only.
		s.logger.Debug("skipping unreadable directory", "dir", dir, "error", err)
		return true
	}
	if IsPackageRoot(dir) {
		if pkg, ok := accept(root, dir); ok {
			if !st.accept(pkg) {
				return false
			}
		}
	}
	for _, entry := range entries {
		sub := filepath.Join(dir, entry.Name())
		if !isDirOrDirLink(entry, sub) {
			continue
		}
		if !s.walk(root, sub, st, accept) {
			return false
		}
	}
	return true
}

// findNodeFiles performs the bounded per-package walk: test directories
// are pruned at any depth, only recognized source extensions are read, and
// matches are collected relative to pkgDir in first-seen order.
func (s *Scanner) findNodeFiles(pkgDir string) []string {
	var files []string
	seen := make(map[string]bool)
	visited := make(map[string]bool)
	s.walkNodeFiles(pkgDir, pkgDir, visited, seen, &files)
	return files
}

func (s *Scanner) walkNodeFiles(pkgDir, dir string, visited, seen map[string]bool, files *[]string) {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		resolved = dir
	}
	if visited[resolved] {
		return
	}
	visited[resolved] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		s.logger.Debug("skipping unreadable directory", "dir", dir, "error", err)
		return
	}

	// Files of the current directory first, then subdirectories, matching
	// the top-down walk order the node-file sequence is defined by.
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if isDirOrDirLink(entry, path) {
			continue
		}
		if !detectNodeFile(path) {
			continue
		}
		rel, err := filepath.Rel(pkgDir, path)
		if err != nil {
			continue
		}
		if !seen[rel] {
			seen[rel] = true
			*files = append(*files, rel)
		}
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if !isDirOrDirLink(entry, path) {
			continue
		}
		if s.matcher.IsExcludedName(entry.Name()) {
			continue
		}
		s.walkNodeFiles(pkgDir, path, visited, seen, files)
	}
}

// isDirOrDirLink reports whether entry is a directory or a symlink that
// resolves to one.
func isDirOrDirLink(entry os.DirEntry, path string) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// checkSearchDir resolves searchDir to an absolute path and verifies it is
// an existing directory. A missing root is fatal: no traversal can start.
func checkSearchDir(searchDir string) (string, error) {
	abs, err := filepath.Abs(searchDir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("search directory does not exist: %s", abs)
	}
	return abs, nil
}
