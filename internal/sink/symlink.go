// pattern: Imperative Shell

package sink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"rosdex/internal/discovery"
	"rosdex/internal/logging"
)

// SymlinkSink creates one symlink per accepted package inside a links
// directory, resolving name collisions with numeric suffixes. It never
// touches package sources.
type SymlinkSink struct {
	linksDir string
	describe string // qualifying-set description for the none-found line
	out      io.Writer
	logger   *logging.ScopedLogger
}

// NewSymlinkSink creates a sink writing links into linksDir. describe
// completes the none-found sentence ("containing a node", "without a
// README"). Console output goes to out.
func NewSymlinkSink(linksDir, describe string, out io.Writer, logger *logging.ScopedLogger) *SymlinkSink {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &SymlinkSink{linksDir: linksDir, describe: describe, out: out, logger: logger}
}

// Consume creates the links directory if absent and links every package in
// order. maxResults is only used for the cap-reached notice.
func (s *SymlinkSink) Consume(res discovery.Result, maxResults int) error {
	if err := os.MkdirAll(s.linksDir, 0755); err != nil {
		return fmt.Errorf("failed to create links directory: %w", err)
	}

	for _, pkg := range res.Packages {
		link := safeLinkName(s.linksDir, pkg.Name)
		if err := os.Symlink(pkg.Dir, link); err != nil {
			return fmt.Errorf("failed to create link for %s: %w", pkg.Name, err)
		}
		s.logger.Info("created link", "link", link, "target", pkg.Dir)
		fmt.Fprintf(s.out, "Linked: %s -> %s\n", link, pkg.Dir)
	}

	if res.ReachedMax {
		fmt.Fprintf(s.out, "Reached maximum of %d package(s); stopping search.\n", maxResults)
	}

	if len(res.Packages) == 0 {
		fmt.Fprintf(s.out, "No ROS packages %s were found.\n", s.describe)
		return nil
	}

	fmt.Fprintf(s.out, "\nTotal: %d package(s) linked in %s\n", len(res.Packages), s.linksDir)
	return nil
}

// safeLinkName returns a path inside linksDir that does not yet exist,
// starting from base and appending _1, _2, ... on collision. Existence is
// checked with Lstat so broken links still count as taken.
func safeLinkName(linksDir, base string) string {
	candidate := filepath.Join(linksDir, base)
	if !lexists(candidate) {
		return candidate
	}
	for counter := 1; ; counter++ {
		candidate = filepath.Join(linksDir, fmt.Sprintf("%s_%d", base, counter))
		if !lexists(candidate) {
			return candidate
		}
	}
}

func lexists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
