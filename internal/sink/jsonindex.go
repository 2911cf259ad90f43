// pattern: Imperative Shell

package sink

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"rosdex/internal/discovery"
	"rosdex/internal/logging"
)

// indexEntry is the persisted JSON shape of one discovered package.
type indexEntry struct {
	Package    string   `json:"package"`
	PackageDir string   `json:"package_dir"`
	NodeFiles  []string `json:"node_files"`
}

// JSONSink serializes the ordered package list as a JSON array. The output
// path gets a .json suffix if absent; parent directories are created as
// needed. Nothing is written when no package qualified.
type JSONSink struct {
	path   string
	out    io.Writer
	logger *logging.ScopedLogger
}

// NewJSONSink creates a sink targeting path. Console output goes to out.
func NewJSONSink(path string, out io.Writer, logger *logging.ScopedLogger) *JSONSink {
	if logger == nil {
		logger = logging.NopLogger()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if !strings.HasSuffix(abs, ".json") {
		abs += ".json"
	}
	return &JSONSink{path: abs, out: out, logger: logger}
}

// Path returns the normalized output path.
func (s *JSONSink) Path() string {
	return s.path
}

// Render serializes packages to the on-disk index format: a 2-space
// indented array with a trailing newline. Identical trees render to
// identical bytes, which is what keeps reruns idempotent.
func (s *JSONSink) Render(pkgs []discovery.Package) ([]byte, error) {
	entries := make([]indexEntry, 0, len(pkgs))
	for _, pkg := range pkgs {
		nodeFiles := pkg.NodeFiles
		if nodeFiles == nil {
			nodeFiles = []string{}
		}
		entries = append(entries, indexEntry{
			Package:    pkg.Name,
			PackageDir: pkg.Dir,
			NodeFiles:  nodeFiles,
		})
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// WriteFile renders packages and writes the index, creating parent
// directories as needed.
func (s *JSONSink) WriteFile(pkgs []discovery.Package) error {
	data, err := s.Render(pkgs)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return os.WriteFile(s.path, data, 0644)
}

// Consume prints one console line per discovered node file, then writes
// the index. An empty result is reported but produces no file.
func (s *JSONSink) Consume(res discovery.Result, maxResults int) error {
	for _, pkg := range res.Packages {
		for _, nodeFile := range pkg.NodeFiles {
			fmt.Fprintf(s.out, "%s  [%s]\n", pkg.Name, nodeFile)
		}
	}

	if res.ReachedMax {
		fmt.Fprintf(s.out, "Reached maximum of %d package(s); stopping search.\n", maxResults)
	}

	if len(res.Packages) == 0 {
		fmt.Fprintln(s.out, "No ROS packages containing a node were found.")
		return nil
	}

	if err := s.WriteFile(res.Packages); err != nil {
		return err
	}
	s.logger.Info("index written", "path", s.path, "packages", len(res.Packages))
	fmt.Fprintf(s.out, "Total: %d package(s) written to %s\n", len(res.Packages), s.path)
	return nil
}
