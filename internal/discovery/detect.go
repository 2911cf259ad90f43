// pattern: Functional Core

package discovery

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Node detection is deliberately textual: the corpus spans two language
// families and many dialects, so patterns match specific keywords instead
// of parsing. False negatives are acceptable; false positives are kept low
// by requiring the exact base-class identifiers (and `public` in C++).

// pythonNodePatterns match a class whose base list contains Node or
// LifecycleNode (optionally dot-qualified, in any position), or a direct
// rclpy.create_node() call.
var pythonNodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`class\s+\w+\s*\((?:[^)]*[,\s(])?\s*(?:\w+\.)*(?:Node|LifecycleNode)\s*[,)]`),
	regexp.MustCompile(`\brclpy\s*\.\s*create_node\s*\(`),
}

// cppNodePatterns match public inheritance from rclcpp::Node or
// rclcpp_lifecycle::LifecycleNode, or one of the direct construction forms
// (std::make_shared, ::make_shared, new).
var cppNodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`:\s*public\s+(?:rclcpp(?:_lifecycle)?\s*::\s*)(?:Node|LifecycleNode)\b`),
	regexp.MustCompile(`(?:std\s*::\s*make_shared\s*<\s*rclcpp\s*::\s*(?:Node|LifecycleNode)\s*>` +
		`|rclcpp\s*::\s*(?:Node|LifecycleNode)\s*::\s*make_shared\s*\(` +
		`|\bnew\s+rclcpp\s*::\s*(?:Node|LifecycleNode)\s*\()`),
}

// nodePatterns maps a lowercased file extension to its pattern family.
var nodePatterns = map[string][]*regexp.Regexp{
	".py":  pythonNodePatterns,
	".cpp": cppNodePatterns,
	".hpp": cppNodePatterns,
	".h":   cppNodePatterns,
	".cc":  cppNodePatterns,
	".cxx": cppNodePatterns,
}

// IsSourceFile reports whether fileName has an extension recognized by the
// node detector. Files that fail this filter are never read.
func IsSourceFile(fileName string) bool {
	_, ok := nodePatterns[strings.ToLower(filepath.Ext(fileName))]
	return ok
}

// DetectNode reports whether content defines a ROS 2 node, dispatching on
// the extension of path. Unrecognized extensions always return false.
func DetectNode(path string, content []byte) bool {
	patterns, ok := nodePatterns[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return false
	}
	for _, pattern := range patterns {
		if pattern.Match(content) {
			return true
		}
	}
	return false
}

// detectNodeFile reads path and applies DetectNode. Unreadable files are
// treated as not defining a node; a detection failure never aborts a walk.
func detectNodeFile(path string) bool {
	if !IsSourceFile(path) {
		return false
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return DetectNode(path, content)
}
