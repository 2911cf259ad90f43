// pattern: Functional Core

package discovery

// Package represents a ROS package found during directory scanning.
type Package struct {
	Name      string   // Basename of the package directory
	Dir       string   // Absolute path to the directory containing package.xml
	NodeFiles []string // Node-defining source files, relative to Dir, in discovery order
}
