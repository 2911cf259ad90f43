// pattern: Imperative Shell
package cli

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResolveDataDir returns the directory for log and lock files.
// If configDir is specified, uses that; otherwise uses ~/.config/rosdex.
func ResolveDataDir(configDir string) string {
	if configDir != "" {
		return configDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "rosdex")
	}
	return filepath.Join(home, ".config", "rosdex")
}

// BuildApp creates and configures the CLI application with all commands.
func BuildApp(version string, configDir string) *App {
	app := NewApp(version)

	app.AddCommand(&Command{
		Name:    "node-packages",
		Summary: "Link packages that define a ROS 2 node",
		Usage:   "Usage: rosdex node-packages <search_dir> <links_dir> [--max N]",
		Run: func(args []string) error {
			return runNodePackages(configDir, args)
		},
	})

	app.AddCommand(&Command{
		Name:    "missing-readmes",
		Summary: "Link packages that have no README file",
		Usage:   "Usage: rosdex missing-readmes <search_dir> <links_dir> [--max N]",
		Run: func(args []string) error {
			return runMissingReadmes(configDir, args)
		},
	})

	app.AddCommand(&Command{
		Name:    "node-index",
		Summary: "Write a JSON index of packages and their node files",
		Usage:   "Usage: rosdex node-index <search_dir> <output_json> [--max N] [--watch]",
		Run: func(args []string) error {
			return runNodeIndex(configDir, args)
		},
	})

	app.AddCommand(&Command{
		Name:    "version",
		Summary: "Print version and exit",
		Usage:   "Usage: rosdex version",
		Run: func(args []string) error {
			fmt.Println(version)
			return nil
		},
	})

	return app
}
