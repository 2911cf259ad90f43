// pattern: Functional Core

package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"rosdex/internal/discovery"
)

// Config holds the ambient settings shared by all rosdex commands.
// Discovery inputs (search dir, output target, cap) come from the command
// line; the config file only tunes exclusions and logging.
type Config struct {
	LogLevel    string   `yaml:"log_level"`
	LogFile     string   `yaml:"log_file"`
	ExcludeDirs []string `yaml:"exclude_dirs"`
}

func DefaultConfig() Config {
	return Config{
		LogLevel:    "info",
		ExcludeDirs: discovery.DefaultExcludedNames,
	}
}

func Load() (Config, error) {
	return LoadFrom(getConfigPath())
}

// LoadFromDir loads config.yaml from an explicit directory.
func LoadFromDir(dir string) (Config, error) {
	return LoadFrom(filepath.Join(dir, "config.yaml"))
}

func LoadFrom(configPath string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), err
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if len(cfg.ExcludeDirs) == 0 {
		cfg.ExcludeDirs = discovery.DefaultExcludedNames
	}

	return cfg, nil
}

// ResolveLogFile returns the configured log file path, defaulting to
// rosdex.log inside dataDir.
func (c *Config) ResolveLogFile(dataDir string) string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(dataDir, "rosdex.log")
}

func getConfigPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "rosdex", "config.yaml")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "rosdex", "config.yaml")
	}

	return filepath.Join(home, ".config", "rosdex", "config.yaml")
}
