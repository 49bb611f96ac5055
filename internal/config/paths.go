package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// EnvConfigPath is the environment variable for explicit config path
	EnvConfigPath = "VOCABHUB_CONFIG"
	// ConfigFileName is the default config file name
	ConfigFileName = "vocabhub.yaml"
	// ConfigDirName is the config directory name under XDG
	ConfigDirName = "vocabhub"
)

// CandidatePaths lists the config locations searched by FindConfigPath, most
// specific first. Every location is tried with a .yaml and a .yml extension.
func CandidatePaths() []string {
	var bases []string
	if path := os.Getenv(EnvConfigPath); path != "" {
		bases = append(bases, path)
	}
	bases = append(bases, ConfigFileName)
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		bases = append(bases, filepath.Join(xdgHome, ConfigDirName, "config.yaml"))
	}
	if home := os.Getenv("HOME"); home != "" {
		bases = append(bases, filepath.Join(home, ".config", ConfigDirName, "config.yaml"))
	}
	bases = append(bases, filepath.Join("/etc", ConfigDirName, "config.yaml"))

	paths := make([]string, 0, 2*len(bases))
	for _, base := range bases {
		paths = append(paths, base)
		if alt, ok := ymlAlternative(base); ok {
			paths = append(paths, alt)
		}
	}
	return paths
}

// FindConfigPath returns the first existing file of CandidatePaths, made
// absolute when relative, or "" when none exists
func FindConfigPath() string {
	for _, path := range CandidatePaths() {
		if !fileExists(path) {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	return ""
}

// ymlAlternative swaps a .yaml extension for .yml
func ymlAlternative(path string) (string, bool) {
	if !strings.HasSuffix(path, ".yaml") {
		return "", false
	}
	return strings.TrimSuffix(path, ".yaml") + ".yml", true
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), 0755)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
