package config

import (
	"os"
	"path/filepath"
)

// DefaultConfigPath locates the config file when no --config flag is
// given. It checks, in order: $CHUTE_CONFIG, ./chute.json, then the
// per-user config directories. Returns "" when nothing exists, which
// Load treats as defaults-only.
func DefaultConfigPath() string {
	if p := os.Getenv("CHUTE_CONFIG"); p != "" {
		return p
	}
	if isFile("chute.json") {
		return "chute.json"
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		if p := filepath.Join(xdg, "chute", "config.json"); isFile(p) {
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return ""
	}
	if p := filepath.Join(homeDir, ".config", "chute", "config.json"); isFile(p) {
		return p
	}
	if p := filepath.Join(homeDir, ".chute", "config.json"); isFile(p) {
		return p
	}
	return ""
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
