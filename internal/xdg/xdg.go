// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

// Package xdg provides XDG Base Directory paths for Inkpress.
package xdg

import (
	"os"
	"path/filepath"
)

const appName = "inkpress"

// ConfigDir returns the XDG config directory for inkpress.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// DefaultConfigFile returns the path to the default config file if it
// exists, or an empty string when there is none.
func DefaultConfigFile() string {
	path := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
