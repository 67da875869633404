// Package ui renders drowse terminal output: status lines, the history
// table, and sleep statistics.
package ui

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Theme is the color palette for terminal output. Values are hex colors
// or ANSI color numbers, whatever lipgloss accepts.
type Theme struct {
	Accent string `toml:"accent"`
	Muted  string `toml:"muted"`
	Pass   string `toml:"pass"`
	Warn   string `toml:"warn"`
	Fail   string `toml:"fail"`
}

// DefaultTheme returns the built-in palette.
func DefaultTheme() Theme {
	return Theme{
		Accent: "#74c7ec",
		Muted:  "#a6adc8",
		Pass:   "#a6e3a1",
		Warn:   "#fab387",
		Fail:   "#f38ba8",
	}
}

// LoadTheme reads a TOML theme file. Keys missing from the file keep
// their built-in values.
func LoadTheme(path string) (Theme, error) {
	t := DefaultTheme()
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return Theme{}, fmt.Errorf("failed to load theme %s: %w", path, err)
	}
	return t, nil
}
