// Package config provides settings and on-disk layout for substance.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Paths holds the on-disk layout below one base directory.
type Paths struct {
	// BaseDir is the root of all substance state.
	// Default: ~/.substance
	BaseDir string

	// EnginesDir holds one directory per engine.
	EnginesDir string

	// EnvsDir holds one directory per environment.
	EnvsDir string

	// DocumentFile is the substance.yml key-value document.
	DocumentFile string

	// SettingsFile is the optional viper settings file.
	SettingsFile string

	// CurrentLink points at the current environment directory.
	CurrentLink string
}

// DefaultBaseDir returns ~/.substance.
func DefaultBaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".substance"), nil
}

// NewPaths returns the layout rooted at base. A leading ~ is expanded and the
// result made absolute.
func NewPaths(base string) (*Paths, error) {
	base, err := ExpandPath(base)
	if err != nil {
		return nil, err
	}
	return &Paths{
		BaseDir:      base,
		EnginesDir:   filepath.Join(base, "engines"),
		EnvsDir:      filepath.Join(base, "envs"),
		DocumentFile: filepath.Join(base, "substance.yml"),
		SettingsFile: filepath.Join(base, "config.yaml"),
		CurrentLink:  filepath.Join(base, "current"),
	}, nil
}

// GetPaths returns the layout rooted at the default base directory.
func GetPaths() (*Paths, error) {
	base, err := DefaultBaseDir()
	if err != nil {
		return nil, err
	}
	return NewPaths(base)
}

// ExpandPath expands a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}
