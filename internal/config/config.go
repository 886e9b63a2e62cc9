// Package config loads the optional gullian.yaml project manifest: the
// entry source file, the emitted output path, and the search roots and
// compiler flags the driver and the `build` subcommand use.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/GullianLanguage/Gullian/internal/paths"
)

const ManifestName = "gullian.yaml"

// Manifest is the on-disk project description. Every field is optional;
// a CLI flag or positional argument always overrides the matching field.
type Manifest struct {
	Entry    string   `yaml:"entry"`              // source file, e.g. "main.gullian"
	Output   string   `yaml:"output"`              // emitted C path; default derived from Entry
	Home     string   `yaml:"home"`               // fallback import search root; overrides GULLIAN_HOME
	CC       string   `yaml:"cc"`                 // compiler for `gullian build`; default "cc"
	CFlags   []string `yaml:"cflags"`
	LDFlags  []string `yaml:"ldflags"`
	Binary   string   `yaml:"binary"`             // linked binary path for `gullian build`
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &m, nil
}

// Discover walks up from startDir looking for a gullian.yaml, returning
// (nil, nil) if none is found -- an absent manifest is not an error, since
// every field also has a command-line equivalent.
func Discover(startDir string) (*Manifest, error) {
	absPath, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	current := absPath
	for {
		candidate := filepath.Join(current, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return Load(candidate)
		}

		parent := filepath.Dir(current)
		if parent == current {
			return nil, nil
		}
		current = parent
	}
}

// ResolveOutput returns m.Output if set, else derives it from entryPath.
func (m *Manifest) ResolveOutput(entryPath string) string {
	if m != nil && m.Output != "" {
		return m.Output
	}
	return paths.DefaultOutputPath(entryPath)
}

// ResolveBinary returns m.Binary if set, else derives it from outputPath.
func (m *Manifest) ResolveBinary(outputPath string) string {
	if m != nil && m.Binary != "" {
		return m.Binary
	}
	return paths.DefaultBinaryPath(outputPath)
}

// ResolveHome returns m.Home if set, else the GULLIAN_HOME environment
// variable, else the empty string (imports then resolve relative to cwd
// only).
func (m *Manifest) ResolveHome() string {
	if m != nil && m.Home != "" {
		return m.Home
	}
	return os.Getenv("GULLIAN_HOME")
}
