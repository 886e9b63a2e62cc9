// Package paths provides path handling utilities for the Gullian driver.
package paths

import (
	"path/filepath"
	"strings"
)

// DefaultOutputPath derives the emitted C file path from an entry source
// path when the caller passes no explicit outfile: "main.gullian" becomes
// "main.c" in the same directory.
func DefaultOutputPath(entryPath string) string {
	ext := filepath.Ext(entryPath)
	return strings.TrimSuffix(entryPath, ext) + ".c"
}

// DefaultBinaryPath derives a linked binary's path from the emitted C file
// path, for the optional `gullian build` subcommand: "main.c" becomes
// "main".
func DefaultBinaryPath(outputCPath string) string {
	return strings.TrimSuffix(outputCPath, filepath.Ext(outputCPath))
}
