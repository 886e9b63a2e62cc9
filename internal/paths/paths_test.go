package paths_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GullianLanguage/Gullian/internal/paths"
)

func TestDefaultOutputPath(t *testing.T) {
	tests := []struct{ entry, expected string }{
		{"main.gullian", "main.c"},
		{"src/math.gullian", "src/math.c"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, paths.DefaultOutputPath(tt.entry))
	}
}

func TestDefaultBinaryPath(t *testing.T) {
	tests := []struct{ output, expected string }{
		{"main.c", "main"},
		{"build/prog.c", "build/prog"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, paths.DefaultBinaryPath(tt.output))
	}
}
