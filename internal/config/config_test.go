package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GullianLanguage/Gullian/internal/config"
)

func writeManifest(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ManifestName), []byte(body), 0644))
}

func TestLoadParsesFields(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "entry: main.gullian\noutput: build/main.c\ncflags: [-O2]\nldflags: [-lm]\n")

	m, err := config.Load(filepath.Join(dir, config.ManifestName))
	require.NoError(t, err)
	assert.Equal(t, "main.gullian", m.Entry)
	assert.Equal(t, "build/main.c", m.Output)
	assert.Equal(t, []string{"-O2"}, m.CFlags)
	assert.Equal(t, []string{"-lm"}, m.LDFlags)
}

func TestDiscoverWalksUpToNearestManifest(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "entry: main.gullian\n")

	sub := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0755))

	m, err := config.Discover(sub)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "main.gullian", m.Entry)
}

func TestDiscoverReturnsNilWithoutError(t *testing.T) {
	dir := t.TempDir()
	m, err := config.Discover(dir)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestResolveOutputDefaultsFromEntry(t *testing.T) {
	var m *config.Manifest
	assert.Equal(t, "main.c", m.ResolveOutput("main.gullian"))

	m = &config.Manifest{Output: "out/prog.c"}
	assert.Equal(t, "out/prog.c", m.ResolveOutput("main.gullian"))
}

func TestResolveBinaryDefaultsFromOutput(t *testing.T) {
	var m *config.Manifest
	assert.Equal(t, "main", m.ResolveBinary("main.c"))

	m = &config.Manifest{Binary: "prog"}
	assert.Equal(t, "prog", m.ResolveBinary("main.c"))
}

func TestResolveHomeFallsBackToEnv(t *testing.T) {
	t.Setenv("GULLIAN_HOME", "/opt/gullian")
	var m *config.Manifest
	assert.Equal(t, "/opt/gullian", m.ResolveHome())

	m = &config.Manifest{Home: "/custom"}
	assert.Equal(t, "/custom", m.ResolveHome())
}
