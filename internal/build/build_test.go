package build_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GullianLanguage/Gullian/internal/build"
)

func TestParseFlagsSplitsAndPreservesQuotes(t *testing.T) {
	flags := build.ParseFlags(`-O2 -I"/usr/local/include" '-DFOO=bar baz'`)
	assert.Equal(t, []string{"-O2", `-I"/usr/local/include"`, `'-DFOO=bar baz'`}, flags)
}

func TestParseFlagsEmpty(t *testing.T) {
	assert.Nil(t, build.ParseFlags(""))
}

// fakeCompiler writes a script masquerading as a C compiler: it records its
// argv to argsFile instead of actually compiling anything, so Build can be
// exercised without depending on a real toolchain being installed.
func fakeCompiler(t *testing.T, dir, argsFile string) string {
	t.Helper()
	script := filepath.Join(dir, "fakecc")
	body := "#!/bin/sh\necho \"$@\" > " + argsFile + "\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0755))
	return script
}

func TestBuildInvokesCompilerWithExpectedArgs(t *testing.T) {
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args.txt")
	cc := fakeCompiler(t, dir, argsFile)

	cPath := filepath.Join(dir, "main.c")
	require.NoError(t, os.WriteFile(cPath, []byte("int main(){return 0;}"), 0644))
	binPath := filepath.Join(dir, "main")

	err := build.Build(cPath, build.Options{
		CC:         cc,
		CFlags:     []string{"-O2"},
		LDFlags:    []string{"-lm"},
		OutputPath: binPath,
	})
	require.NoError(t, err)

	got, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Contains(t, string(got), "-O2")
	assert.Contains(t, string(got), cPath)
	assert.Contains(t, string(got), "-o "+binPath)
	assert.Contains(t, string(got), "-lm")
}
