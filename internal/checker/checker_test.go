package checker_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GullianLanguage/Gullian/internal/checker"
)

func writeSource(t *testing.T, dir, name, src string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(src), 0644))
	return p
}

func TestCompileFileInstallThenCheckAllowsForwardReference(t *testing.T) {
	dir := t.TempDir()
	entry := writeSource(t, dir, "main.gullian", `fun main(): int { return helper() }
fun helper(): int { return 0 }`)

	_, _, err := checker.CompileFile(entry, dir, nil)
	require.NoError(t, err)
}

func TestCompileFileImportCycleTerminates(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a.gullian", `import b
fun fromA(): int { return 0 }`)
	writeSource(t, dir, "b.gullian", `import a
fun fromB(): int { return 0 }`)
	entry := filepath.Join(dir, "a.gullian")

	module, reg, err := checker.CompileFile(entry, dir, nil)
	require.NoError(t, err)
	require.NotNil(t, module)

	b, ok := module.Imports["b"]
	require.True(t, ok)
	a, ok := b.Imports["a"]
	require.True(t, ok)
	assert.Same(t, module, a, "b's import of a must resolve to the in-progress root module, not a reparsed copy")
	assert.Len(t, reg.Modules, 2)
}

func TestUnionVariantRequiresGuard(t *testing.T) {
	dir := t.TempDir()
	entry := writeSource(t, dir, "main.gullian", `union Opt[T]{some:T,none:int}
fun main(): int { let o = Opt[int]{some:3} return o.some }`)

	_, _, err := checker.CompileFile(entry, dir, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type:")
}

func TestUnionVariantGuardedReadSucceeds(t *testing.T) {
	dir := t.TempDir()
	entry := writeSource(t, dir, "main.gullian", `union Opt[T]{some:T,none:int}
fun main(): int { let o = Opt[int]{some:3} if o.some? { return o.some } return 0 }`)

	_, _, err := checker.CompileFile(entry, dir, nil)
	require.NoError(t, err)
}

func TestForLoopLoweringRequiresNextMethod(t *testing.T) {
	dir := t.TempDir()
	entry := writeSource(t, dir, "main.gullian", `struct Counter{n:int}
union Step{ok:int,done:int}
fun Counter.next(self: Counter): Step { return Step{done: 0} }
fun main(): int {
	let c = Counter{3}
	for x in c { }
	return 0
}`)

	_, _, err := checker.CompileFile(entry, dir, nil)
	require.NoError(t, err)
}

func TestMonomorphizationIsMemoizedAcrossCallSites(t *testing.T) {
	dir := t.TempDir()
	entry := writeSource(t, dir, "main.gullian", `struct Box[T]{v:T}
fun id[T](b: Box[T]): T { return b.v }
fun main(): int {
	let a = id(Box[int]{1})
	let b = id(Box[int]{2})
	return a + b
}`)

	module, _, err := checker.CompileFile(entry, dir, nil)
	require.NoError(t, err)

	_, ok := module.Types["Box[int]"]
	assert.True(t, ok, "Box[int] specialization must be memoized on the module")
}

func TestUnknownNameIsNameError(t *testing.T) {
	dir := t.TempDir()
	entry := writeSource(t, dir, "main.gullian", `fun main(): int { return nope }`)

	_, _, err := checker.CompileFile(entry, dir, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name:")
}
