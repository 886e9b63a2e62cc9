// Package integration runs the full source-to-C pipeline end to end, one
// test per spec.md §8 seed scenario, driving checker.CompileFile and
// emitter.Emit directly rather than shelling out to a built binary.
package integration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GullianLanguage/Gullian/internal/checker"
	"github.com/GullianLanguage/Gullian/internal/emitter"
)

func compile(t *testing.T, files map[string]string, entry string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0644))
	}

	module, reg, err := checker.CompileFile(filepath.Join(dir, entry), dir, nil)
	if err != nil {
		return "", err
	}
	return emitter.Emit(module, reg, nil)
}

func TestScenarioHello(t *testing.T) {
	out, err := compile(t, map[string]string{
		"main.gullian": `extern fun puts(s: str): int
fun main(): int { puts("hi") return 0 }`,
	}, "main.gullian")
	require.NoError(t, err)
	assert.Contains(t, out, "int main(")
	assert.Contains(t, out, `puts("hi");`)
}

func TestScenarioStruct(t *testing.T) {
	out, err := compile(t, map[string]string{
		"main.gullian": `struct Point { x: int, y: int }
fun main(): int { let p = Point{1,2} return p.x }`,
	}, "main.gullian")
	require.NoError(t, err)
	assert.Contains(t, out, "struct Point {")
	assert.Contains(t, out, "p.x")
}

func TestScenarioGenericMonomorphization(t *testing.T) {
	out, err := compile(t, map[string]string{
		"main.gullian": `struct Box[T]{v:T}
fun id[T](b: Box[T]): T { return b.v }
fun main(): int { return id(Box[int]{7}) }`,
	}, "main.gullian")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "_S_Box_int {"))
	assert.Contains(t, out, "S_id_int(")
}

func TestScenarioUnionVariantGuard(t *testing.T) {
	guarded := `union Opt[T]{some:T,none:int}
fun main(): int { let o = Opt[int]{some:3} if o.some? { return o.some } return 0 }`
	_, err := compile(t, map[string]string{"main.gullian": guarded}, "main.gullian")
	require.NoError(t, err)

	unguarded := `union Opt[T]{some:T,none:int}
fun main(): int { let o = Opt[int]{some:3} return o.some }`
	_, err = compile(t, map[string]string{"main.gullian": unguarded}, "main.gullian")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type:")
}

func TestScenarioImplicitGenericInference(t *testing.T) {
	out, err := compile(t, map[string]string{
		"main.gullian": `fun twice[T](x:T):T { return x }
fun main():int{ return twice(5) }`,
	}, "main.gullian")
	require.NoError(t, err)
	assert.Contains(t, out, "S_twice_int(")
}

func TestScenarioImportCycle(t *testing.T) {
	out, err := compile(t, map[string]string{
		"a.gullian": `import b
fun fromA(): int { return 0 }
fun main(): int { return fromA() }`,
		"b.gullian": `import a
fun fromB(): int { return 0 }`,
	}, "a.gullian")
	require.NoError(t, err)
	assert.Contains(t, out, "int main(")
}
