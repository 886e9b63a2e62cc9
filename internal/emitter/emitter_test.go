package emitter_test

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

func compile(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	entry := filepath.Join(dir, "main.gullian")
	require.NoError(t, os.WriteFile(entry, []byte(src), 0644))

	module, reg, err := checker.CompileFile(entry, dir, nil)
	require.NoError(t, err)

	out, err := emitter.Emit(module, reg, nil)
	require.NoError(t, err)
	return out
}

func TestEmitHello(t *testing.T) {
	out := compile(t, `extern fun puts(s: str): int
fun main(): int { puts("hi") return 0 }`)

	assert.Contains(t, out, "int main(")
	assert.Contains(t, out, `puts("hi");`)
}

func TestEmitStruct(t *testing.T) {
	out := compile(t, `struct Point { x: int, y: int }
fun main(): int { let p = Point{1,2} return p.x }`)

	assert.Contains(t, out, "struct Point {")
	assert.Contains(t, out, "int x;")
	assert.Contains(t, out, "int y;")
	assert.Contains(t, out, "(struct Point){1, 2}")
	assert.Contains(t, out, "p.x")
}

func TestEmitGenericMonomorphization(t *testing.T) {
	out := compile(t, `struct Box[T]{v:T}
fun id[T](b: Box[T]): T { return b.v }
fun main(): int { return id(Box[int]{7}) }`)

	assert.Equal(t, 1, strings.Count(out, "_S_Box_int {"), "expected exactly one monomorphized Box[int] struct definition:\n%s", out)
	assert.Contains(t, out, "_S_Box_int {")
	assert.Contains(t, out, "S_id_int(")
}

func TestEmitUnionVariantGuard(t *testing.T) {
	out := compile(t, `union Opt[T]{some:T,none:int}
fun main(): int { let o = Opt[int]{some:3} if o.some? { return o.some } return 0 }`)

	assert.Contains(t, out, "int tag;")
	assert.Contains(t, out, "union {")
	assert.Contains(t, out, ".tag ==")
}

func TestEmitImplicitGenericInference(t *testing.T) {
	out := compile(t, `fun twice[T](x:T):T { return x }
fun main():int{ return twice(5) }`)

	assert.Contains(t, out, "S_twice_int(")
}

func TestEmitIdempotentMonomorphization(t *testing.T) {
	out := compile(t, `struct Box[T]{v:T}
fun id[T](b: Box[T]): T { return b.v }
fun main(): int {
	let a = id(Box[int]{1})
	let b = id(Box[int]{2})
	return a + b
}`)

	assert.Equal(t, 1, strings.Count(out, "_S_Box_int {"), "Box[int] must be emitted exactly once across both call sites:\n%s", out)
	assert.Equal(t, 2, strings.Count(out, "S_id_int(struct"), "id[int] must appear once as a prototype and once as a body:\n%s", out)
}

func TestEmitSwitchLiftsResultVariable(t *testing.T) {
	out := compile(t, `enum Color { Red, Green, Blue }
fun code(c: Color): int {
	return switch c {
		Color.Red: 1,
		Color.Green: 2,
		_: 0,
	}
}
fun main(): int { return code(Color.Red) }`)

	assert.Contains(t, out, "switch (c) {")
	assert.Contains(t, out, "default:")
}
