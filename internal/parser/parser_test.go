package parser_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/GullianLanguage/Gullian/internal/ast"
	"github.com/GullianLanguage/Gullian/internal/parser"
	"github.com/GullianLanguage/Gullian/internal/token"
)

func TestParseHello(t *testing.T) {
	src := `extern fun puts(s: str): int
fun main(): int { puts("hi") return 0 }`

	file, err := parser.Parse(src, "main")
	require.NoError(t, err)
	require.Len(t, file.Declarations, 2)

	extern, ok := file.Declarations[0].(*ast.Extern)
	require.True(t, ok)
	require.Equal(t, "puts", extern.Head.Name.Value)

	fn, ok := file.Declarations[1].(*ast.FunctionDeclaration)
	require.True(t, ok)
	require.Equal(t, "main", fn.Head.Name.Value)
	require.Len(t, fn.Body.Statements, 2)

	call, ok := fn.Body.Statements[0].(*ast.Call)
	require.True(t, ok)
	require.Equal(t, "puts", call.Callee.Format())
	require.Len(t, call.Args, 1)
}

func TestParseStructLiteralAndAttribute(t *testing.T) {
	src := `struct Point { x: int, y: int }
fun main(): int { let p = Point{1,2} return p.x }`

	file, err := parser.Parse(src, "main")
	require.NoError(t, err)

	sd, ok := file.Declarations[0].(*ast.StructDeclaration)
	require.True(t, ok)
	require.Len(t, sd.Fields, 2)

	fn := file.Declarations[1].(*ast.FunctionDeclaration)
	decl := fn.Body.Statements[0].(*ast.VariableDeclaration)
	lit, ok := decl.Value.(*ast.StructLiteral)
	require.True(t, ok)
	require.Len(t, lit.Fields, 2)

	ret := fn.Body.Statements[1].(*ast.Return)
	attr, ok := ret.Value.(*ast.Attribute)
	require.True(t, ok)
	require.Equal(t, "p.x", attr.Format())
}

func TestParseGenericStructAndCall(t *testing.T) {
	src := `struct Box[T]{v:T}
fun id[T](b: Box[T]): T { return b.v }
fun main(): int { return id(Box[int]{7}) }`

	file, err := parser.Parse(src, "main")
	require.NoError(t, err)
	require.Len(t, file.Declarations, 3)

	box := file.Declarations[0].(*ast.StructDeclaration)
	require.Equal(t, []string{"T"}, namesOf(box.Generic))

	idFn := file.Declarations[1].(*ast.FunctionDeclaration)
	require.Equal(t, []string{"T"}, namesOf(idFn.Head.Generic))
	sub, ok := idFn.Head.Args[0].TypeHint.(*ast.Subscript)
	require.True(t, ok)
	require.Equal(t, "Box", sub.Head.Format())

	mainFn := file.Declarations[2].(*ast.FunctionDeclaration)
	ret := mainFn.Body.Statements[0].(*ast.Return)
	call := ret.Value.(*ast.Call)
	require.Equal(t, "id", call.Callee.Format())
	lit := call.Args[0].(*ast.StructLiteral)
	litSub, ok := lit.Type.(*ast.Subscript)
	require.True(t, ok)
	require.Equal(t, "Box", litSub.Head.Format())
}

func TestParseUnionGuard(t *testing.T) {
	src := `union Opt[T]{some:T,none:int}
fun main(): int { let o = Opt[int]{some:3} if o.some? { return o.some } return 0 }`

	file, err := parser.Parse(src, "main")
	require.NoError(t, err)

	mainFn := file.Declarations[1].(*ast.FunctionDeclaration)
	ifStmt := mainFn.Body.Statements[1].(*ast.If)
	guard, ok := ifStmt.Cond.(*ast.TestGuard)
	require.True(t, ok)
	attr := guard.Target.(*ast.Attribute)
	require.Equal(t, "o.some", attr.Format())
}

func TestParseForLoweringInput(t *testing.T) {
	src := `fun main(): int { for x in xs { puts(x) } return 0 }`

	file, err := parser.Parse(src, "main")
	require.NoError(t, err)

	mainFn := file.Declarations[0].(*ast.FunctionDeclaration)
	forStmt, ok := mainFn.Body.Statements[0].(*ast.For)
	require.True(t, ok)
	require.Equal(t, "x", forStmt.Var.Value)
	require.Equal(t, "xs", forStmt.Iter.Format())
}

func TestParseSwitchDefault(t *testing.T) {
	src := `fun main(): int { return switch 1 { 1: 10, _: 0 } }`

	file, err := parser.Parse(src, "main")
	require.NoError(t, err)

	mainFn := file.Declarations[0].(*ast.FunctionDeclaration)
	ret := mainFn.Body.Statements[0].(*ast.Return)
	sw, ok := ret.Value.(*ast.Switch)
	require.True(t, ok)
	require.Len(t, sw.Cases, 2)
	require.Nil(t, sw.Cases[1].Pattern)

	gotPatterns := make([]string, len(sw.Cases))
	for i, c := range sw.Cases {
		if c.Pattern == nil {
			gotPatterns[i] = "_"
			continue
		}
		gotPatterns[i] = c.Pattern.Format()
	}
	wantPatterns := []string{"1", "_"}
	if diff := cmp.Diff(wantPatterns, gotPatterns); diff != "" {
		t.Errorf("switch case patterns mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEmptyParenIsSyntaxError(t *testing.T) {
	_, err := parser.Parse(`fun main(): int { return () }`, "main")
	require.Error(t, err)
}

func namesOf(names []token.Name) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = n.Value
	}
	return out
}
