package gmodule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GullianLanguage/Gullian/internal/ast"
	"github.com/GullianLanguage/Gullian/internal/gmodule"
	"github.com/GullianLanguage/Gullian/internal/token"
	"github.com/GullianLanguage/Gullian/internal/types"
)

func TestImportTypePrimitive(t *testing.T) {
	m := gmodule.New("main", nil)
	got, err := m.ImportType(token.Name{Value: "int"})
	require.NoError(t, err)
	want, _ := types.Lookup("int")
	assert.Same(t, want, got)
}

func TestImportTypeUnknownIsNameError(t *testing.T) {
	m := gmodule.New("main", nil)
	_, err := m.ImportType(token.Name{Value: "Nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name:")
}

func TestPtrSpecializationSharesPtrUid(t *testing.T) {
	m := gmodule.New("main", nil)
	strT, _ := types.Lookup("str")
	ptrPrim, _ := types.Lookup("ptr")

	got, err := m.ImportType(&ast.UnaryOperator{Op: token.Ampersand, Operand: token.Name{Value: "str"}})
	require.NoError(t, err)
	assert.Equal(t, ptrPrim.Uid, got.Uid)
	assert.Same(t, strT, got.PointsTo)

	again, err := m.ImportType(&ast.UnaryOperator{Op: token.Ampersand, Operand: token.Name{Value: "str"}})
	require.NoError(t, err)
	assert.Same(t, got, again, "ptr[str] must be memoized")
}

func TestGenericInstantiationIsMemoizedPerModule(t *testing.T) {
	m := gmodule.New("main", nil)

	boxDecl := &ast.StructDeclaration{
		Name:    token.Name{Value: "Box"},
		Generic: []token.Name{{Value: "T"}},
		Fields:  []ast.Param{{Name: token.Name{Value: "v"}, TypeHint: token.Name{Value: "T"}}},
	}
	boxType := types.New(token.Name{Value: "Box"}, boxDecl, m)
	m.DeclareType("Box", boxType)

	sub := &ast.Subscript{Head: token.Name{Value: "Box"}, Items: []ast.Node{token.Name{Value: "int"}}}

	first, err := m.ImportType(sub)
	require.NoError(t, err)
	second, err := m.ImportType(sub)
	require.NoError(t, err)

	assert.Same(t, first, second, "resolving Box[int] twice must yield the same Type object")
	assert.NotEqual(t, boxType.Uid, first.Uid, "specialization must get a fresh uid")

	specializedDecl := first.Declaration.(*ast.StructDeclaration)
	require.Len(t, specializedDecl.Fields, 1)
	assert.Equal(t, "int", specializedDecl.Fields[0].TypeHint.Format(), "T must be substituted with int")
}

func TestScopeSaveMutateRestore(t *testing.T) {
	m := gmodule.New("main", nil)
	before := m.Scope

	child := before.Push()
	child.Bind(token.Name{Value: "x"}, mustInt(t))
	m.Scope = child

	_, foundInChild := m.Scope.LookupVariable("x")
	assert.True(t, foundInChild)

	m.Scope = before

	_, foundAfterRestore := m.Scope.LookupVariable("x")
	assert.False(t, foundAfterRestore, "restoring the saved scope must not see the child's bindings")
}

func TestUnionGuardStack(t *testing.T) {
	opt := types.New(token.Name{Value: "Opt"}, &ast.UnionDeclaration{Name: token.Name{Value: "Opt"}}, nil)

	s := gmodule.NewScope()
	assert.False(t, s.HasGuard(opt, "some"))

	s.PushGuard(opt, "some")
	assert.True(t, s.HasGuard(opt, "some"))
	assert.False(t, s.HasGuard(opt, "none"))
}

func mustInt(t *testing.T) *types.Type {
	t.Helper()
	v, ok := types.Lookup("int")
	require.True(t, ok)
	return v
}
