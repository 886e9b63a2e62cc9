package comptime_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GullianLanguage/Gullian/internal/ast"
	"github.com/GullianLanguage/Gullian/internal/comptime"
	"github.com/GullianLanguage/Gullian/internal/token"
	"github.com/GullianLanguage/Gullian/internal/types"
)

func TestEvalLiteralPassesThrough(t *testing.T) {
	intT, _ := types.Lookup(types.NameInt)
	in := comptime.New("main")

	got, err := in.Eval(&types.Typed{Value: token.Literal{Value: int64(42)}, Type: intT})
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Value.(token.Literal).Value)
	assert.Same(t, intT, got.Type)
}

func TestEvalBoundVariable(t *testing.T) {
	strT, _ := types.Lookup(types.NameStr)
	in := comptime.New("main")
	in.Bind("greeting", &types.Typed{Value: token.Literal{Value: "hi"}, Type: strT})

	got, err := in.Eval(&types.Typed{Value: token.Name{Value: "greeting"}, Type: strT})
	require.NoError(t, err)
	assert.Equal(t, "hi", got.Value.(token.Literal).Value)
}

func TestEvalUnboundVariableIsNameError(t *testing.T) {
	intT, _ := types.Lookup(types.NameInt)
	in := comptime.New("main")

	_, err := in.Eval(&types.Typed{Value: token.Name{Value: "nope"}, Type: intT})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name:")
}

func TestEvalPutsIntrinsicReducesToZero(t *testing.T) {
	intT, _ := types.Lookup(types.NameInt)
	in := comptime.New("main")

	call := &ast.Call{Callee: token.Name{Value: "puts"}, Args: []ast.Node{token.Literal{Value: "hello"}}}
	got, err := in.Eval(&types.Typed{Value: call, Type: intT})
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Value.(token.Literal).Value)
	assert.Same(t, intT, got.Type)
}

func TestEvalUnsupportedCallIsInternalError(t *testing.T) {
	intT, _ := types.Lookup(types.NameInt)
	in := comptime.New("main")

	call := &ast.Call{Callee: token.Name{Value: "mystery"}}
	_, err := in.Eval(&types.Typed{Value: call, Type: intT})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "internal:")
}
