// Package comptime is the tree-walk interpreter invoked by the checker for
// every `comptime expr` node (spec.md §4.4). Its scope is intentionally
// narrow: literals, already-bound variables, and the small set of
// compiler-recognized intrinsics a comptime expression is allowed to call
// (currently just `puts`, which every comptime scenario in spec.md §8
// reduces to). A name with no binding is a name error; anything else a
// comptime expression cannot reduce to a literal is an internal error --
// comptime evaluation never partially succeeds.
package comptime

import (
	"github.com/GullianLanguage/Gullian/internal/ast"
	"github.com/GullianLanguage/Gullian/internal/diagnostic"
	"github.com/GullianLanguage/Gullian/internal/token"
	"github.com/GullianLanguage/Gullian/internal/types"
)

// Interpreter holds the comptime-local variable bindings for one
// compilation unit. It is cheap to construct; the checker makes a fresh one
// per comptime block rather than threading state across unrelated blocks.
type Interpreter struct {
	Module    string
	Variables map[string]*types.Typed
}

// New returns an empty Interpreter scoped to moduleName (used only for
// diagnostic attribution).
func New(moduleName string) *Interpreter {
	return &Interpreter{Module: moduleName, Variables: make(map[string]*types.Typed)}
}

// Bind records a value a comptime expression may reference by name, e.g. a
// preceding `let` at the same checking depth.
func (in *Interpreter) Bind(name string, value *types.Typed) { in.Variables[name] = value }

// Eval reduces an already-typed expression to its comptime value. The
// incoming Typed's Type is reused as the fallback type for any literal the
// evaluation bottoms out at, since literals carry no type of their own.
func (in *Interpreter) Eval(t *types.Typed) (*types.Typed, error) {
	return in.evalNode(t.Value, t.Type)
}

func (in *Interpreter) evalNode(node ast.Node, fallback *types.Type) (*types.Typed, error) {
	switch n := node.(type) {
	case token.Literal:
		return &types.Typed{Value: n, Type: fallback}, nil
	case token.Name:
		if v, ok := in.Variables[n.Value]; ok {
			return v, nil
		}
		return nil, diagnostic.Namef(in.Module, n.Line(), "comptime: unbound variable %q", n.Value)
	case *ast.Call:
		return in.evalCall(n)
	case *ast.Return:
		if n.Value == nil {
			return nil, diagnostic.Internalf(in.Module, n.Line(), "comptime: bare return has no value")
		}
		return in.evalNode(n.Value, fallback)
	case *types.Typed:
		return n, nil
	default:
		return nil, diagnostic.Internalf(in.Module, node.Line(), "comptime interpreter cannot reduce %T to a value", node)
	}
}

// evalCall supports the one intrinsic spec.md §4.4 requires: `puts(...)`
// always reduces to the int literal 0, matching the C standard library's
// return convention.
func (in *Interpreter) evalCall(c *ast.Call) (*types.Typed, error) {
	name, ok := c.Callee.(token.Name)
	if ok && name.Value == "puts" {
		intT, _ := types.Lookup(types.NameInt)
		return &types.Typed{Value: token.Literal{Value: int64(0), Ln: c.Ln}, Type: intT}, nil
	}
	return nil, diagnostic.Internalf(in.Module, c.Line(), "comptime interpreter does not support calling %s", c.Callee.Format())
}
