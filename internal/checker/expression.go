package checker

import (
	"github.com/GullianLanguage/Gullian/internal/ast"
	"github.com/GullianLanguage/Gullian/internal/comptime"
	"github.com/GullianLanguage/Gullian/internal/diagnostic"
	"github.com/GullianLanguage/Gullian/internal/token"
	"github.com/GullianLanguage/Gullian/internal/types"
)

// ResolveExpr re-derives node's type against c.Module's current scope. The
// emitter calls this to recover the type information the checker computed
// transiently during CheckFile (this package wraps expressions in
// *types.Typed only at their point of elaboration, per types.Typed's doc
// comment -- nothing retains that wrapping in the tree afterward), so
// mangling and pointer-vs-value attribute access can be decided correctly
// at emission time without a second, parallel typed tree.
func (c *Checker) ResolveExpr(node ast.Node) (*types.Typed, error) {
	return c.checkExpression(node)
}

// checkExpression elaborates node, returning a types.Typed wrapping it. It
// is the single dispatch point every other checking function in this
// package routes expressions through.
func (c *Checker) checkExpression(node ast.Node) (*types.Typed, error) {
	switch n := node.(type) {
	case *types.Typed:
		return n, nil
	case token.Literal:
		return c.checkLiteral(n)
	case token.Name:
		return c.checkNameExpr(n)
	case *ast.Attribute:
		return c.checkAttribute(n)
	case *ast.Subscript:
		return c.checkSubscriptExpr(n)
	case *ast.UnaryOperator:
		return c.checkUnary(n)
	case *ast.BinaryOperator:
		return c.checkBinary(n)
	case *ast.TestGuard:
		if _, err := c.guardFor(n); err != nil {
			return nil, err
		}
		boolT, _ := types.Lookup(types.NameBool)
		return &types.Typed{Value: n, Type: boolT}, nil
	case *ast.Call:
		return c.checkCall(n)
	case *ast.StructLiteral:
		return c.checkStructOrUnionLiteral(n)
	case *ast.Switch:
		return c.checkSwitchExpr(n)
	case *ast.Comptime:
		valTyped, err := c.checkExpression(n.Value)
		if err != nil {
			return nil, err
		}
		result, err := comptime.New(c.Module.Name).Eval(valTyped)
		if err != nil {
			return nil, err
		}
		return result, nil
	default:
		return nil, diagnostic.InternalNodef(c.Module.Name, node.Line(), node, "cannot check expression of kind %T", node)
	}
}

func (c *Checker) checkLiteral(l token.Literal) (*types.Typed, error) {
	var name string
	switch l.Value.(type) {
	case bool:
		name = types.NameBool
	case int64:
		name = types.NameInt
	case float64:
		name = types.NameFloat
	case string:
		name = types.NameStr
	default:
		return nil, diagnostic.Internalf(c.Module.Name, l.Line(), "literal has unrecognized Go value %#v", l.Value)
	}
	t, _ := types.Lookup(name)
	return &types.Typed{Value: l, Type: t}, nil
}

// checkNameExpr resolves a bare identifier: a bound variable, a generic
// type-parameter alias, or -- when neither matches -- a Type used as a
// value (spec.md §4.3's "sizeof is emitted when a Type is used as a
// value"). In the latter case the Typed's own Type is the "type" primitive;
// the concrete Type it denotes is recovered by re-resolving Typed.Value
// through ImportType wherever that matters (checkTypeValueAttribute's
// enum-variant case, and the emitter's sizeof and enum-variant printing).
func (c *Checker) checkNameExpr(n token.Name) (*types.Typed, error) {
	if v, ok := c.Module.Scope.LookupVariable(n.Value); ok {
		return &types.Typed{Value: n, Type: v.Type}, nil
	}
	if _, ok := c.Module.Scope.LookupTypeVariable(n.Value); ok {
		typeT, _ := types.Lookup(types.NameType)
		return &types.Typed{Value: n, Type: typeT}, nil
	}
	if _, err := c.Module.ImportType(n); err == nil {
		typeT, _ := types.Lookup(types.NameType)
		return &types.Typed{Value: n, Type: typeT}, nil
	}
	return nil, diagnostic.Namef(c.Module.Name, n.Line(), "unknown variable %q", n.Value)
}

// checkAttribute resolves `left.right` (spec.md §4.3): module-qualified
// access, a Type value's enum variant or static member, or an instance's
// field/method, pointer-transparently and subject to union-guard
// enforcement.
func (c *Checker) checkAttribute(a *ast.Attribute) (*types.Typed, error) {
	if left, ok := a.Left.(token.Name); ok {
		if imp, isImport := c.Module.Imports[left.Value]; isImport {
			if _, shadowed := c.Module.Scope.LookupVariable(left.Value); !shadowed {
				return c.checkModuleAttribute(a, imp)
			}
		}
	}

	leftTyped, err := c.checkExpression(a.Left)
	if err != nil {
		return nil, err
	}

	if types.PrimitiveName(leftTyped.Type) == types.NameType {
		return c.checkTypeValueAttribute(a, leftTyped)
	}

	return c.checkInstanceAttribute(a, leftTyped)
}

func (c *Checker) checkModuleAttribute(a *ast.Attribute, imp interface {
	ImportType(ast.Node) (*types.Type, error)
	ImportFunction(ast.Node) (ast.Node, error)
}) (*types.Typed, error) {
	if _, err := imp.ImportType(a.Right); err == nil {
		typeT, _ := types.Lookup(types.NameType)
		return &types.Typed{Value: a, Type: typeT}, nil
	}
	if _, err := imp.ImportFunction(a.Right); err == nil {
		fnT, _ := types.Lookup(types.NameFunction)
		return &types.Typed{Value: a, Type: fnT}, nil
	}
	return nil, diagnostic.Namef(c.Module.Name, a.Line(), "no such member %q", a.Right.Format())
}

func (c *Checker) checkTypeValueAttribute(a *ast.Attribute, leftTyped *types.Typed) (*types.Typed, error) {
	denoted, err := c.Module.ImportType(leftTyped.Value)
	if err != nil {
		return nil, err
	}
	name := a.Right.Format()

	if denoted.IsEnum() {
		for _, v := range denoted.Variants() {
			if v.Value == name {
				return &types.Typed{Value: a, Type: denoted}, nil
			}
		}
		return nil, diagnostic.Namef(c.Module.Name, a.Line(), "enum %s has no variant %q", denoted.Format(), name)
	}

	result := denoted.ImportAny(name)
	if result.Found && result.Method != nil {
		fnT, _ := types.Lookup(types.NameFunction)
		return &types.Typed{Value: a, Type: fnT}, nil
	}
	return nil, diagnostic.Namef(c.Module.Name, a.Line(), "no such member %q on %s", name, denoted.Format())
}

func (c *Checker) checkInstanceAttribute(a *ast.Attribute, leftTyped *types.Typed) (*types.Typed, error) {
	name := a.Right.Format()
	valType := leftTyped.Type

	if valType.IsUnion() {
		for _, f := range valType.Fields() {
			if f.Name.Value != name {
				continue
			}
			if !c.Module.Scope.HasGuard(valType, name) {
				return nil, diagnostic.Typef(c.Module.Name, a.Line(), "variant %q of %s is not proven live here -- test it with `?` first", name, valType.Format())
			}
			ft, err := c.Module.ImportType(f.TypeHint)
			if err != nil {
				return nil, err
			}
			return &types.Typed{Value: a, Type: ft}, nil
		}
	}

	result := valType.ImportAny(name)
	if !result.Found {
		return nil, diagnostic.Namef(c.Module.Name, a.Line(), "no such member %q on %s", name, valType.Format())
	}
	switch {
	case result.Method != nil:
		fnT, _ := types.Lookup(types.NameFunction)
		return &types.Typed{Value: a, Type: fnT}, nil
	case result.Field != nil:
		ft, err := c.Module.ImportType(result.Field.TypeHint)
		if err != nil {
			return nil, err
		}
		return &types.Typed{Value: a, Type: ft}, nil
	default:
		return &types.Typed{Value: a, Type: valType}, nil
	}
}

// checkSubscriptExpr handles the non-type use of `[]`: indexing a str
// (yields char) or a ptr[T] (yields T), per spec.md §4.3. Generic
// instantiation Subscripts only ever reach the checker through a TypeHint,
// a StructLiteral.Type, or a Call callee -- never here.
func (c *Checker) checkSubscriptExpr(s *ast.Subscript) (*types.Typed, error) {
	headTyped, err := c.checkExpression(s.Head)
	if err != nil {
		return nil, err
	}
	if len(s.Items) != 1 {
		return nil, diagnostic.Typef(c.Module.Name, s.Line(), "indexing takes exactly one index")
	}
	idxTyped, err := c.checkExpression(s.Items[0])
	if err != nil {
		return nil, err
	}
	intT, _ := types.Lookup(types.NameInt)
	if !types.Compatible(intT, idxTyped.Type) {
		return nil, diagnostic.Typef(c.Module.Name, s.Line(), "subscript index must be compatible with int, got %s", idxTyped.Type.Format())
	}

	switch {
	case types.PrimitiveName(headTyped.Type) == types.NameStr:
		charT, _ := types.Lookup(types.NameChar)
		return &types.Typed{Value: s, Type: charT}, nil
	case headTyped.Type.PointsTo != nil:
		return &types.Typed{Value: s, Type: headTyped.Type.PointsTo}, nil
	default:
		return nil, diagnostic.Typef(c.Module.Name, s.Line(), "%s is not subscriptable", headTyped.Type.Format())
	}
}

func (c *Checker) checkUnary(u *ast.UnaryOperator) (*types.Typed, error) {
	switch u.Op {
	case token.Ampersand:
		operandTyped, err := c.checkExpression(u.Operand)
		if err != nil {
			return nil, err
		}
		ptrType, err := c.Module.ImportType(&ast.UnaryOperator{Op: token.Ampersand, Operand: operandTyped.Type.Name, Ln: u.Ln})
		if err != nil {
			return nil, err
		}
		return &types.Typed{Value: u, Type: ptrType}, nil

	case token.Star:
		operandTyped, err := c.checkExpression(u.Operand)
		if err != nil {
			return nil, err
		}
		if operandTyped.Type.PointsTo == nil {
			return nil, diagnostic.Typef(c.Module.Name, u.Line(), "cannot dereference non-pointer %s", operandTyped.Type.Format())
		}
		return &types.Typed{Value: u, Type: operandTyped.Type.PointsTo}, nil

	case token.Interrogation:
		if attr, ok := u.Operand.(*ast.Attribute); ok {
			return c.checkExpression(&ast.TestGuard{Target: attr, Ln: u.Ln})
		}
		return nil, diagnostic.Typef(c.Module.Name, u.Line(), "`?` requires an attribute access")

	case token.Exclamation, token.Kind("not"):
		operandTyped, err := c.checkExpression(u.Operand)
		if err != nil {
			return nil, err
		}
		boolT, _ := types.Lookup(types.NameBool)
		if !types.Compatible(boolT, operandTyped.Type) {
			return nil, diagnostic.Typef(c.Module.Name, u.Line(), "cannot negate %s", operandTyped.Type.Format())
		}
		return &types.Typed{Value: u, Type: boolT}, nil

	case token.Plus, token.Minus:
		operandTyped, err := c.checkExpression(u.Operand)
		if err != nil {
			return nil, err
		}
		return &types.Typed{Value: u, Type: operandTyped.Type}, nil

	default:
		return nil, diagnostic.Internalf(c.Module.Name, u.Line(), "unsupported unary operator %q", string(u.Op))
	}
}

var comparisonOps = map[token.Kind]bool{
	token.EqualEqual: true, token.NotEqual: true, token.GreaterThan: true,
	token.LessThan: true, token.GreaterEqual: true, token.LessEqual: true,
	token.Kind("and"): true, token.Kind("or"): true,
}

func (c *Checker) checkBinary(b *ast.BinaryOperator) (*types.Typed, error) {
	leftTyped, err := c.checkExpression(b.Left)
	if err != nil {
		return nil, err
	}
	rightTyped, err := c.checkExpression(b.Right)
	if err != nil {
		return nil, err
	}
	if !c.mutualCompatible(leftTyped, rightTyped) {
		return nil, diagnostic.Typef(c.Module.Name, b.Line(), "incompatible operand types %s and %s for %q",
			leftTyped.Type.Format(), rightTyped.Type.Format(), string(b.Op))
	}

	if comparisonOps[b.Op] {
		boolT, _ := types.Lookup(types.NameBool)
		return &types.Typed{Value: b, Type: boolT}, nil
	}
	return &types.Typed{Value: b, Type: leftTyped.Type}, nil
}

func (c *Checker) mutualCompatible(l, r *types.Typed) bool {
	if types.Compatible(l.Type, r.Type) {
		return true
	}
	return c.compatibleAssign(l.Type, r) || c.compatibleAssign(r.Type, l)
}

func (c *Checker) checkStructOrUnionLiteral(lit *ast.StructLiteral) (*types.Typed, error) {
	t, err := c.Module.ImportType(lit.Type)
	if err != nil {
		return nil, err
	}

	switch {
	case t.IsUnion():
		if len(lit.Fields) != 1 || lit.Fields[0].Name == nil {
			return nil, diagnostic.Typef(c.Module.Name, lit.Line(), "union literal requires exactly one named field")
		}
		valTyped, err := c.checkExpression(lit.Fields[0].Value)
		if err != nil {
			return nil, err
		}
		fieldName := lit.Fields[0].Name.Value
		for _, f := range t.Fields() {
			if f.Name.Value != fieldName {
				continue
			}
			ft, err := c.Module.ImportType(f.TypeHint)
			if err != nil {
				return nil, err
			}
			if !c.compatibleAssign(ft, valTyped) {
				return nil, diagnostic.Typef(c.Module.Name, lit.Line(), "variant %q: cannot use %s as %s", fieldName, valTyped.Type.Format(), ft.Format())
			}
			return &types.Typed{Value: lit, Type: t}, nil
		}
		return nil, diagnostic.Namef(c.Module.Name, lit.Line(), "union %s has no variant %q", t.Format(), fieldName)

	case t.IsStruct():
		fields := t.Fields()
		if len(lit.Fields) != len(fields) {
			return nil, diagnostic.Typef(c.Module.Name, lit.Line(), "struct %s expects %d fields, got %d", t.Format(), len(fields), len(lit.Fields))
		}
		for i, lf := range lit.Fields {
			valTyped, err := c.checkExpression(lf.Value)
			if err != nil {
				return nil, err
			}
			ft, err := c.Module.ImportType(fields[i].TypeHint)
			if err != nil {
				return nil, err
			}
			if !c.compatibleAssign(ft, valTyped) {
				return nil, diagnostic.Typef(c.Module.Name, lit.Line(), "field %q: cannot use %s as %s", fields[i].Name.Value, valTyped.Type.Format(), ft.Format())
			}
		}
		return &types.Typed{Value: lit, Type: t}, nil

	default:
		return nil, diagnostic.Typef(c.Module.Name, lit.Line(), "%s is not a struct or union", t.Format())
	}
}

// checkSwitchExpr type-checks every branch but, per spec.md §4.3's note
// that full cross-branch agreement is enforced only transitively at
// emission, takes the default `_` branch's type as the Switch's own type
// without further reconciling the others.
func (c *Checker) checkSwitchExpr(sw *ast.Switch) (*types.Typed, error) {
	if _, err := c.checkExpression(sw.Target); err != nil {
		return nil, err
	}

	var defaultType *types.Type
	for _, cs := range sw.Cases {
		if cs.Pattern != nil {
			if _, err := c.checkExpression(cs.Pattern); err != nil {
				return nil, err
			}
		}
		vt, err := c.checkExpression(cs.Value)
		if err != nil {
			return nil, err
		}
		if cs.Pattern == nil {
			defaultType = vt.Type
		}
	}
	if defaultType == nil {
		return nil, diagnostic.Typef(c.Module.Name, sw.Line(), "switch requires a default `_` branch")
	}
	return &types.Typed{Value: sw, Type: defaultType}, nil
}
