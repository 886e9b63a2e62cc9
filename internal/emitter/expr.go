package emitter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/GullianLanguage/Gullian/internal/ast"
	"github.com/GullianLanguage/Gullian/internal/checker"
	"github.com/GullianLanguage/Gullian/internal/diagnostic"
	"github.com/GullianLanguage/Gullian/internal/token"
	"github.com/GullianLanguage/Gullian/internal/types"
)

var binaryOpText = map[token.Kind]string{
	token.Kind("and"): "&&",
	token.Kind("or"):  "||",
}

// emitExpr prints node's C text, re-deriving whatever type information the
// decision needs (pointer-vs-value attribute access, a bare Type used as a
// value, a call's specialized target) through c, which already has node's
// enclosing scope pushed by the caller.
func emitExpr(c *checker.Checker, node ast.Node) (string, error) {
	switch n := node.(type) {
	case *types.Typed:
		return emitExpr(c, n.Value)

	case token.Literal:
		return emitLiteral(n)

	case token.Name:
		typed, err := c.ResolveExpr(n)
		if err != nil {
			return "", err
		}
		if types.PrimitiveName(typed.Type) == types.NameType {
			denoted, err := c.Module.ImportType(n)
			if err != nil {
				return "", err
			}
			return "sizeof(" + typeRefText(denoted) + ")", nil
		}
		return n.Value, nil

	case *ast.Attribute:
		return emitAttribute(c, n)

	case *ast.Subscript:
		return emitSubscript(c, n)

	case *ast.UnaryOperator:
		return emitUnary(c, n)

	case *ast.BinaryOperator:
		return emitBinary(c, n)

	case *ast.TestGuard:
		return emitTestGuard(c, n)

	case *ast.Call:
		return emitCall(c, n)

	case *ast.StructLiteral:
		return emitStructLiteral(c, n)

	case *ast.Switch:
		return "", diagnostic.Internalf(c.Module.Name, n.Line(), "switch used as a nested expression is not supported here -- lift it to a let/return/assignment")

	case *ast.Comptime:
		return emitExpr(c, n.Value)

	default:
		return "", diagnostic.InternalNodef(c.Module.Name, node.Line(), node, "cannot emit expression of kind %T", node)
	}
}

func emitLiteral(l token.Literal) (string, error) {
	switch v := l.Value.(type) {
	case bool:
		if v {
			return "true", nil
		}
		return "false", nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		text := strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(text, ".eE") {
			text += ".0"
		}
		return text, nil
	case string:
		return strconv.Quote(v), nil
	default:
		return "", diagnostic.Internalf("", l.Line(), "literal has unrecognized Go value %#v", l.Value)
	}
}

// emitAttribute handles every non-call `l.r`: a module-qualified reference
// resolves to r's raw (mangled) name, a Type value's enum variant becomes
// `TYPE__variant`, and an instance field or union-variant payload access
// becomes `l.r` or `l->r` depending on whether l is a pointer.
func emitAttribute(c *checker.Checker, a *ast.Attribute) (string, error) {
	if left, ok := a.Left.(token.Name); ok {
		if _, isImport := c.Module.Imports[left.Value]; isImport {
			if _, shadowed := c.Module.Scope.LookupVariable(left.Value); !shadowed {
				return mangleFuncName(a.Right.Format()), nil
			}
		}
	}

	leftTyped, err := c.ResolveExpr(a.Left)
	if err != nil {
		return "", err
	}

	if types.PrimitiveName(leftTyped.Type) == types.NameType {
		denoted, err := c.Module.ImportType(leftTyped.Value)
		if err != nil {
			return "", err
		}
		return mangleType(denoted) + "__" + a.Right.Format(), nil
	}

	leftText, err := emitExpr(c, a.Left)
	if err != nil {
		return "", err
	}
	op := "."
	if leftTyped.Type.PointsTo != nil {
		op = "->"
	}
	return leftText + op + a.Right.Format(), nil
}

func emitSubscript(c *checker.Checker, s *ast.Subscript) (string, error) {
	headText, err := emitExpr(c, s.Head)
	if err != nil {
		return "", err
	}
	idxText, err := emitExpr(c, s.Items[0])
	if err != nil {
		return "", err
	}
	return headText + "[" + idxText + "]", nil
}

func emitUnary(c *checker.Checker, u *ast.UnaryOperator) (string, error) {
	if u.Op == token.Interrogation {
		attr, ok := u.Operand.(*ast.Attribute)
		if !ok {
			return "", diagnostic.Typef(c.Module.Name, u.Line(), "`?` requires an attribute access")
		}
		return emitTestGuard(c, &ast.TestGuard{Target: attr, Ln: u.Ln})
	}

	operandText, err := emitExpr(c, u.Operand)
	if err != nil {
		return "", err
	}

	op := string(u.Op)
	if u.Op == token.Kind("not") {
		op = "!"
	}
	return "(" + op + operandText + ")", nil
}

func emitBinary(c *checker.Checker, b *ast.BinaryOperator) (string, error) {
	leftText, err := emitExpr(c, b.Left)
	if err != nil {
		return "", err
	}
	rightText, err := emitExpr(c, b.Right)
	if err != nil {
		return "", err
	}
	op, ok := binaryOpText[b.Op]
	if !ok {
		op = string(b.Op)
	}
	return fmt.Sprintf("(%s %s %s)", leftText, op, rightText), nil
}

// emitTestGuard prints `expr.tag == MANGLED__VARIANT` per spec.md §4.5;
// guardFor (internal/checker/statement.go) already established that
// attr.Left resolves to a union value, never a pointer to one.
func emitTestGuard(c *checker.Checker, g *ast.TestGuard) (string, error) {
	attr, ok := g.Target.(*ast.Attribute)
	if !ok {
		return "", diagnostic.Typef(c.Module.Name, g.Line(), "test guard requires an attribute access")
	}
	leftTyped, err := c.ResolveExpr(attr.Left)
	if err != nil {
		return "", err
	}
	leftText, err := emitExpr(c, attr.Left)
	if err != nil {
		return "", err
	}
	name := mangleType(leftTyped.Type)
	variant := attr.Right.Format()
	return fmt.Sprintf("%s.tag == %s__%s", leftText, name, variant), nil
}

// emitCall resolves call's target through the same path checkCall used to
// validate it, so a generic callee mangles to its memoized specialization
// name and a method receiver is reprinted first, address-of'd when the
// method expects a pointer self and the receiver is a plain value.
func emitCall(c *checker.Checker, call *ast.Call) (string, error) {
	head, receiver, receiverNeedsRef, err := c.ResolveCallSite(call)
	if err != nil {
		return "", err
	}

	var args []string
	if receiver != nil {
		recvText, err := emitExpr(c, receiver.Value)
		if err != nil {
			return "", err
		}
		if receiverNeedsRef {
			recvText = "&" + recvText
		}
		args = append(args, recvText)
	}
	for _, a := range call.Args {
		argText, err := emitExpr(c, a)
		if err != nil {
			return "", err
		}
		args = append(args, argText)
	}
	return mangleFuncName(head.Name.Value) + "(" + strings.Join(args, ", ") + ")", nil
}

// emitStructLiteral prints `(struct TYPE){...}`, reordering named struct
// fields into declaration order and, for a union, wrapping the single
// payload in its variant's tag plus an anonymous-union designated
// initializer (spec.md §4.5).
func emitStructLiteral(c *checker.Checker, lit *ast.StructLiteral) (string, error) {
	t, err := c.Module.ImportType(lit.Type)
	if err != nil {
		return "", err
	}
	name := mangleType(t)

	if t.IsUnion() {
		f := lit.Fields[0]
		valText, err := emitExpr(c, f.Value)
		if err != nil {
			return "", err
		}
		variant := f.Name.Value
		return fmt.Sprintf("(struct %s){%s__%s, {.%s = %s}}", name, name, variant, variant, valText), nil
	}

	fields := t.Fields()
	parts := make([]string, len(fields))
	for i, lf := range lit.Fields {
		valText, err := emitExpr(c, lf.Value)
		if err != nil {
			return "", err
		}
		idx := i
		if lf.Name != nil {
			for j, f := range fields {
				if f.Name.Value == lf.Name.Value {
					idx = j
					break
				}
			}
		}
		parts[idx] = valText
	}
	return fmt.Sprintf("(struct %s){%s}", name, strings.Join(parts, ", ")), nil
}
