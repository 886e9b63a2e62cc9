package emitter

import (
	"fmt"
	"strings"

	"github.com/GullianLanguage/Gullian/internal/ast"
	"github.com/GullianLanguage/Gullian/internal/checker"
	"github.com/GullianLanguage/Gullian/internal/gmodule"
)

// functionPrototype builds `RET MANGLED(args);`'s declaration half (spec.md
// §4.5's closing note), resolving each hint against m so aggregate
// arguments get their `struct ` prefix.
func functionPrototype(m *gmodule.Module, decl ast.Node) string {
	head := functionHead(decl)
	if head == nil {
		return ""
	}
	ret := "void"
	if head.ReturnHint != nil {
		if rt, err := m.ImportType(head.ReturnHint); err == nil {
			ret = typeRefText(rt)
		}
	}
	args := make([]string, len(head.Args))
	for i, a := range head.Args {
		at, err := m.ImportType(a.TypeHint)
		text := "void*"
		if err == nil {
			text = typeRefText(at)
		}
		args[i] = text + " " + a.Name.Value
	}
	return fmt.Sprintf("%s %s(%s)", ret, mangleFuncName(head.Name.Value), strings.Join(args, ", "))
}

// emitFunctionBody re-runs the argument-binding half of
// checker.checkFunctionDecl (push a scope, bind each argument) so that
// ResolveExpr can answer type queries while walking the body, then prints
// the C function definition.
func (e *Emitter) emitFunctionBody(out *strings.Builder, m *gmodule.Module, fd *ast.FunctionDeclaration) error {
	c := checker.NewChecker(e.Reg, m, e.Log)

	saved := m.Scope
	m.Scope = saved.Push()
	defer func() { m.Scope = saved }()

	for _, a := range fd.Head.Args {
		at, err := m.ImportType(a.TypeHint)
		if err != nil {
			return err
		}
		m.Scope.Bind(a.Name, at)
	}

	out.WriteString(functionPrototype(m, fd) + " {\n")
	if err := emitBody(out, c, fd.Body, 1); err != nil {
		return err
	}
	out.WriteString("}")
	return nil
}

func indent(out *strings.Builder, depth int) {
	out.WriteString(strings.Repeat("\t", depth))
}

// emitBody prints body's statements inside a freshly pushed scope that is
// restored afterward, as the checker's callers of checkBody (checkIf,
// checkWhile, checkFunctionDecl) push one around it -- the emitter needs the same
// bindings live so ResolveExpr can answer queries about names declared
// inside this block.
func emitBody(out *strings.Builder, c *checker.Checker, body *ast.Body, depth int) error {
	saved := c.Module.Scope
	c.Module.Scope = saved.Push()
	defer func() { c.Module.Scope = saved }()

	for _, stmt := range body.Statements {
		if err := emitStatement(out, c, stmt, depth); err != nil {
			return err
		}
	}
	return nil
}

func emitStatement(out *strings.Builder, c *checker.Checker, node ast.Node, depth int) error {
	switch n := node.(type) {
	case *ast.VariableDeclaration:
		if sw, ok := n.Value.(*ast.Switch); ok {
			valTyped, err := c.ResolveExpr(sw)
			if err != nil {
				return err
			}
			c.Module.Scope.Bind(n.Name, valTyped.Type)
			indent(out, depth)
			fmt.Fprintf(out, "%s %s;\n", typeRefText(valTyped.Type), n.Name.Value)
			return emitSwitchStatement(out, c, sw, depth, func(v string) string {
				return n.Name.Value + " = " + v + ";"
			})
		}

		valTyped, err := c.ResolveExpr(n.Value)
		if err != nil {
			return err
		}
		valText, err := emitExpr(c, n.Value)
		if err != nil {
			return err
		}
		c.Module.Scope.Bind(n.Name, valTyped.Type)
		indent(out, depth)
		fmt.Fprintf(out, "%s %s = %s;\n", typeRefText(valTyped.Type), n.Name.Value, valText)

	case *ast.Assignment:
		if sw, ok := n.Value.(*ast.Switch); ok {
			target, err := emitExpr(c, n.Target)
			if err != nil {
				return err
			}
			return emitSwitchStatement(out, c, sw, depth, func(v string) string {
				return fmt.Sprintf("%s %s %s;", target, string(n.Op), v)
			})
		}

		target, err := emitExpr(c, n.Target)
		if err != nil {
			return err
		}
		val, err := emitExpr(c, n.Value)
		if err != nil {
			return err
		}
		indent(out, depth)
		fmt.Fprintf(out, "%s %s %s;\n", target, string(n.Op), val)

	case *ast.If:
		return emitIf(out, c, n, depth)

	case *ast.While:
		cond, err := emitCond(c, n.Cond)
		if err != nil {
			return err
		}
		indent(out, depth)
		fmt.Fprintf(out, "while (%s) {\n", cond)
		if err := emitBody(out, c, n.Body, depth+1); err != nil {
			return err
		}
		indent(out, depth)
		out.WriteString("}\n")

	case *ast.Switch:
		return emitSwitchStatement(out, c, n, depth, func(v string) string { return v + ";" })

	case *ast.Return:
		if n.Value == nil {
			indent(out, depth)
			out.WriteString("return;\n")
			return nil
		}
		if sw, ok := n.Value.(*ast.Switch); ok {
			valTyped, err := c.ResolveExpr(sw)
			if err != nil {
				return err
			}
			tmp := fmt.Sprintf("__ret%d", sw.Ln)
			indent(out, depth)
			fmt.Fprintf(out, "%s %s;\n", typeRefText(valTyped.Type), tmp)
			if err := emitSwitchStatement(out, c, sw, depth, func(v string) string {
				return tmp + " = " + v + ";"
			}); err != nil {
				return err
			}
			indent(out, depth)
			fmt.Fprintf(out, "return %s;\n", tmp)
			return nil
		}
		val, err := emitExpr(c, n.Value)
		if err != nil {
			return err
		}
		indent(out, depth)
		fmt.Fprintf(out, "return %s;\n", val)

	case *ast.Break:
		indent(out, depth)
		out.WriteString("break;\n")

	case *ast.Continue:
		indent(out, depth)
		out.WriteString("continue;\n")

	default:
		text, err := emitExpr(c, node)
		if err != nil {
			return err
		}
		indent(out, depth)
		fmt.Fprintf(out, "%s;\n", text)
	}
	return nil
}

// emitCond emits a condition expression; a bare TestGuard is handled
// directly since it is a statement-position construct the expression
// dispatcher also understands.
func emitCond(c *checker.Checker, node ast.Node) (string, error) {
	return emitExpr(c, node)
}

func emitIf(out *strings.Builder, c *checker.Checker, i *ast.If, depth int) error {
	cond, err := emitCond(c, i.Cond)
	if err != nil {
		return err
	}
	indent(out, depth)
	fmt.Fprintf(out, "if (%s) {\n", cond)
	if err := emitBody(out, c, i.Then, depth+1); err != nil {
		return err
	}
	indent(out, depth)
	out.WriteString("}")

	switch e := i.Else.(type) {
	case nil:
		out.WriteString("\n")
		return nil
	case *ast.Body:
		out.WriteString(" else {\n")
		if err := emitBody(out, c, e, depth+1); err != nil {
			return err
		}
		indent(out, depth)
		out.WriteString("}\n")
		return nil
	case *ast.If:
		out.WriteString(" else ")
		savedBuilder := strings.Builder{}
		if err := emitIf(&savedBuilder, c, e, 0); err != nil {
			return err
		}
		out.WriteString(strings.TrimPrefix(savedBuilder.String(), ""))
		return nil
	default:
		out.WriteString("\n")
		return nil
	}
}
