package checker

import (
	"github.com/GullianLanguage/Gullian/internal/ast"
	"github.com/GullianLanguage/Gullian/internal/diagnostic"
	"github.com/GullianLanguage/Gullian/internal/gmodule"
	"github.com/GullianLanguage/Gullian/internal/token"
)

// checkBody checks every statement of body in order. A `for` statement is
// lowered in place to its iterator-protocol expansion (spec.md §4.3) before
// checking, so body.Statements reflects the lowered form afterward -- the
// emitter never sees a *ast.For node.
func (c *Checker) checkBody(body *ast.Body) error {
	out := make([]ast.Node, 0, len(body.Statements))
	for _, stmt := range body.Statements {
		if forStmt, ok := stmt.(*ast.For); ok {
			lowered, err := c.lowerFor(forStmt)
			if err != nil {
				return err
			}
			out = append(out, lowered...)
			continue
		}
		if err := c.checkStatement(stmt); err != nil {
			return err
		}
		out = append(out, stmt)
	}
	body.Statements = out
	return nil
}

func (c *Checker) checkStatement(node ast.Node) error {
	switch n := node.(type) {
	case *ast.VariableDeclaration:
		return c.checkLet(n)
	case *ast.Assignment:
		return c.checkAssignment(n)
	case *ast.If:
		return c.checkIf(n)
	case *ast.While:
		return c.checkWhile(n)
	case *ast.For:
		_, err := c.lowerFor(n)
		return err
	case *ast.Return:
		return c.checkReturn(n)
	case *ast.Break, *ast.Continue:
		return nil
	default:
		_, err := c.checkExpression(node)
		return err
	}
}

func (c *Checker) checkAssignment(a *ast.Assignment) error {
	targetTyped, err := c.checkExpression(a.Target)
	if err != nil {
		return err
	}
	valTyped, err := c.checkExpression(a.Value)
	if err != nil {
		return err
	}
	if !c.compatibleAssign(targetTyped.Type, valTyped) {
		return diagnostic.Typef(c.Module.Name, a.Line(), "cannot assign %s to %s", valTyped.Type.Format(), targetTyped.Type.Format())
	}
	return nil
}

func (c *Checker) checkReturn(r *ast.Return) error {
	if r.Value == nil {
		if c.ReturnType != nil && c.ReturnType.Format() != "void" {
			return diagnostic.Typef(c.Module.Name, r.Line(), "missing return value for function returning %s", c.ReturnType.Format())
		}
		return nil
	}
	valTyped, err := c.checkExpression(r.Value)
	if err != nil {
		return err
	}
	if c.ReturnType != nil && !c.compatibleAssign(c.ReturnType, valTyped) {
		return diagnostic.Typef(c.Module.Name, r.Line(), "cannot return %s from function returning %s", valTyped.Type.Format(), c.ReturnType.Format())
	}
	return nil
}

// guardFor validates a TestGuard's target (`x.v?`) and, on success, returns
// the (union, variant) pair checkIf pushes onto the scope's guard stack for
// the guarded branch.
func (c *Checker) guardFor(g *ast.TestGuard) (*gmodule.TypeGuard, error) {
	attr, ok := g.Target.(*ast.Attribute)
	if !ok {
		return nil, diagnostic.Typef(c.Module.Name, g.Line(), "test guard requires an attribute access")
	}
	leftTyped, err := c.checkExpression(attr.Left)
	if err != nil {
		return nil, err
	}
	if !leftTyped.Type.IsUnion() {
		return nil, diagnostic.Typef(c.Module.Name, g.Line(), "test guard target %s is not a union", leftTyped.Type.Format())
	}
	variantName := attr.Right.Format()
	for _, f := range leftTyped.Type.Fields() {
		if f.Name.Value == variantName {
			return &gmodule.TypeGuard{Union: leftTyped.Type, Variant: variantName}, nil
		}
	}
	return nil, diagnostic.Namef(c.Module.Name, g.Line(), "union %s has no variant %q", leftTyped.Type.Format(), variantName)
}

func (c *Checker) checkIf(i *ast.If) error {
	var guard *gmodule.TypeGuard
	if tg, ok := i.Cond.(*ast.TestGuard); ok {
		g, err := c.guardFor(tg)
		if err != nil {
			return err
		}
		guard = g
	} else if _, err := c.checkExpression(i.Cond); err != nil {
		return err
	}

	saved := c.Module.Scope
	c.Module.Scope = saved.Push()
	if guard != nil {
		c.Module.Scope.PushGuard(guard.Union, guard.Variant)
	}
	err := c.checkBody(i.Then)
	c.Module.Scope = saved
	if err != nil {
		return err
	}

	switch e := i.Else.(type) {
	case nil:
		return nil
	case *ast.Body:
		saved := c.Module.Scope
		c.Module.Scope = saved.Push()
		err := c.checkBody(e)
		c.Module.Scope = saved
		return err
	case *ast.If:
		return c.checkIf(e)
	default:
		return diagnostic.Internalf(c.Module.Name, i.Line(), "unexpected else node %T", e)
	}
}

func (c *Checker) checkWhile(w *ast.While) error {
	if _, err := c.checkExpression(w.Cond); err != nil {
		return err
	}
	saved := c.Module.Scope
	c.Module.Scope = saved.Push()
	err := c.checkBody(w.Body)
	c.Module.Scope = saved
	return err
}

// lowerFor rewrites `for x in iter { body }` to the iterator protocol
// spec.md §4.3 specifies:
//
//	let __iter_x = iter
//	let x = __iter_x.next()
//	while x.ok? { body; x = __iter_x.next() }
//
// and type-checks the synthesized statements exactly as if they had been
// written by hand. The three synthesized statements are returned so the
// caller can splice them into the enclosing body in place of the original
// *ast.For.
func (c *Checker) lowerFor(f *ast.For) ([]ast.Node, error) {
	iterName := token.Name{Value: "__iter_" + f.Var.Value, Ln: f.Ln}

	letIter := &ast.VariableDeclaration{Name: iterName, Value: f.Iter, Ln: f.Ln}
	if err := c.checkStatement(letIter); err != nil {
		return nil, err
	}

	nextCall := &ast.Call{
		Callee: &ast.Attribute{Left: iterName, Right: token.Name{Value: "next", Ln: f.Ln}, Ln: f.Ln},
		Ln:     f.Ln,
	}
	letX := &ast.VariableDeclaration{Name: f.Var, Value: nextCall, Ln: f.Ln}
	if err := c.checkStatement(letX); err != nil {
		return nil, err
	}

	guard := &ast.TestGuard{
		Target: &ast.Attribute{Left: f.Var, Right: token.Name{Value: "ok", Ln: f.Ln}, Ln: f.Ln},
		Ln:     f.Ln,
	}
	reassign := &ast.Assignment{Op: token.Equal, Target: f.Var, Value: nextCall, Ln: f.Ln}
	newBody := &ast.Body{
		Statements: append(append([]ast.Node{}, f.Body.Statements...), reassign),
		Ln:         f.Body.Ln,
	}
	whileNode := &ast.While{Cond: guard, Body: newBody, Ln: f.Ln}
	if err := c.checkStatement(whileNode); err != nil {
		return nil, err
	}

	return []ast.Node{letIter, letX, whileNode}, nil
}
