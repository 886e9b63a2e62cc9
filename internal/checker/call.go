package checker

import (
	"github.com/GullianLanguage/Gullian/internal/ast"
	"github.com/GullianLanguage/Gullian/internal/diagnostic"
	"github.com/GullianLanguage/Gullian/internal/gmodule"
	"github.com/GullianLanguage/Gullian/internal/token"
	"github.com/GullianLanguage/Gullian/internal/types"
)

func headOf(decl ast.Node) *ast.FunctionHead {
	switch d := decl.(type) {
	case *ast.FunctionDeclaration:
		return d.Head
	case *ast.Extern:
		return d.Head
	default:
		return nil
	}
}

// checkCall is the single entry point for every call expression, including
// an explicit generic instantiation at the call site (`f[int](x)`, whose
// Callee is a *ast.Subscript).
func (c *Checker) checkCall(call *ast.Call) (*types.Typed, error) {
	headNode := call.Callee
	var explicitTypeArgs []ast.Node
	if sub, ok := call.Callee.(*ast.Subscript); ok {
		headNode = sub.Head
		explicitTypeArgs = sub.Items
	}

	decl, receiver, err := c.resolveCallable(headNode)
	if err != nil {
		return nil, err
	}
	return c.checkResolvedCall(call, decl, receiver, explicitTypeArgs)
}

// ResolveCallable exposes resolveCallable for the emitter, which needs the
// same callee-resolution rules to recover a call's mangled target name
// without re-implementing method/module lookup.
func (c *Checker) ResolveCallable(node ast.Node) (ast.Node, *types.Typed, error) {
	return c.resolveCallable(node)
}

// resolveCallable finds the declaration a callee expression refers to:
// a plain function name, a module-qualified function, or a method looked
// up against a receiver expression's runtime type. receiver is non-nil only
// in the method case, and is prepended to the argument list by
// checkResolvedCall per spec.md §4.1's self-insertion rule.
func (c *Checker) resolveCallable(node ast.Node) (ast.Node, *types.Typed, error) {
	switch n := node.(type) {
	case token.Name:
		decl, err := c.Module.ImportFunction(n)
		return decl, nil, err

	case *ast.Attribute:
		if left, ok := n.Left.(token.Name); ok {
			if imp, isImport := c.Module.Imports[left.Value]; isImport {
				if _, shadowed := c.Module.Scope.LookupVariable(left.Value); !shadowed {
					decl, err := imp.ImportFunction(n.Right)
					return decl, nil, err
				}
			}
		}
		leftTyped, err := c.checkExpression(n.Left)
		if err != nil {
			return nil, nil, err
		}
		methodName := n.Right.Format()
		result := leftTyped.Type.ImportAny(methodName)
		if !result.Found || result.Method == nil {
			return nil, nil, diagnostic.Namef(c.Module.Name, n.Line(), "no method %q on %s", methodName, leftTyped.Type.Format())
		}
		return result.Method.Decl, leftTyped, nil

	default:
		return nil, nil, diagnostic.Internalf(c.Module.Name, node.Line(), "unsupported call target %T", node)
	}
}

// ResolveCallSite re-derives a call expression's target signature (running
// the same generic-specialization/inference path checkResolvedCall already
// validated) so the emitter can recover the specialized head's mangled
// name and decide whether a method receiver needs an address-of.
func (c *Checker) ResolveCallSite(call *ast.Call) (head *ast.FunctionHead, receiver *types.Typed, receiverNeedsRef bool, err error) {
	headNode := call.Callee
	var explicitTypeArgs []ast.Node
	if sub, ok := call.Callee.(*ast.Subscript); ok {
		headNode = sub.Head
		explicitTypeArgs = sub.Items
	}

	decl, receiver, err := c.resolveCallable(headNode)
	if err != nil {
		return nil, nil, false, err
	}
	head = headOf(decl)
	if head == nil {
		return nil, nil, false, diagnostic.Internalf(c.Module.Name, call.Line(), "callee has no function signature")
	}

	if len(head.Generic) > 0 {
		typeArgs := explicitTypeArgs
		if typeArgs == nil {
			typeArgs, err = c.inferTypeArgs(head, call.Args, receiver)
			if err != nil {
				return nil, nil, false, err
			}
		}
		specialized, err := c.specialize(decl, head, typeArgs)
		if err != nil {
			return nil, nil, false, err
		}
		head = headOf(specialized)
	}

	if receiver != nil && len(head.Args) > 0 {
		if selfType, serr := c.Module.ImportType(head.Args[0].TypeHint); serr == nil {
			if types.PrimitiveName(selfType) == types.NamePtr && types.PrimitiveName(receiver.Type) != types.NamePtr {
				receiverNeedsRef = true
			}
		}
	}
	return head, receiver, receiverNeedsRef, nil
}

// checkResolvedCall type-checks a call once its callee declaration (and,
// for a method call, its receiver) are known: specializing a generic
// function if needed, prepending and autoref-converting the receiver,
// and checking arity and argument compatibility.
func (c *Checker) checkResolvedCall(call *ast.Call, decl ast.Node, receiver *types.Typed, explicitTypeArgs []ast.Node) (*types.Typed, error) {
	head := headOf(decl)
	if head == nil {
		return nil, diagnostic.Internalf(c.Module.Name, call.Line(), "callee has no function signature")
	}

	if len(head.Generic) > 0 {
		typeArgs := explicitTypeArgs
		if typeArgs == nil {
			inferred, err := c.inferTypeArgs(head, call.Args, receiver)
			if err != nil {
				return nil, err
			}
			typeArgs = inferred
		}
		specialized, err := c.specialize(decl, head, typeArgs)
		if err != nil {
			return nil, err
		}
		decl = specialized
		head = headOf(specialized)
	}

	argHints := head.Args
	start := 0
	if receiver != nil {
		if len(argHints) == 0 {
			return nil, diagnostic.Typef(c.Module.Name, call.Line(), "method %s takes no arguments", head.Name.Value)
		}
		selfType, err := c.Module.ImportType(argHints[0].TypeHint)
		if err != nil {
			return nil, err
		}
		recv := receiver
		if types.PrimitiveName(selfType) == types.NamePtr && types.PrimitiveName(receiver.Type) != types.NamePtr {
			ptrType, err := c.Module.ImportType(&ast.UnaryOperator{Op: token.Ampersand, Operand: receiver.Type.Name, Ln: call.Ln})
			if err != nil {
				return nil, err
			}
			recv = &types.Typed{
				Value: &ast.UnaryOperator{Op: token.Ampersand, Operand: receiver.Value, Ln: call.Ln},
				Type:  ptrType,
			}
		}
		if !types.Compatible(selfType, recv.Type) {
			return nil, diagnostic.Typef(c.Module.Name, call.Line(), "cannot call %s on %s", head.Name.Value, receiver.Type.Format())
		}
		start = 1
	}

	remaining := argHints[start:]
	if len(call.Args) != len(remaining) {
		return nil, diagnostic.Typef(c.Module.Name, call.Line(), "%s: expected %d arguments, got %d", head.Name.Value, len(remaining), len(call.Args))
	}
	for i, a := range call.Args {
		at, err := c.checkExpression(a)
		if err != nil {
			return nil, err
		}
		hintType, err := c.Module.ImportType(remaining[i].TypeHint)
		if err != nil {
			return nil, err
		}
		if !c.compatibleAssign(hintType, at) {
			return nil, diagnostic.Typef(c.Module.Name, call.Line(), "argument %d: cannot use %s as %s", i+1, at.Type.Format(), hintType.Format())
		}
	}

	retType, err := c.resolveReturnType(head.ReturnHint)
	if err != nil {
		return nil, err
	}
	return &types.Typed{Value: call, Type: retType}, nil
}

// specialize monomorphizes decl against typeArgs, memoized per module under
// the fully-applied `name[T1,T2,...]` spelling (spec.md §8's
// "Monomorphization memoization" property, extended from gmodule's
// non-generic types to generic functions).
func (c *Checker) specialize(decl ast.Node, head *ast.FunctionHead, typeArgs []ast.Node) (ast.Node, error) {
	if len(typeArgs) != len(head.Generic) {
		return nil, diagnostic.Typef(c.Module.Name, head.Line(), "expected %d type arguments, got %d", len(head.Generic), len(typeArgs))
	}

	substAst := make(map[string]ast.Node, len(typeArgs))
	substType := make(map[string]*types.Type, len(typeArgs))
	resolvedNames := make([]ast.Node, len(typeArgs))
	for i, ta := range typeArgs {
		rt, err := c.Module.ImportType(ta)
		if err != nil {
			return nil, err
		}
		substAst[head.Generic[i].Value] = rt.Name
		substType[head.Generic[i].Value] = rt
		resolvedNames[i] = rt.Name
	}

	memoKey := (&ast.Subscript{Head: head.Name, Items: resolvedNames, Ln: head.Ln}).Format()
	if cached, ok := c.Module.Functions[memoKey]; ok {
		return cached, nil
	}

	clonedHead := &ast.FunctionHead{
		Name:       token.Name{Value: memoKey, Ln: head.Ln},
		Args:       gmodule.SubstituteParams(head.Args, substAst),
		ReturnHint: substituteReturn(head.ReturnHint, substAst),
		Ln:         head.Ln,
	}

	var specialized ast.Node
	switch d := decl.(type) {
	case *ast.FunctionDeclaration:
		specialized = &ast.FunctionDeclaration{Head: clonedHead, Body: cloneBody(d.Body)}
	case *ast.Extern:
		specialized = &ast.Extern{Head: clonedHead, Ln: d.Ln}
	default:
		return nil, diagnostic.Internalf(c.Module.Name, head.Line(), "unexpected generic declaration %T", decl)
	}

	// Memoize before checking the body: a recursive generic call resolves
	// to this same specialization instead of looping.
	c.Module.Functions[memoKey] = specialized

	if fd, ok := specialized.(*ast.FunctionDeclaration); ok {
		savedScope := c.Module.Scope
		c.Module.Scope = savedScope.Push()
		for name, t := range substType {
			c.Module.Scope.BindTypeVariable(name, t)
		}
		for _, a := range clonedHead.Args {
			at, err := c.Module.ImportType(a.TypeHint)
			if err != nil {
				c.Module.Scope = savedScope
				return nil, err
			}
			c.Module.Scope.Bind(a.Name, at)
		}
		retType, err := c.resolveReturnType(clonedHead.ReturnHint)
		if err != nil {
			c.Module.Scope = savedScope
			return nil, err
		}

		savedReturn := c.ReturnType
		c.ReturnType = retType
		err = c.checkBody(fd.Body)
		c.ReturnType = savedReturn
		c.Module.Scope = savedScope
		if err != nil {
			return nil, err
		}
	} else {
		for _, a := range clonedHead.Args {
			if _, err := c.Module.ImportType(a.TypeHint); err != nil {
				return nil, err
			}
		}
		if clonedHead.ReturnHint != nil {
			if _, err := c.Module.ImportType(clonedHead.ReturnHint); err != nil {
				return nil, err
			}
		}
	}

	return specialized, nil
}

func substituteReturn(hint ast.Node, subst map[string]ast.Node) ast.Node {
	if hint == nil {
		return nil
	}
	return gmodule.SubstituteTypeRef(hint, subst)
}

// inferTypeArgs implements spec.md §4.1's implicit generic inference:
// structurally unify each declared argument's TypeHint pattern against the
// actual argument's resolved Type, accumulating a binding per generic
// parameter name.
func (c *Checker) inferTypeArgs(head *ast.FunctionHead, callArgs []ast.Node, receiver *types.Typed) ([]ast.Node, error) {
	bindings := make(map[string]*types.Type)
	argHints := head.Args
	start := 0

	if receiver != nil {
		if len(argHints) == 0 {
			return nil, diagnostic.Typef(c.Module.Name, head.Line(), "method %s takes no arguments", head.Name.Value)
		}
		if err := c.unify(argHints[0].TypeHint, receiver.Type, bindings); err != nil {
			return nil, err
		}
		start = 1
	}

	remaining := argHints[start:]
	if len(callArgs) != len(remaining) {
		return nil, diagnostic.Typef(c.Module.Name, head.Line(), "%s: expected %d arguments, got %d", head.Name.Value, len(remaining), len(callArgs))
	}
	for i, a := range callArgs {
		at, err := c.checkExpression(a)
		if err != nil {
			return nil, err
		}
		if err := c.unify(remaining[i].TypeHint, at.Type, bindings); err != nil {
			return nil, err
		}
	}

	result := make([]ast.Node, len(head.Generic))
	for i, g := range head.Generic {
		bound, ok := bindings[g.Value]
		if !ok {
			return nil, diagnostic.Typef(c.Module.Name, head.Line(), "cannot infer type argument %q", g.Value)
		}
		result[i] = bound.Name
	}
	return result, nil
}

// unify matches a declared parameter pattern (possibly containing free
// generic-parameter names) against an actual resolved Type, recording
// bindings for any free name it encounters and failing if a name already
// bound disagrees.
func (c *Checker) unify(pattern ast.Node, actual *types.Type, bindings map[string]*types.Type) error {
	switch p := pattern.(type) {
	case token.Name:
		if prim, isPrim := types.Lookup(p.Value); isPrim {
			if !types.Compatible(prim, actual) {
				return diagnostic.Typef(c.Module.Name, p.Line(), "cannot unify %s against %s", p.Value, actual.Format())
			}
			return nil
		}
		if existing, ok := bindings[p.Value]; ok {
			if !existing.Equal(actual) && !types.Compatible(existing, actual) {
				return diagnostic.Typef(c.Module.Name, p.Line(), "generic parameter %q bound to both %s and %s", p.Value, existing.Format(), actual.Format())
			}
			return nil
		}
		bindings[p.Value] = actual
		return nil

	case *ast.UnaryOperator:
		if p.Op != token.Ampersand {
			return diagnostic.Internalf(c.Module.Name, p.Line(), "unexpected unary pattern %q", string(p.Op))
		}
		if actual.PointsTo != nil {
			return c.unify(p.Operand, actual.PointsTo, bindings)
		}
		if types.PrimitiveName(actual) == types.NameStr {
			charT, _ := types.Lookup(types.NameChar)
			return c.unify(p.Operand, charT, bindings)
		}
		return diagnostic.Typef(c.Module.Name, p.Line(), "cannot unify pointer pattern against %s", actual.Format())

	case *ast.Subscript:
		if actualSub, ok := actual.Name.(*ast.Subscript); ok {
			if len(p.Items) != len(actualSub.Items) {
				return diagnostic.Typef(c.Module.Name, p.Line(), "generic arity mismatch unifying %s against %s", p.Format(), actual.Format())
			}
			for i := range p.Items {
				itemType, err := c.Module.ImportType(actualSub.Items[i])
				if err != nil {
					return err
				}
				if err := c.unify(p.Items[i], itemType, bindings); err != nil {
					return err
				}
			}
			return nil
		}
		if headName, ok := p.Head.(token.Name); ok && headName.Value == types.NamePtr && len(p.Items) == 1 && types.PrimitiveName(actual) == types.NameStr {
			charT, _ := types.Lookup(types.NameChar)
			return c.unify(p.Items[0], charT, bindings)
		}
		return diagnostic.Typef(c.Module.Name, p.Line(), "cannot unify %s against non-generic %s", p.Format(), actual.Format())

	default:
		return diagnostic.Internalf(c.Module.Name, pattern.Line(), "unsupported generic pattern %T", pattern)
	}
}
