package checker

import (
	"github.com/GullianLanguage/Gullian/internal/ast"
	"github.com/GullianLanguage/Gullian/internal/token"
)

// cloneNode deep-copies an expression/statement tree. specialize needs this
// because the same generic FunctionDeclaration body is checked once per
// distinct type-argument tuple; without cloning, checking one
// specialization's `for` lowering (which rewrites Body.Statements in
// place) would corrupt every other specialization sharing the same nodes.
func cloneNode(n ast.Node) ast.Node {
	switch v := n.(type) {
	case token.Name, token.Literal, token.Keyword, token.Comment, token.Token:
		return v

	case *ast.Attribute:
		return &ast.Attribute{Left: cloneNode(v.Left), Right: cloneNode(v.Right), Ln: v.Ln}
	case *ast.Subscript:
		items := make([]ast.Node, len(v.Items))
		for i, it := range v.Items {
			items[i] = cloneNode(it)
		}
		return &ast.Subscript{Head: cloneNode(v.Head), Items: items, Ln: v.Ln}
	case *ast.UnaryOperator:
		return &ast.UnaryOperator{Op: v.Op, Operand: cloneNode(v.Operand), Ln: v.Ln}
	case *ast.BinaryOperator:
		return &ast.BinaryOperator{Op: v.Op, Left: cloneNode(v.Left), Right: cloneNode(v.Right), Ln: v.Ln}
	case *ast.TestGuard:
		return &ast.TestGuard{Target: cloneNode(v.Target), Ln: v.Ln}
	case *ast.Call:
		args := make([]ast.Node, len(v.Args))
		for i, a := range v.Args {
			args[i] = cloneNode(a)
		}
		return &ast.Call{Callee: cloneNode(v.Callee), Args: args, Ln: v.Ln}
	case *ast.StructLiteral:
		fields := make([]ast.StructLiteralField, len(v.Fields))
		for i, f := range v.Fields {
			var namePtr *token.Name
			if f.Name != nil {
				n2 := *f.Name
				namePtr = &n2
			}
			fields[i] = ast.StructLiteralField{Name: namePtr, Value: cloneNode(f.Value)}
		}
		return &ast.StructLiteral{Type: cloneNode(v.Type), Fields: fields, Ln: v.Ln}

	case *ast.VariableDeclaration:
		var hint ast.Node
		if v.TypeHint != nil {
			hint = cloneNode(v.TypeHint)
		}
		return &ast.VariableDeclaration{Name: v.Name, TypeHint: hint, Value: cloneNode(v.Value), Ln: v.Ln}
	case *ast.Assignment:
		return &ast.Assignment{Op: v.Op, Target: cloneNode(v.Target), Value: cloneNode(v.Value), Ln: v.Ln}
	case *ast.If:
		var elseNode ast.Node
		if v.Else != nil {
			elseNode = cloneNode(v.Else)
		}
		return &ast.If{Cond: cloneNode(v.Cond), Then: cloneBody(v.Then), Else: elseNode, Ln: v.Ln}
	case *ast.While:
		return &ast.While{Cond: cloneNode(v.Cond), Body: cloneBody(v.Body), Ln: v.Ln}
	case *ast.For:
		return &ast.For{Var: v.Var, Iter: cloneNode(v.Iter), Body: cloneBody(v.Body), Ln: v.Ln}
	case *ast.Return:
		var val ast.Node
		if v.Value != nil {
			val = cloneNode(v.Value)
		}
		return &ast.Return{Value: val, Ln: v.Ln}
	case *ast.Comptime:
		return &ast.Comptime{Value: cloneNode(v.Value), Ln: v.Ln}
	case *ast.Switch:
		cases := make([]ast.SwitchCase, len(v.Cases))
		for i, cs := range v.Cases {
			var pattern ast.Node
			if cs.Pattern != nil {
				pattern = cloneNode(cs.Pattern)
			}
			cases[i] = ast.SwitchCase{Pattern: pattern, Value: cloneNode(cs.Value)}
		}
		return &ast.Switch{Target: cloneNode(v.Target), Cases: cases, Ln: v.Ln}
	case *ast.Break:
		return &ast.Break{Ln: v.Ln}
	case *ast.Continue:
		return &ast.Continue{Ln: v.Ln}
	case *ast.Body:
		stmts := make([]ast.Node, len(v.Statements))
		for i, s := range v.Statements {
			stmts[i] = cloneNode(s)
		}
		return &ast.Body{Statements: stmts, Ln: v.Ln}

	default:
		return n
	}
}

func cloneBody(b *ast.Body) *ast.Body {
	if b == nil {
		return nil
	}
	return cloneNode(b).(*ast.Body)
}
