// Package ast defines the untyped syntax tree produced by the parser: a
// tree of declarations and expressions carrying source positions but no
// type information (spec.md §2 step 2). It is a dependency-free leaf
// package -- nodes never hold back-pointers to the module graph, which is
// what lets internal/gmodule and internal/checker import ast without a
// cycle.
package ast

import (
	"fmt"
	"strings"

	"github.com/GullianLanguage/Gullian/internal/token"
)

// Node is satisfied by every tree element: tokens (token.Name, token.Literal
// act as leaf expression nodes directly) and every composite type below.
type Node interface {
	Format() string
	Line() int
}

// Attribute represents `left.right`: module/field/method access, or a
// qualifier in front of a generic instantiation.
type Attribute struct {
	Left, Right Node
	Ln          int
}

func (a *Attribute) Format() string { return a.Left.Format() + "." + a.Right.Format() }
func (a *Attribute) Line() int      { return a.Ln }

// Subscript represents `head[items...]`: a generic instantiation or an
// indexing expression, disambiguated by the checker from context.
type Subscript struct {
	Head  Node
	Items []Node
	Ln    int
}

func (s *Subscript) Format() string {
	parts := make([]string, len(s.Items))
	for i, item := range s.Items {
		parts[i] = item.Format()
	}
	return s.Head.Format() + "[" + strings.Join(parts, ",") + "]"
}
func (s *Subscript) Line() int { return s.Ln }

// UnaryOperator is a prefix operator: `&x`, `*x`, `-x`, `!x`, `?x`.
type UnaryOperator struct {
	Op      token.Kind
	Operand Node
	Ln      int
}

func (u *UnaryOperator) Format() string { return string(u.Op) + u.Operand.Format() }
func (u *UnaryOperator) Line() int      { return u.Ln }

// BinaryOperator is an infix operator.
type BinaryOperator struct {
	Op          token.Kind
	Left, Right Node
	Ln          int
}

func (b *BinaryOperator) Format() string {
	return b.Left.Format() + " " + string(b.Op) + " " + b.Right.Format()
}
func (b *BinaryOperator) Line() int { return b.Ln }

// TestGuard is the postfix `expr?` form: asserts a union attribute access is
// in the named variant, and in the guarded branch authorizes reading it.
type TestGuard struct {
	Target Node // an *Attribute, e.g. u.v in `u.v?`
	Ln     int
}

func (g *TestGuard) Format() string { return g.Target.Format() + "?" }
func (g *TestGuard) Line() int      { return g.Ln }

// Call is a function or functor-style constructor call.
type Call struct {
	Callee Node
	Args   []Node
	Ln     int
}

func (c *Call) Format() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.Format()
	}
	return c.Callee.Format() + "(" + strings.Join(parts, ",") + ")"
}
func (c *Call) Line() int { return c.Ln }

// StructLiteralField is one element of a `T{...}` literal: either a bare
// positional value or a `name: value` pair (unions require the latter).
type StructLiteralField struct {
	Name  *token.Name
	Value Node
}

// StructLiteral constructs a struct or union value: `T{a, b}` or
// `T{field: expr}`.
type StructLiteral struct {
	Type   Node
	Fields []StructLiteralField
	Ln     int
}

func (s *StructLiteral) Format() string {
	parts := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		if f.Name != nil {
			parts[i] = f.Name.Value + ":" + f.Value.Format()
		} else {
			parts[i] = f.Value.Format()
		}
	}
	return s.Type.Format() + "{" + strings.Join(parts, ",") + "}"
}
func (s *StructLiteral) Line() int { return s.Ln }

// Param is a (name, type reference) pair used for function arguments and
// struct/union fields.
type Param struct {
	Name     token.Name
	TypeHint Node
}

// FunctionHead is the signature half of a function or extern declaration.
type FunctionHead struct {
	Name       token.Name
	Args       []Param
	ReturnHint Node
	Generic    []token.Name
	Ln         int
}

func (h *FunctionHead) Format() string {
	parts := make([]string, len(h.Args))
	for i, a := range h.Args {
		parts[i] = a.Name.Value + ": " + a.TypeHint.Format()
	}
	ret := ""
	if h.ReturnHint != nil {
		ret = ": " + h.ReturnHint.Format()
	}
	return "fun " + h.Name.Value + "(" + strings.Join(parts, ", ") + ")" + ret
}
func (h *FunctionHead) Line() int { return h.Ln }

// FunctionDeclaration is a function with a body.
type FunctionDeclaration struct {
	Head *FunctionHead
	Body *Body
}

func (f *FunctionDeclaration) Format() string { return f.Head.Format() + " " + f.Body.Format() }
func (f *FunctionDeclaration) Line() int      { return f.Head.Line() }

// Extern is a function declared without a body, implemented in linked C.
type Extern struct {
	Head *FunctionHead
	Ln   int
}

func (e *Extern) Format() string { return "extern " + e.Head.Format() }
func (e *Extern) Line() int      { return e.Ln }

// StructDeclaration declares an aggregate of named fields.
type StructDeclaration struct {
	Name    token.Name
	Fields  []Param
	Generic []token.Name
	Ln      int
}

func (s *StructDeclaration) Format() string { return "struct " + s.Name.Value }
func (s *StructDeclaration) Line() int      { return s.Ln }

// UnionDeclaration declares a tagged union; Fields here are variants, each
// carrying the payload type for that variant.
type UnionDeclaration struct {
	Name    token.Name
	Fields  []Param
	Generic []token.Name
	Ln      int
}

func (u *UnionDeclaration) Format() string { return "union " + u.Name.Value }
func (u *UnionDeclaration) Line() int      { return u.Ln }

// EnumDeclaration declares a C-style enum: variants with no payload.
type EnumDeclaration struct {
	Name     token.Name
	Variants []token.Name
	Ln       int
}

func (e *EnumDeclaration) Format() string { return "enum " + e.Name.Value }
func (e *EnumDeclaration) Line() int      { return e.Ln }

// Import brings another module's declarations into scope under its final
// path segment. Path is a Name or a chain of Attributes, e.g. `a.b.c`.
type Import struct {
	Path Node
	Ln   int
}

func (i *Import) Format() string { return "import " + i.Path.Format() }
func (i *Import) Line() int      { return i.Ln }

// VariableDeclaration is `let x = e` or `let x: T = e`.
type VariableDeclaration struct {
	Name     token.Name
	TypeHint Node // nil if omitted
	Value    Node
	Ln       int
}

func (v *VariableDeclaration) Format() string { return "let " + v.Name.Value + " = " + v.Value.Format() }
func (v *VariableDeclaration) Line() int      { return v.Ln }

// Assignment is `target op= value` for any AssignmentOperators kind.
type Assignment struct {
	Op     token.Kind
	Target Node
	Value  Node
	Ln     int
}

func (a *Assignment) Format() string {
	return a.Target.Format() + " " + string(a.Op) + " " + a.Value.Format()
}
func (a *Assignment) Line() int { return a.Ln }

// If is a conditional. Else holds a *Body for a plain `else`, an *If for an
// `elif` chain, or nil if there is no else branch.
type If struct {
	Cond Node
	Then *Body
	Else Node
	Ln   int
}

func (i *If) Format() string { return "if " + i.Cond.Format() + " " + i.Then.Format() }
func (i *If) Line() int      { return i.Ln }

// While is a condition-guarded loop.
type While struct {
	Cond Node
	Body *Body
	Ln   int
}

func (w *While) Format() string { return "while " + w.Cond.Format() + " " + w.Body.Format() }
func (w *While) Line() int      { return w.Ln }

// For is the surface `for x in iter { ... }` loop; the checker lowers it to
// the iterator protocol (spec.md §4.3).
type For struct {
	Var  token.Name
	Iter Node
	Body *Body
	Ln   int
}

func (f *For) Format() string {
	return "for " + f.Var.Value + " in " + f.Iter.Format() + " " + f.Body.Format()
}
func (f *For) Line() int { return f.Ln }

// Return is `return e` or a bare `return`.
type Return struct {
	Value Node // nil for a bare return
	Ln    int
}

func (r *Return) Format() string {
	if r.Value == nil {
		return "return"
	}
	return "return " + r.Value.Format()
}
func (r *Return) Line() int { return r.Ln }

// Comptime wraps an expression to be evaluated by the comptime interpreter
// during checking (spec.md §4.4).
type Comptime struct {
	Value Node
	Ln    int
}

func (c *Comptime) Format() string { return "comptime " + c.Value.Format() }
func (c *Comptime) Line() int      { return c.Ln }

// SwitchCase is one `pattern: value` arm of a Switch; Pattern is nil for the
// `_` default arm.
type SwitchCase struct {
	Pattern Node
	Value   Node
}

// Switch is a pattern-matching expression/statement.
type Switch struct {
	Target Node
	Cases  []SwitchCase
	Ln     int
}

func (s *Switch) Format() string { return "switch " + s.Target.Format() }
func (s *Switch) Line() int      { return s.Ln }

// Break and Continue are bare loop-control statements.
type Break struct{ Ln int }

func (b *Break) Format() string { return "break" }
func (b *Break) Line() int      { return b.Ln }

type Continue struct{ Ln int }

func (c *Continue) Format() string { return "continue" }
func (c *Continue) Line() int      { return c.Ln }

// Body is an ordered list of statements forming a block.
type Body struct {
	Statements []Node
	Ln         int
}

func (b *Body) Format() string {
	parts := make([]string, len(b.Statements))
	for i, s := range b.Statements {
		parts[i] = s.Format()
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}
func (b *Body) Line() int { return b.Ln }

// File is the parse result for one source file: an ordered list of
// top-level declarations (Import, *StructDeclaration, *UnionDeclaration,
// *EnumDeclaration, *Extern, *FunctionDeclaration, *VariableDeclaration).
type File struct {
	ModuleName  string
	Comments    []token.Comment
	Declarations []Node
}

func (f *File) Format() string { return fmt.Sprintf("module %s (%d decls)", f.ModuleName, len(f.Declarations)) }
func (f *File) Line() int      { return 0 }
