// Package types is the canonical representation of a Gullian type in the
// module graph (spec.md §3): a Type's identity is its uid, never its
// structural shape, so two specializations of the same generic are
// distinct types even when their declarations are structurally identical.
//
// The uid source is a monotonic counter. The Python implementation this
// was distilled from drew a uid from random.randint(1000, 9999), a latent
// collision bug once a compilation unit declares more than a few thousand
// types (any two draws colliding silently merges their identities) --
// spec.md §9 flags this explicitly as something to redesign away.
package types

import (
	"sync/atomic"

	"github.com/GullianLanguage/Gullian/internal/ast"
	"github.com/GullianLanguage/Gullian/internal/token"
)

var uidCounter atomic.Uint64

// NextUID returns a fresh, process-wide unique id. Never reused, never
// recycled: it is the sole basis of Type identity.
func NextUID() uint64 { return uidCounter.Add(1) }

// ModuleRef is the sliver of gmodule.Module that the types package needs
// for a Type's back-reference -- kept as an interface here, rather than an
// import of gmodule, so that gmodule (which must hold *Type values in its
// own maps) does not form an import cycle with this package.
type ModuleRef interface {
	ModuleName() string
}

// AssociatedFunction is a method bound to an owning Type: spec.md §3's
// `AssociatedFunction{owner, decl}`. decl is either an *ast.FunctionDeclaration
// or an *ast.Extern. When a generic type is specialized, its method table is
// copied as AssociatedFunction wrappers re-bound to the new owner while decl
// keeps pointing at the one shared generic declaration.
type AssociatedFunction struct {
	Owner *Type
	Decl  ast.Node
}

// FunctionArgument is a function parameter as it appears bound in a Scope,
// distinct from a VariableDeclaration only in that it has no initializer.
type FunctionArgument struct {
	Name token.Name
	Type *Type
}

// Type is the canonical type record. Equality and hashing are defined only
// on Uid; two Type values with structurally identical Name/Declaration but
// different Uid are different types (this is exactly what makes two
// monomorphizations of the same generic distinct).
type Type struct {
	Name                ast.Node // token.Name | *ast.Attribute | *ast.Subscript
	Uid                 uint64
	Declaration         ast.Node // *ast.StructDeclaration | *ast.UnionDeclaration | *ast.EnumDeclaration | nil
	AssociatedFunctions map[string]*AssociatedFunction
	Module              ModuleRef // nil for built-ins
	PointsTo            *Type     // set only for a ptr[T] specialization; see ptr.assoc union in ImportAny
}

// New allocates a Type with a fresh uid. This is the only constructor: it
// is the thing spec.md §8's "Type identity" property is stated against --
// a.Uid and b.Uid agree iff a and b came from the same New call.
func New(name ast.Node, declaration ast.Node, module ModuleRef) *Type {
	return &Type{
		Name:                name,
		Uid:                 NextUID(),
		Declaration:         declaration,
		AssociatedFunctions: make(map[string]*AssociatedFunction),
		Module:              module,
	}
}

// Equal compares by Uid only, per spec.md §8.
func (t *Type) Equal(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.Uid == other.Uid
}

// Hash satisfies spec.md §8's `hash(a) == a.uid` property test.
func (t *Type) Hash() uint64 { return t.Uid }

func (t *Type) Format() string { return t.Name.Format() }
func (t *Type) Line() int {
	if t.Declaration != nil {
		return t.Declaration.Line()
	}
	return 0
}

// GenericParams returns the declared type-parameter names, if Declaration
// is a generic struct or union; nil otherwise.
func (t *Type) GenericParams() []token.Name {
	switch d := t.Declaration.(type) {
	case *ast.StructDeclaration:
		return d.Generic
	case *ast.UnionDeclaration:
		return d.Generic
	default:
		return nil
	}
}

// IsGeneric reports whether Type still has unbound type parameters (i.e. is
// a definition, not yet a specialization).
func (t *Type) IsGeneric() bool { return len(t.GenericParams()) > 0 }

// IsStruct, IsUnion, IsEnum classify Declaration's concrete kind.
func (t *Type) IsStruct() bool { _, ok := t.Declaration.(*ast.StructDeclaration); return ok }
func (t *Type) IsUnion() bool  { _, ok := t.Declaration.(*ast.UnionDeclaration); return ok }
func (t *Type) IsEnum() bool   { _, ok := t.Declaration.(*ast.EnumDeclaration); return ok }

// Fields returns the ordered (name, type-ref) pairs of a struct or union
// declaration, or nil for anything else.
func (t *Type) Fields() []ast.Param {
	switch d := t.Declaration.(type) {
	case *ast.StructDeclaration:
		return d.Fields
	case *ast.UnionDeclaration:
		return d.Fields
	default:
		return nil
	}
}

// Variants returns the declared enum variant names, or nil for anything
// else.
func (t *Type) Variants() []token.Name {
	if e, ok := t.Declaration.(*ast.EnumDeclaration); ok {
		return e.Variants
	}
	return nil
}

// AnyResult is the outcome of Type.ImportAny: exactly one of Method, Field,
// Variant is set when Found is true.
type AnyResult struct {
	Found   bool
	Method  *AssociatedFunction
	Field   *ast.Param
	Variant *token.Name
}

// ImportAny resolves a bare name against a Type the way spec.md §4.3's
// attribute-access rule does: associated functions first, then declared
// fields/variants, then -- if this Type is a ptr[T] specialization --
// recurse into T (pointer-transparent method/field access).
func (t *Type) ImportAny(name string) AnyResult {
	if af, ok := t.AssociatedFunctions[name]; ok {
		return AnyResult{Found: true, Method: af}
	}
	for _, f := range t.Fields() {
		if f.Name.Value == name {
			field := f
			return AnyResult{Found: true, Field: &field}
		}
	}
	for _, v := range t.Variants() {
		if v.Value == name {
			variant := v
			return AnyResult{Found: true, Variant: &variant}
		}
	}
	if t.PointsTo != nil {
		return t.PointsTo.ImportAny(name)
	}
	return AnyResult{}
}

// Typed wraps an untyped AST node together with the Type the checker
// derived for it. The checker produces these in place of raw nodes;
// wrapping happens exactly once, at a node's point of elaboration
// (spec.md §3's "Typed node"). Typed implements ast.Node itself, by
// delegation, so an already-typed subexpression can be embedded directly
// wherever an ast.Node is expected by a later checking step.
type Typed struct {
	Value ast.Node
	Type  *Type
}

func (t *Typed) Format() string { return t.Value.Format() }
func (t *Typed) Line() int      { return t.Value.Line() }

// Primitive names, as used by the lattice and the emitter's #define table
// (spec.md §4.2, §4.5).
const (
	NameType     = "type"
	NameModule   = "module"
	NameVoid     = "void"
	NameBool     = "bool"
	NameInt      = "int"
	NameU8       = "u8"
	NameU16      = "u16"
	NameU32      = "u32"
	NameFloat    = "float"
	NameStr      = "str"
	NameByte     = "byte"
	NameChar     = "char"
	NamePtr      = "ptr"
	NameFunction = "function"
	NameAny      = "any"
)

// Primitives is the global table of built-in singleton Types: each name in
// this set has exactly one Type instance, shared by every module, per
// spec.md §3's "primitive uniqueness" invariant.
var Primitives map[string]*Type

func init() {
	Primitives = make(map[string]*Type)
	for _, name := range []string{
		NameType, NameModule, NameVoid, NameBool, NameInt, NameU8, NameU16,
		NameU32, NameFloat, NameStr, NameByte, NameChar, NamePtr, NameFunction, NameAny,
	} {
		Primitives[name] = New(token.Name{Value: name}, nil, nil)
	}
}

// Lookup returns the primitive Type named name, if any.
func Lookup(name string) (*Type, bool) {
	t, ok := Primitives[name]
	return t, ok
}

// intCompatibleWith is the set of primitive names §4.2 allows on the right
// of `int` in the compatibility lattice.
var intCompatibleWith = map[string]bool{
	NameBool: true, NameChar: true, NameType: true, NameU8: true, NameU16: true, NameU32: true,
}

// ptrCompatibleWith is the set of primitive names §4.2 allows on the right
// of `ptr`.
var ptrCompatibleWith = map[string]bool{
	NameStr: true, NameInt: true,
}

// PrimitiveName returns t's simple primitive name if it is one of the
// built-in singletons or a ptr[T] specialization (whose Name is itself
// ptr's Subscript form), else "".
func PrimitiveName(t *Type) string {
	if t == nil {
		return ""
	}
	if name, ok := t.Name.(token.Name); ok {
		return name.Value
	}
	if sub, ok := t.Name.(*ast.Subscript); ok {
		if head, ok := sub.Head.(token.Name); ok && head.Value == NamePtr {
			return NamePtr
		}
	}
	return ""
}

// Compatible implements spec.md §4.2's directed, symmetric compat(L, R)
// lattice: any accepts anything, ptr accepts str/int, int accepts
// bool/char/type/u8/u16/u32, and otherwise two Types are compatible only by
// shared identity (same Uid).
func Compatible(l, r *Type) bool {
	if l == nil || r == nil {
		return l == r
	}
	if l.Equal(r) {
		return true
	}

	ln, rn := PrimitiveName(l), PrimitiveName(r)

	if ln == NameAny || rn == NameAny {
		return true
	}
	if ln == NamePtr && ptrCompatibleWith[rn] {
		return true
	}
	if rn == NamePtr && ptrCompatibleWith[ln] {
		return true
	}
	if ln == NameInt && intCompatibleWith[rn] {
		return true
	}
	if rn == NameInt && intCompatibleWith[ln] {
		return true
	}

	return false
}
