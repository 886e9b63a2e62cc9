// Package gmodule is the module graph of spec.md §2 step 3: per
// compilation unit, a named Module holding its declared functions,
// declared types, imported modules, and a mutable lexical Scope. It also
// carries the non-generic half of the resolver (spec.md §4.1): looking up
// a name already fully qualified by module, and memoizing generic type
// instantiations. Generic *function* monomorphization and attribute
// resolution against an expression's runtime type need the checker's
// type-checking loop, so those live in internal/checker instead.
package gmodule

import (
	"go.uber.org/zap"

	"github.com/GullianLanguage/Gullian/internal/ast"
	"github.com/GullianLanguage/Gullian/internal/diagnostic"
	"github.com/GullianLanguage/Gullian/internal/token"
	"github.com/GullianLanguage/Gullian/internal/types"
)

// TypeGuard records that a union attribute access has been proven live by a
// preceding TestGuard (spec.md §3's Scope.type_guards).
type TypeGuard struct {
	Union   *types.Type
	Variant string
}

// VarBinding is a Scope.variables entry: spec.md's
// `VariableDeclaration | FunctionArgument`, unified here since both are
// just a name bound to a Type for the remainder of the enclosing scope.
type VarBinding struct {
	Name token.Name
	Type *types.Type
}

// Scope is the checker's lexical environment: variable bindings, type-
// parameter aliases (active while checking a generic body), and the
// type-guard stack. A Scope is created per function, per if, per
// while/for body; Push/the caller's saved reference implement the
// save-mutate-restore discipline spec.md §5 requires.
type Scope struct {
	Parent        *Scope
	Variables     map[string]*VarBinding
	TypeVariables map[string]*types.Type
	TypeGuards    []TypeGuard
}

// NewScope creates an empty root scope with no parent.
func NewScope() *Scope {
	return &Scope{
		Variables:     make(map[string]*VarBinding),
		TypeVariables: make(map[string]*types.Type),
	}
}

// Push returns a fresh child scope. Type guards are inherited by value
// (a copy of the slice header) so pushing new guards in the child never
// mutates the parent's.
func (s *Scope) Push() *Scope {
	return &Scope{
		Parent:        s,
		Variables:     make(map[string]*VarBinding),
		TypeVariables: make(map[string]*types.Type),
		TypeGuards:    append([]TypeGuard(nil), s.TypeGuards...),
	}
}

// Bind installs a variable in this scope (not a parent).
func (s *Scope) Bind(name token.Name, t *types.Type) {
	s.Variables[name.Value] = &VarBinding{Name: name, Type: t}
}

// BindTypeVariable installs a generic type-parameter alias in this scope.
func (s *Scope) BindTypeVariable(name string, t *types.Type) {
	s.TypeVariables[name] = t
}

// LookupVariable searches this scope and its ancestors.
func (s *Scope) LookupVariable(name string) (*VarBinding, bool) {
	for sc := s; sc != nil; sc = sc.Parent {
		if v, ok := sc.Variables[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// LookupTypeVariable searches this scope and its ancestors.
func (s *Scope) LookupTypeVariable(name string) (*types.Type, bool) {
	for sc := s; sc != nil; sc = sc.Parent {
		if t, ok := sc.TypeVariables[name]; ok {
			return t, true
		}
	}
	return nil, false
}

// PushGuard records that (union, variant) is proven live for the remainder
// of this scope's lifetime.
func (s *Scope) PushGuard(union *types.Type, variant string) {
	s.TypeGuards = append(s.TypeGuards, TypeGuard{Union: union, Variant: variant})
}

// HasGuard reports whether (union, variant) has been proven live in this
// scope or an ancestor.
func (s *Scope) HasGuard(union *types.Type, variant string) bool {
	for sc := s; sc != nil; sc = sc.Parent {
		for _, g := range sc.TypeGuards {
			if g.Union.Equal(union) && g.Variant == variant {
				return true
			}
		}
	}
	return false
}

// Module is one compilation unit's worth of checked declarations
// (spec.md §3). Functions and Types are both keyed by simple name;
// generic-type specializations are additionally memoized under their
// fully-applied Subscript spelling (e.g. "Box[int]").
type Module struct {
	Name     string
	Functions map[string]ast.Node // *ast.FunctionDeclaration | *ast.Extern
	Types    map[string]*types.Type
	Imports  map[string]*Module
	Scope    *Scope
	Includes []string

	// inProgress is true from the moment this Module is registered in a
	// Registry until its declarations finish checking. A second import of
	// the same module name while inProgress is true resolves to this very
	// (partially filled) Module instead of re-parsing -- the mechanism
	// that makes import cycles a no-op rather than infinite recursion
	// (spec.md §4.3, §5, scenario 6).
	inProgress bool

	log *zap.Logger
}

// New creates an empty Module. log may be nil (a no-op logger is used).
func New(name string, log *zap.Logger) *Module {
	if log == nil {
		log = zap.NewNop()
	}
	return &Module{
		Name:      name,
		Functions: make(map[string]ast.Node),
		Types:     make(map[string]*types.Type),
		Imports:   make(map[string]*Module),
		Scope:     NewScope(),
		log:       log,
	}
}

// ModuleName satisfies types.ModuleRef.
func (m *Module) ModuleName() string { return m.Name }

// MarkInProgress / MarkComplete bracket a Module's check pass, and
// InProgress reports the flag. Import resolution does not consult it: a
// registered Module resolves the same way whether or not it is complete.
func (m *Module) MarkInProgress() { m.inProgress = true }
func (m *Module) MarkComplete()   { m.inProgress = false }
func (m *Module) InProgress() bool { return m.inProgress }

// DeclareType registers a fresh Type under its simple name.
func (m *Module) DeclareType(name string, t *types.Type) {
	m.Types[name] = t
	m.log.Debug("declared type", zap.String("module", m.Name), zap.String("name", name), zap.Uint64("uid", t.Uid))
}

// DeclareFunction registers a function or extern under its simple name.
func (m *Module) DeclareFunction(name string, decl ast.Node) {
	m.Functions[name] = decl
}

// ImportType resolves a qualified type reference entirely within this
// module's own graph plus already-installed imports: primitive table,
// then scope type-variables, then this module's declared/memoized types,
// then (for Attribute) a qualified delegate, then (for `&T`) the ptr
// specialization, then (for Subscript) a generic instantiation.
// Generic-function monomorphization is not a type operation and is not
// handled here.
func (m *Module) ImportType(name ast.Node) (*types.Type, error) {
	switch n := name.(type) {
	case token.Name:
		if t, ok := types.Lookup(n.Value); ok {
			return t, nil
		}
		if t, ok := m.Scope.LookupTypeVariable(n.Value); ok {
			return t, nil
		}
		if t, ok := m.Types[n.Value]; ok {
			return t, nil
		}
		return nil, diagnostic.Namef(m.Name, n.Line(), "unknown type %q", n.Value)

	case *ast.Attribute:
		left, ok := n.Left.(token.Name)
		if !ok {
			return nil, diagnostic.Namef(m.Name, n.Line(), "invalid qualified type reference")
		}
		imp, ok := m.Imports[left.Value]
		if !ok {
			return nil, diagnostic.Namef(m.Name, n.Line(), "unknown module %q", left.Value)
		}
		return imp.ImportType(n.Right)

	case *ast.UnaryOperator:
		if n.Op != token.Ampersand {
			return nil, diagnostic.Namef(m.Name, n.Line(), "invalid type reference operator %q", string(n.Op))
		}
		inner, err := m.ImportType(n.Operand)
		if err != nil {
			return nil, err
		}
		return m.ptrOf(inner)

	case *ast.Subscript:
		return m.importSubscript(n)

	default:
		return nil, diagnostic.Internalf(m.Name, name.Line(), "unexpected type reference node %T", name)
	}
}

// ptrOf returns the (memoized) ptr[T] specialization: a Type sharing
// primitive ptr's uid, whose method table is ptr.assoc ∪ T.assoc
// (spec.md §3, §4.1 rule 3).
func (m *Module) ptrOf(inner *types.Type) (*types.Type, error) {
	key := "ptr[" + inner.Format() + "]"
	if cached, ok := m.Types[key]; ok {
		return cached, nil
	}

	ptrPrim, _ := types.Lookup(types.NamePtr)

	merged := make(map[string]*types.AssociatedFunction, len(ptrPrim.AssociatedFunctions)+len(inner.AssociatedFunctions))
	for k, v := range ptrPrim.AssociatedFunctions {
		merged[k] = v
	}
	for k, v := range inner.AssociatedFunctions {
		merged[k] = v
	}

	specialized := &types.Type{
		Name:                &ast.Subscript{Head: token.Name{Value: types.NamePtr}, Items: []ast.Node{inner.Name}},
		Uid:                 ptrPrim.Uid,
		AssociatedFunctions: merged,
		Module:              inner.Module,
		PointsTo:            inner,
	}

	m.Types[key] = specialized
	return specialized, nil
}

// importSubscript implements spec.md §4.1's Subscript resolution rule: ptr
// specialization, cross-module delegation, or generic-type instantiation
// with memoization by fully-applied name.
func (m *Module) importSubscript(n *ast.Subscript) (*types.Type, error) {
	if memoKey := n.Format(); true {
		if cached, ok := m.Types[memoKey]; ok {
			return cached, nil
		}
	}

	if headName, ok := n.Head.(token.Name); ok && headName.Value == types.NamePtr {
		if len(n.Items) != 1 {
			return nil, diagnostic.Typef(m.Name, n.Line(), "ptr expects exactly one type argument")
		}
		inner, err := m.ImportType(n.Items[0])
		if err != nil {
			return nil, err
		}
		return m.ptrOf(inner)
	}

	if attr, ok := n.Head.(*ast.Attribute); ok {
		left, ok := attr.Left.(token.Name)
		if !ok {
			return nil, diagnostic.Namef(m.Name, n.Line(), "invalid qualified generic reference")
		}
		imp, ok := m.Imports[left.Value]
		if !ok {
			return nil, diagnostic.Namef(m.Name, n.Line(), "unknown module %q", left.Value)
		}
		right, ok := attr.Right.(token.Name)
		if !ok {
			return nil, diagnostic.Namef(m.Name, n.Line(), "invalid qualified generic reference")
		}
		return imp.importSubscript(&ast.Subscript{Head: right, Items: n.Items, Ln: n.Ln})
	}

	generic, err := m.ImportType(n.Head)
	if err != nil {
		return nil, err
	}
	if !generic.IsGeneric() {
		return nil, diagnostic.Typef(m.Name, n.Line(), "%s is not generic", generic.Format())
	}

	params := generic.GenericParams()
	if len(params) != len(n.Items) {
		return nil, diagnostic.Typef(m.Name, n.Line(), "expected %d type arguments for %s, got %d", len(params), generic.Format(), len(n.Items))
	}

	subst := make(map[string]ast.Node, len(params))
	resolvedItems := make([]ast.Node, len(n.Items))
	for i, item := range n.Items {
		resolved, err := m.ImportType(item)
		if err != nil {
			return nil, err
		}
		subst[params[i].Value] = resolved.Name
		resolvedItems[i] = resolved.Name
	}

	resolvedKey := (&ast.Subscript{Head: generic.Name, Items: resolvedItems}).Format()
	if cached, ok := m.Types[resolvedKey]; ok {
		m.Types[n.Format()] = cached
		return cached, nil
	}

	var clonedDecl ast.Node
	switch d := generic.Declaration.(type) {
	case *ast.StructDeclaration:
		clonedDecl = &ast.StructDeclaration{Name: d.Name, Fields: SubstituteParams(d.Fields, subst), Ln: d.Ln}
	case *ast.UnionDeclaration:
		clonedDecl = &ast.UnionDeclaration{Name: d.Name, Fields: SubstituteParams(d.Fields, subst), Ln: d.Ln}
	default:
		return nil, diagnostic.Internalf(m.Name, n.Line(), "generic type %s has no clonable declaration", generic.Format())
	}

	specialized := types.New(&ast.Subscript{Head: generic.Name, Items: resolvedItems, Ln: n.Ln}, clonedDecl, m)
	for name, af := range generic.AssociatedFunctions {
		specialized.AssociatedFunctions[name] = &types.AssociatedFunction{Owner: specialized, Decl: af.Decl}
	}

	m.Types[n.Format()] = specialized
	m.Types[resolvedKey] = specialized
	m.log.Debug("monomorphized type", zap.String("module", m.Name), zap.String("name", resolvedKey), zap.Uint64("uid", specialized.Uid))

	return specialized, nil
}

// SubstituteParams clones a field/variant list, substituting each
// occurrence of a generic parameter name in a TypeHint per subst.
func SubstituteParams(fields []ast.Param, subst map[string]ast.Node) []ast.Param {
	out := make([]ast.Param, len(fields))
	for i, f := range fields {
		out[i] = ast.Param{Name: f.Name, TypeHint: SubstituteTypeRef(f.TypeHint, subst)}
	}
	return out
}

// SubstituteTypeRef recursively replaces generic-parameter Names with
// their bound concrete type reference throughout a type-reference AST.
func SubstituteTypeRef(node ast.Node, subst map[string]ast.Node) ast.Node {
	switch n := node.(type) {
	case token.Name:
		if repl, ok := subst[n.Value]; ok {
			return repl
		}
		return n
	case *ast.Attribute:
		return &ast.Attribute{Left: SubstituteTypeRef(n.Left, subst), Right: n.Right, Ln: n.Ln}
	case *ast.Subscript:
		items := make([]ast.Node, len(n.Items))
		for i, item := range n.Items {
			items[i] = SubstituteTypeRef(item, subst)
		}
		return &ast.Subscript{Head: SubstituteTypeRef(n.Head, subst), Items: items, Ln: n.Ln}
	case *ast.UnaryOperator:
		return &ast.UnaryOperator{Op: n.Op, Operand: SubstituteTypeRef(n.Operand, subst), Ln: n.Ln}
	default:
		return node
	}
}

// ImportFunction resolves a plain or module-qualified function name
// (spec.md §4.1's `Name` and module-delegating `Attribute` cases). Method
// lookup against an expression's runtime type and generic monomorphization
// both need the checker's type-checking loop and live in internal/checker.
func (m *Module) ImportFunction(name ast.Node) (ast.Node, error) {
	switch n := name.(type) {
	case token.Name:
		if fn, ok := m.Functions[n.Value]; ok {
			return fn, nil
		}
		if t, ok := m.Types[n.Value]; ok {
			if af, ok := t.AssociatedFunctions["call"]; ok {
				return af.Decl, nil
			}
		}
		return nil, diagnostic.Namef(m.Name, n.Line(), "unknown function %q", n.Value)

	case *ast.Attribute:
		left, ok := n.Left.(token.Name)
		if !ok {
			return nil, diagnostic.Internalf(m.Name, n.Line(), "attribute call target requires type-checking, not a bare resolver lookup")
		}
		imp, ok := m.Imports[left.Value]
		if !ok {
			return nil, diagnostic.Namef(m.Name, n.Line(), "unknown module %q", left.Value)
		}
		return imp.ImportFunction(n.Right)

	default:
		return nil, diagnostic.Internalf(m.Name, name.Line(), "unexpected function reference node %T", name)
	}
}
