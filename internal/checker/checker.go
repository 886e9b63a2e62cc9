// Package checker is the elaboration stage of the pipeline (spec.md §2 step
// 3): it walks an *ast.File, installing declarations into a gmodule.Module
// and type-checking every function body against the type model in
// internal/types. It owns the two things gmodule.Module's own doc comment
// explicitly defers: generic-function monomorphization (specialize, below)
// and attribute/call resolution against an expression's runtime type
// (checkAttribute, resolveCallable). It also owns import-cycle tolerance: a
// Registry shared by every Checker in one compile run, consulted before a
// second `import` of the same module re-parses it (spec.md §4.3, §5,
// scenario 6).
package checker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/GullianLanguage/Gullian/internal/ast"
	"github.com/GullianLanguage/Gullian/internal/diagnostic"
	"github.com/GullianLanguage/Gullian/internal/gmodule"
	"github.com/GullianLanguage/Gullian/internal/parser"
	"github.com/GullianLanguage/Gullian/internal/token"
	"github.com/GullianLanguage/Gullian/internal/types"
)

// Registry is the set of modules seen so far in one compile run, keyed by
// their dotted import path. It is the mechanism that makes import cycles a
// no-op: a Module is registered (and marked in-progress) before its own
// imports are checked, so a cycle back to it resolves to the
// still-in-progress Module instead of recursing.
type Registry struct {
	Modules     map[string]*gmodule.Module
	GullianHome string
}

// NewRegistry creates an empty Registry. home is consulted as a fallback
// search root (via the GULLIAN_HOME environment convention) when an import
// path is not found relative to the working directory.
func NewRegistry(home string) *Registry {
	return &Registry{Modules: make(map[string]*gmodule.Module), GullianHome: home}
}

// Checker elaborates one Module's declarations. ReturnType tracks the
// enclosing function's declared return type while checking its body; it is
// saved and restored around every function/specialization check, mirroring
// the Scope save-mutate-restore discipline spec.md §5 requires everywhere
// else.
type Checker struct {
	Reg        *Registry
	Module     *gmodule.Module
	ReturnType *types.Type
	Log        *zap.Logger
}

// NewChecker builds a Checker for module, sharing reg across every module
// reachable from it.
func NewChecker(reg *Registry, module *gmodule.Module, log *zap.Logger) *Checker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Checker{Reg: reg, Module: module, Log: log}
}

// CompileFile is the pipeline's entry point: read, lex+parse, and fully
// check entryPath, returning the resolved root Module and the Registry it
// was checked against (the emitter needs the latter to re-derive types
// while walking the same module tree).  home is the GULLIAN_HOME search
// root for imports.
func CompileFile(entryPath, home string, log *zap.Logger) (*gmodule.Module, *Registry, error) {
	data, err := os.ReadFile(entryPath)
	if err != nil {
		return nil, nil, diagnostic.Importf("", 0, "%s", err.Error())
	}

	moduleName := strings.TrimSuffix(filepath.Base(entryPath), filepath.Ext(entryPath))
	file, err := parser.Parse(string(data), moduleName)
	if err != nil {
		return nil, nil, err
	}

	reg := NewRegistry(home)
	module := gmodule.New(moduleName, log)
	reg.Modules[moduleName] = module
	module.MarkInProgress()

	c := NewChecker(reg, module, log)
	if err := c.CheckFile(file); err != nil {
		return nil, nil, err
	}
	module.MarkComplete()
	return module, reg, nil
}

// CheckFile installs and checks every declaration in file against
// c.Module. It runs in two passes -- install, then check -- so that one
// declaration may forward-reference another declared later in the same
// file (mutual recursion between functions, a struct field naming a type
// declared further down): Pass one registers every type and function
// signature; pass two validates struct/union fields and checks function
// bodies, by which point every name in the file is already resolvable.
func (c *Checker) CheckFile(file *ast.File) error {
	c.Module.Includes = salvageIncludes(file.Comments)

	for _, decl := range file.Declarations {
		if err := c.installTopLevel(decl); err != nil {
			return err
		}
	}
	for _, decl := range file.Declarations {
		if err := c.checkTopLevel(decl); err != nil {
			return err
		}
	}
	return nil
}

// installTopLevel registers a declaration's name (import, type, or
// function signature) without validating its contents.
func (c *Checker) installTopLevel(node ast.Node) error {
	switch n := node.(type) {
	case *ast.Import:
		return c.checkImport(n)
	case *ast.StructDeclaration:
		c.Module.DeclareType(n.Name.Value, types.New(n.Name, n, c.Module))
		return nil
	case *ast.UnionDeclaration:
		c.Module.DeclareType(n.Name.Value, types.New(n.Name, n, c.Module))
		return nil
	case *ast.EnumDeclaration:
		c.Module.DeclareType(n.Name.Value, types.New(n.Name, n, c.Module))
		return nil
	case *ast.Extern:
		return c.installFunction(n.Head.Name.Value, n)
	case *ast.FunctionDeclaration:
		return c.installFunction(n.Head.Name.Value, n)
	case *ast.VariableDeclaration:
		return nil
	default:
		return diagnostic.Internalf(c.Module.Name, node.Line(), "unexpected top-level declaration %T", node)
	}
}

// salvageIncludes pulls `#include ...` comments forward as verbatim C
// includes, per spec.md §4.5's note that the emitter forwards them
// unexamined.
func salvageIncludes(comments []token.Comment) []string {
	var out []string
	for _, cm := range comments {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(cm.Value), "include "); ok {
			out = append(out, "#include "+strings.TrimSpace(rest))
		}
	}
	return out
}

func (c *Checker) checkTopLevel(node ast.Node) error {
	switch n := node.(type) {
	case *ast.Import:
		return nil // already fully resolved during installTopLevel
	case *ast.StructDeclaration:
		return c.checkStructDecl(n)
	case *ast.UnionDeclaration:
		return c.checkUnionDecl(n)
	case *ast.EnumDeclaration:
		return nil // no field types to validate
	case *ast.Extern:
		return c.checkExternDecl(n)
	case *ast.FunctionDeclaration:
		return c.checkFunctionDecl(n)
	case *ast.VariableDeclaration:
		return c.checkLet(n)
	default:
		return diagnostic.Internalf(c.Module.Name, node.Line(), "unexpected top-level declaration %T", node)
	}
}

// --- imports, with cycle tolerance -----------------------------------------

func (c *Checker) checkImport(imp *ast.Import) error {
	pathStr := formatDottedPath(imp.Path)
	finalSeg := lastSegment(pathStr)

	if existing, ok := c.Reg.Modules[pathStr]; ok {
		// Already registered, whether fully checked or (spec.md scenario 6)
		// still in progress because this import closes a cycle back to an
		// ancestor currently being checked. Either way: no re-parse.
		c.Module.Imports[finalSeg] = existing
		return nil
	}

	src, err := resolveImportSource(pathStr, c.Reg.GullianHome)
	if err != nil {
		return diagnostic.Importf(c.Module.Name, imp.Line(), "%s (hint: set GULLIAN_HOME)", err.Error())
	}

	file, err := parser.Parse(src, pathStr)
	if err != nil {
		return err
	}

	child := gmodule.New(pathStr, c.Log)
	c.Reg.Modules[pathStr] = child
	child.MarkInProgress()

	childChecker := NewChecker(c.Reg, child, c.Log)
	if err := childChecker.CheckFile(file); err != nil {
		return err
	}

	child.MarkComplete()
	c.Module.Imports[finalSeg] = child
	return nil
}

func formatDottedPath(node ast.Node) string {
	switch n := node.(type) {
	case token.Name:
		return n.Value
	case *ast.Attribute:
		return formatDottedPath(n.Left) + "." + formatDottedPath(n.Right)
	default:
		return node.Format()
	}
}

func lastSegment(dotted string) string {
	if idx := strings.LastIndex(dotted, "."); idx >= 0 {
		return dotted[idx+1:]
	}
	return dotted
}

// resolveImportSource reads a dotted module path's source text: first
// relative to the working directory, then under home (GULLIAN_HOME).
func resolveImportSource(pathDotted, home string) (string, error) {
	rel := strings.ReplaceAll(pathDotted, ".", string(os.PathSeparator)) + ".gullian"

	if data, err := os.ReadFile(rel); err == nil {
		return string(data), nil
	}
	if home != "" {
		full := filepath.Join(home, rel)
		if data, err := os.ReadFile(full); err == nil {
			return string(data), nil
		}
	}
	return "", fmt.Errorf("module %q not found", pathDotted)
}

// --- top-level declarations -------------------------------------------------

func (c *Checker) checkStructDecl(d *ast.StructDeclaration) error {
	if len(d.Generic) > 0 {
		return nil
	}
	for _, f := range d.Fields {
		if _, err := c.Module.ImportType(f.TypeHint); err != nil {
			return err
		}
	}
	return nil
}

func (c *Checker) checkUnionDecl(d *ast.UnionDeclaration) error {
	if len(d.Generic) > 0 {
		return nil
	}
	for _, f := range d.Fields {
		if _, err := c.Module.ImportType(f.TypeHint); err != nil {
			return err
		}
	}
	return nil
}

// splitAssociated splits a folded `Owner.method` function-head name (see
// parser.parseFunctionHead) into its owner type name and simple method
// name. A plain, undotted name reports ok=false.
func splitAssociated(name string) (owner, method string, ok bool) {
	idx := strings.Index(name, ".")
	if idx < 0 {
		return "", "", false
	}
	return name[:idx], name[idx+1:], true
}

func (c *Checker) installFunction(headName string, decl ast.Node) error {
	if owner, method, ok := splitAssociated(headName); ok {
		ownerType, err := c.Module.ImportType(token.Name{Value: owner})
		if err != nil {
			return err
		}
		ownerType.AssociatedFunctions[method] = &types.AssociatedFunction{Owner: ownerType, Decl: decl}
		return nil
	}
	c.Module.DeclareFunction(headName, decl)
	return nil
}

func (c *Checker) checkExternDecl(e *ast.Extern) error {
	if len(e.Head.Generic) > 0 {
		return nil
	}
	for _, a := range e.Head.Args {
		if _, err := c.Module.ImportType(a.TypeHint); err != nil {
			return err
		}
	}
	if e.Head.ReturnHint != nil {
		if _, err := c.Module.ImportType(e.Head.ReturnHint); err != nil {
			return err
		}
	}
	return nil
}

func (c *Checker) checkFunctionDecl(f *ast.FunctionDeclaration) error {
	if len(f.Head.Generic) > 0 {
		// Generic bodies are checked lazily, once per call-site
		// specialization (specialize, below); the bare declaration is not
		// itself type-checked.
		return nil
	}

	saved := c.Module.Scope
	c.Module.Scope = saved.Push()
	defer func() { c.Module.Scope = saved }()

	for _, a := range f.Head.Args {
		at, err := c.Module.ImportType(a.TypeHint)
		if err != nil {
			return err
		}
		c.Module.Scope.Bind(a.Name, at)
	}

	retType, err := c.resolveReturnType(f.Head.ReturnHint)
	if err != nil {
		return err
	}

	savedReturn := c.ReturnType
	c.ReturnType = retType
	defer func() { c.ReturnType = savedReturn }()

	return c.checkBody(f.Body)
}

func (c *Checker) resolveReturnType(hint ast.Node) (*types.Type, error) {
	if hint == nil {
		t, _ := types.Lookup(types.NameVoid)
		return t, nil
	}
	return c.Module.ImportType(hint)
}

func (c *Checker) checkLet(v *ast.VariableDeclaration) error {
	valTyped, err := c.checkExpression(v.Value)
	if err != nil {
		return err
	}

	declaredType := valTyped.Type
	if v.TypeHint != nil {
		hintType, err := c.Module.ImportType(v.TypeHint)
		if err != nil {
			return err
		}
		if !c.compatibleAssign(hintType, valTyped) {
			return diagnostic.Typef(c.Module.Name, v.Line(), "cannot assign %s to %s", valTyped.Type.Format(), hintType.Format())
		}
		declaredType = hintType
	}

	c.Module.Scope.Bind(v.Name, declaredType)
	return nil
}

// compatibleAssign is types.Compatible plus spec.md §4.2's one named
// exception: a length-1 string literal is silently coerced to its code
// point wherever an int is expected.
func (c *Checker) compatibleAssign(declared *types.Type, given *types.Typed) bool {
	if types.Compatible(declared, given.Type) {
		return true
	}
	if types.PrimitiveName(declared) == types.NameInt {
		if lit, ok := given.Value.(token.Literal); ok {
			if s, ok := lit.Value.(string); ok && len(s) == 1 {
				return true
			}
		}
	}
	return false
}
