// Package emitter is the final pipeline stage (spec.md §2 step 7, §4.5): it
// folds a checked gmodule.Module tree into a single C11 translation unit.
// Because internal/checker wraps expressions in *types.Typed only
// transiently, at their point of elaboration, the emitter re-derives each
// expression's type on the fly via checker.Checker.ResolveExpr while it
// walks the already-checked tree -- the same resolution rules run twice,
// once to validate and once to decide how to print, rather than threading a
// second parallel typed tree through the whole pipeline.
package emitter

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/GullianLanguage/Gullian/internal/ast"
	"github.com/GullianLanguage/Gullian/internal/checker"
	"github.com/GullianLanguage/Gullian/internal/gmodule"
	"github.com/GullianLanguage/Gullian/internal/types"
)

// preambleIncludes is the fixed root-module preamble (spec.md §4.5 step 2).
var preambleIncludes = []string{
	"<stddef.h>", "<stdint.h>", "<stdbool.h>", "<malloc.h>", "<string.h>", "<stdlib.h>", "<stdio.h>",
}

// primitiveDefines maps Gullian primitive names to their C equivalents.
var primitiveDefines = []struct{ name, c string }{
	{types.NameU8, "uint8_t"},
	{types.NameU16, "uint16_t"},
	{types.NameU32, "uint32_t"},
	{types.NameByte, "uint8_t"},
	{types.NameChar, "char"},
	{types.NameStr, "char*"},
	{types.NamePtr, "void*"},
	{types.NameBool, "bool"},
	{types.NameFloat, "double"},
	{types.NameInt, "int64_t"},
	{types.NameVoid, "void"},
}

// Emitter accumulates the C text for one compile run, across the root
// module and every import it pulls in (each emitted at most once --
// deduplicated by module name, per spec.md §4.5).
type Emitter struct {
	Reg          *checker.Registry
	Log          *zap.Logger
	seen         map[string]bool
	emittedTypes  map[uint64]bool
	emittedFuncs  map[string]bool
	emittedBodies map[string]bool
}

// New creates an Emitter sharing reg with the Checker that produced root.
func New(reg *checker.Registry, log *zap.Logger) *Emitter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Emitter{Reg: reg, Log: log, seen: make(map[string]bool)}
}

// Emit produces the full translation unit for root: preamble, every
// transitively imported module's type definitions and function prototypes,
// then every module's function bodies (imports first, then root), per
// spec.md §4.5's declaration order.
func Emit(root *gmodule.Module, reg *checker.Registry, log *zap.Logger) (string, error) {
	e := New(reg, log)

	var decls, bodies strings.Builder

	var includes []string
	visited := make(map[string]bool)
	var collect func(m *gmodule.Module)
	collect = func(m *gmodule.Module) {
		if !visited[m.Name] {
			visited[m.Name] = true
			for _, name := range sortedKeys(m.Imports) {
				collect(m.Imports[name])
			}
			includes = append(includes, m.Includes...)
		}
	}
	collect(root)
	decls.WriteString(strings.Join(includes, "\n"))
	if len(includes) > 0 {
		decls.WriteString("\n")
	}
	for _, inc := range preambleIncludes {
		decls.WriteString("#include " + inc + "\n")
	}
	decls.WriteString("\n")
	for _, d := range primitiveDefines {
		decls.WriteString(fmt.Sprintf("#define %s %s\n", d.name, d.c))
	}
	decls.WriteString("\n")

	if err := e.emitModuleDecls(&decls, root); err != nil {
		return "", err
	}
	if err := e.emitModuleBodies(&bodies, root); err != nil {
		return "", err
	}

	return decls.String() + "\n" + bodies.String(), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// emitModuleDecls recurses into m's imports first (so a type used by m is
// already declared), then emits m's own type definitions and function
// prototypes. Generic *definitions* are skipped; only their monomorphized
// instantiations (present in m.Types/m.Functions under a Subscript-shaped
// key) are emitted.
func (e *Emitter) emitModuleDecls(out *strings.Builder, m *gmodule.Module) error {
	if e.seen[m.Name] {
		return nil
	}
	e.seen[m.Name] = true

	for _, name := range sortedKeys(m.Imports) {
		if err := e.emitModuleDecls(out, m.Imports[name]); err != nil {
			return err
		}
	}

	for _, name := range sortedKeys(m.Types) {
		t := m.Types[name]
		if t.IsGeneric() {
			continue
		}
		if t.Module != nil && t.Module.ModuleName() != m.Name {
			continue // owned by an import, emitted there
		}
		if err := e.emitTypeDecl(out, m, t); err != nil {
			return err
		}
	}

	for _, name := range sortedKeys(m.Functions) {
		decl := m.Functions[name]
		if head := functionHead(decl); head != nil && len(head.Generic) > 0 {
			continue
		}
		e.emitPrototypeOnce(out, m, decl)
	}

	for _, tname := range sortedKeys(m.Types) {
		t := m.Types[tname]
		for _, mname := range sortedKeys(t.AssociatedFunctions) {
			decl := t.AssociatedFunctions[mname].Decl
			if head := functionHead(decl); head == nil || len(head.Generic) > 0 {
				continue
			}
			e.emitPrototypeOnce(out, m, decl)
		}
	}
	out.WriteString("\n")
	return nil
}

func (e *Emitter) emitPrototypeOnce(out *strings.Builder, m *gmodule.Module, decl ast.Node) {
	if e.emittedFuncs == nil {
		e.emittedFuncs = make(map[string]bool)
	}
	head := functionHead(decl)
	if head == nil {
		return
	}
	key := mangleFuncName(head.Name.Value)
	if e.emittedFuncs[key] {
		return
	}
	e.emittedFuncs[key] = true
	out.WriteString(functionPrototype(m, decl) + ";\n")
}

func (e *Emitter) emitModuleBodies(out *strings.Builder, m *gmodule.Module) error {
	seen := make(map[string]bool)
	return e.emitModuleBodiesRec(out, m, seen)
}

func (e *Emitter) emitModuleBodiesRec(out *strings.Builder, m *gmodule.Module, seen map[string]bool) error {
	if seen[m.Name] {
		return nil
	}
	seen[m.Name] = true

	for _, name := range sortedKeys(m.Imports) {
		if err := e.emitModuleBodiesRec(out, m.Imports[name], seen); err != nil {
			return err
		}
	}

	for _, name := range sortedKeys(m.Functions) {
		if err := e.emitBodyOnce(out, m, m.Functions[name]); err != nil {
			return err
		}
	}
	for _, tname := range sortedKeys(m.Types) {
		t := m.Types[tname]
		for _, mname := range sortedKeys(t.AssociatedFunctions) {
			if err := e.emitBodyOnce(out, m, t.AssociatedFunctions[mname].Decl); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Emitter) emitBodyOnce(out *strings.Builder, m *gmodule.Module, decl ast.Node) error {
	fd, ok := decl.(*ast.FunctionDeclaration)
	if !ok {
		return nil // Extern: prototype only, no body
	}
	if len(fd.Head.Generic) > 0 {
		return nil
	}
	if e.emittedBodies == nil {
		e.emittedBodies = make(map[string]bool)
	}
	key := mangleFuncName(fd.Head.Name.Value)
	if e.emittedBodies[key] {
		return nil
	}
	e.emittedBodies[key] = true

	if err := e.emitFunctionBody(out, m, fd); err != nil {
		return err
	}
	out.WriteString("\n\n")
	return nil
}

func functionHead(decl ast.Node) *ast.FunctionHead {
	switch d := decl.(type) {
	case *ast.FunctionDeclaration:
		return d.Head
	case *ast.Extern:
		return d.Head
	default:
		return nil
	}
}
