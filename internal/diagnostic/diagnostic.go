// Package diagnostic defines the fatal error taxonomy surfaced by every
// compiler stage: syntax, name, type, import and internal errors. Every
// diagnostic embeds a source line and the owning module name so the CLI can
// print "<kind>: <message>. at line <n>. in module <name>" on exit.
package diagnostic

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
)

// Kind classifies a Diagnostic the way the pipeline stages raise it.
type Kind string

const (
	Syntax   Kind = "syntax"
	Name     Kind = "name"
	Type     Kind = "type"
	Import   Kind = "import"
	Internal Kind = "internal"
)

// Diagnostic is a fatal compiler error. There is no recovery path: the first
// Diagnostic raised anywhere in the pipeline aborts the process.
type Diagnostic struct {
	Kind    Kind
	Message string
	Line    int
	Module  string
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s. at line %d. in module %s", d.Kind, d.Message, d.Line, d.Module)
}

// New builds a Diagnostic with a formatted message.
func New(kind Kind, module string, line int, format string, args ...any) *Diagnostic {
	return &Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...), Line: line, Module: module}
}

func Syntaxf(module string, line int, format string, args ...any) *Diagnostic {
	return New(Syntax, module, line, format, args...)
}

func Namef(module string, line int, format string, args ...any) *Diagnostic {
	return New(Name, module, line, format, args...)
}

func Typef(module string, line int, format string, args ...any) *Diagnostic {
	return New(Type, module, line, format, args...)
}

func Importf(module string, line int, format string, args ...any) *Diagnostic {
	return New(Import, module, line, format, args...)
}

func Internalf(module string, line int, format string, args ...any) *Diagnostic {
	return New(Internal, module, line, format, args...)
}

// InternalNodef builds an Internal Diagnostic whose message embeds a full
// spew dump of the offending node -- per spec, an internal error "aborts
// with the offending node", and a checker/emitter pattern-match failure is
// easier to root-cause with the node's full field tree than with %T alone.
func InternalNodef(module string, line int, node any, format string, args ...any) *Diagnostic {
	msg := fmt.Sprintf(format, args...) + "\n" + spew.Sdump(node)
	return New(Internal, module, line, "%s", msg)
}
