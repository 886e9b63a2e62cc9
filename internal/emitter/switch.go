package emitter

import (
	"fmt"
	"strings"

	"github.com/GullianLanguage/Gullian/internal/ast"
	"github.com/GullianLanguage/Gullian/internal/checker"
)

// emitSwitchStatement lowers sw into a real C switch, per spec.md §4.5:
// each arm assigns its value through assign before breaking, and the `_`
// arm becomes C's `default`. Callers in statement.go supply assign to wire
// the result into a let/assignment/return; a bare switch statement discards
// it. This only runs at statement position -- a switch nested inside a
// larger expression is rejected by emitExpr, matching the spec's wording
// that only "the enclosing statement" gets lifted to declare a result slot.
func emitSwitchStatement(out *strings.Builder, c *checker.Checker, sw *ast.Switch, depth int, assign func(valueText string) string) error {
	targetText, err := emitExpr(c, sw.Target)
	if err != nil {
		return err
	}
	indent(out, depth)
	fmt.Fprintf(out, "switch (%s) {\n", targetText)

	for _, cs := range sw.Cases {
		valText, err := emitExpr(c, cs.Value)
		if err != nil {
			return err
		}
		if cs.Pattern == nil {
			indent(out, depth)
			out.WriteString("default:\n")
		} else {
			patText, err := emitExpr(c, cs.Pattern)
			if err != nil {
				return err
			}
			indent(out, depth)
			fmt.Fprintf(out, "case %s:\n", patText)
		}
		indent(out, depth+1)
		out.WriteString(assign(valText) + "\n")
		indent(out, depth+1)
		out.WriteString("break;\n")
	}

	indent(out, depth)
	out.WriteString("}\n")
	return nil
}
