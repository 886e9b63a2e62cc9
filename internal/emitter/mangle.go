package emitter

import (
	"fmt"
	"strings"

	"github.com/GullianLanguage/Gullian/internal/ast"
	"github.com/GullianLanguage/Gullian/internal/token"
	"github.com/GullianLanguage/Gullian/internal/types"
)

// mangleNode implements spec.md §4.5's Name/Subscript/Attribute mangling
// rule for a qualified-identifier AST node: Name -> its identifier,
// Subscript(H,items) -> "S_H_i1_i2_…", Attribute(L,R) -> "A_L_R".
func mangleNode(n ast.Node) string {
	switch v := n.(type) {
	case token.Name:
		return v.Value
	case *ast.Subscript:
		parts := make([]string, len(v.Items))
		for i, it := range v.Items {
			parts[i] = mangleNode(it)
		}
		return "S_" + mangleNode(v.Head) + "_" + strings.Join(parts, "_")
	case *ast.Attribute:
		return "A_" + mangleNode(v.Left) + "_" + mangleNode(v.Right)
	default:
		return n.Format()
	}
}

// mangleType names a Type for C emission (spec.md §4.5): a plain
// user/primitive Type keeps its declared identifier; a Type whose name is a
// Subscript or Attribute (a generic specialization, possibly cross-module)
// is prefixed with its uid so distinct specializations never collide even
// if two modules happen to produce the same textual name. A ptr[T]
// specialization is the inner type's C spelling with a trailing `*`.
func mangleType(t *types.Type) string {
	if t == nil {
		return "void"
	}
	if t.PointsTo != nil {
		return typeRefText(t.PointsTo) + "*"
	}
	switch name := t.Name.(type) {
	case *ast.Subscript:
		return fmt.Sprintf("I_%d_S_%s", t.Uid, mangleNode(name.Head)+"_"+joinItems(name.Items))
	case *ast.Attribute:
		return fmt.Sprintf("I_%d_A_%s_%s", t.Uid, mangleNode(name.Left), mangleNode(name.Right))
	default:
		return name.Format()
	}
}

func joinItems(items []ast.Node) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = mangleNode(it)
	}
	return strings.Join(parts, "_")
}

// typeRefText is the C text used wherever t is referenced as a value's
// type (a field, an argument, a return hint, a local declaration):
// mangleType's identifier, with `struct ` prefixed for aggregate
// (struct/union) references per spec.md §4.5's closing note.
func typeRefText(t *types.Type) string {
	if t == nil {
		return "void"
	}
	base := mangleType(t)
	if t.PointsTo != nil {
		return base // already carries its own trailing '*'
	}
	if t.IsStruct() || t.IsUnion() {
		return "struct " + base
	}
	return base
}

// mangleFuncName turns a FunctionHead.Name.Value into a C identifier.
// Associated names arrive already dot-folded by the parser ("Owner.method");
// a monomorphized specialization's Name.Value is the fully-applied
// Subscript spelling produced by (&ast.Subscript{...}).Format()
// ("id[int]", "Owner.method[int]"). Every '.' becomes '_' ("Owner_method",
// not mangleNode's "A_Owner_method"); the bracketed part follows
// mangleNode's Subscript rule, each item mangled in turn, so
// "id[Box[int]]" becomes "S_id_S_Box_int". `main` is never mangled,
// matching the C entry point.
func mangleFuncName(raw string) string {
	if raw == "main" {
		return raw
	}
	raw = strings.ReplaceAll(raw, ".", "_")
	if idx := strings.Index(raw, "["); idx >= 0 && strings.HasSuffix(raw, "]") {
		head := raw[:idx]
		inner := raw[idx+1 : len(raw)-1]
		var items []string
		for _, part := range strings.Split(inner, ",") {
			if n := len(items); n > 0 && strings.Count(items[n-1], "[") > strings.Count(items[n-1], "]") {
				items[n-1] += "," + part
				continue
			}
			items = append(items, part)
		}
		for i, it := range items {
			items[i] = mangleFuncName(strings.TrimSpace(it))
		}
		return "S_" + head + "_" + strings.Join(items, "_")
	}
	return raw
}
