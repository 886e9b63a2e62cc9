package emitter

import (
	"fmt"
	"strings"

	"github.com/GullianLanguage/Gullian/internal/gmodule"
	"github.com/GullianLanguage/Gullian/internal/types"
)

// emitTypeDecl prints t's C definition per spec.md §4.5: a struct emits as
// `struct NAME { …; };`; a union emits a companion tag enum plus
// `struct NAME { int tag; union { …; }; };`; an enum emits as
// `typedef enum { NAME__v0, … } NAME;`. A field whose type fails to resolve
// aborts emission rather than being silently dropped from the struct.
func (e *Emitter) emitTypeDecl(out *strings.Builder, m *gmodule.Module, t *types.Type) error {
	if e.emittedTypes == nil {
		e.emittedTypes = make(map[uint64]bool)
	}
	if e.emittedTypes[t.Uid] {
		return nil
	}
	e.emittedTypes[t.Uid] = true

	name := mangleType(t)

	switch {
	case t.IsEnum():
		variants := t.Variants()
		parts := make([]string, len(variants))
		for i, v := range variants {
			parts[i] = name + "__" + v.Value
		}
		fmt.Fprintf(out, "typedef enum { %s } %s;\n\n", strings.Join(parts, ", "), name)

	case t.IsUnion():
		fields := t.Fields()
		tagParts := make([]string, len(fields))
		for i, f := range fields {
			tagParts[i] = name + "__" + f.Name.Value
		}
		fmt.Fprintf(out, "enum %s_FIELDS { %s };\n", name, strings.Join(tagParts, ", "))
		fmt.Fprintf(out, "struct %s {\n\tint tag;\n\tunion {\n", name)
		for _, f := range fields {
			ft, err := m.ImportType(f.TypeHint)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\t\t%s %s;\n", typeRefText(ft), f.Name.Value)
		}
		out.WriteString("\t};\n};\n\n")

	case t.IsStruct():
		fmt.Fprintf(out, "struct %s {\n", name)
		for _, f := range t.Fields() {
			ft, err := m.ImportType(f.TypeHint)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\t%s %s;\n", typeRefText(ft), f.Name.Value)
		}
		out.WriteString("};\n\n")
	}
	return nil
}
