package asn1

import (
	"fmt"
	"strings"
)

// Format renders the resolved module back to ASN.1 source text.
//
// The output is canonical rather than faithful to the input: constraints
// are concrete integers, synthetic definitions appear as top-level
// assignments, and SET components are in canonical tag order. Formatting
// then re-compiling a module yields the same resolved model.
func Format(m *Module) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s DEFINITIONS", m.Name)
	if m.TagDefault != TagDefaultExplicit {
		fmt.Fprintf(&b, " %s TAGS", m.TagDefault)
	}
	b.WriteString(" ::= BEGIN\n\n")

	if len(m.Imports) > 0 {
		b.WriteString("IMPORTS\n")
		for _, imp := range m.Imports {
			fmt.Fprintf(&b, "    %s FROM %s\n", strings.Join(imp.Symbols, ", "), imp.From)
		}
		b.WriteString("    ;\n\n")
	}

	for _, def := range m.Definitions {
		formatDefinition(&b, def)
		b.WriteString("\n")
	}

	b.WriteString("END\n")
	return b.String()
}

func formatDefinition(b *strings.Builder, def *Definition) {
	switch def.Kind {
	case DefinitionOid:
		fmt.Fprintf(b, "%s OBJECT IDENTIFIER ::= {", def.Name)
		for _, arc := range def.OID {
			fmt.Fprintf(b, " %d", arc)
		}
		b.WriteString(" }\n")

	case DefinitionValue:
		fmt.Fprintf(b, "%s %s ::= %s\n", def.Name, typeName(def.Type), formatValue(def.Value))

	default:
		fmt.Fprintf(b, "%s ::= ", def.Name)
		formatType(b, def.Type, 0)
		b.WriteString("\n")
	}
}

func formatValue(v *Value) string {
	switch v.Kind {
	case ValueBoolean:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	case ValueString:
		return fmt.Sprintf("%q", v.Str)
	case ValueEnumVariant:
		return v.Name
	case ValueOID:
		var b strings.Builder
		b.WriteString("{")
		for _, arc := range v.OID {
			fmt.Fprintf(&b, " %d", arc)
		}
		b.WriteString(" }")
		return b.String()
	default:
		return fmt.Sprintf("%d", v.Int)
	}
}

// typeName returns the one-token spelling of a type for positions where
// an aggregate body cannot appear (value assignments).
func typeName(t *Type) string {
	switch t.Kind {
	case KindBoolean:
		return "BOOLEAN"
	case KindNull:
		return "NULL"
	case KindInteger:
		return "INTEGER"
	case KindString:
		return t.Charset.String()
	case KindOctetString:
		return "OCTET STRING"
	case KindBitString:
		return "BIT STRING"
	case KindReference:
		return t.RefName
	default:
		return "INTEGER"
	}
}

func formatType(b *strings.Builder, t *Type, depth int) {
	indent := strings.Repeat("    ", depth+1)
	closing := strings.Repeat("    ", depth)

	switch t.Kind {
	case KindBoolean:
		b.WriteString("BOOLEAN")
	case KindNull:
		b.WriteString("NULL")

	case KindInteger:
		b.WriteString("INTEGER")
		formatRange(b, t.Range)

	case KindString:
		b.WriteString(t.Charset.String())
		formatSize(b, t.Size)

	case KindOctetString:
		b.WriteString("OCTET STRING")
		formatSize(b, t.Size)

	case KindBitString:
		b.WriteString("BIT STRING")
		if len(t.NamedValues) > 0 {
			b.WriteString(" {")
			for i, nv := range t.NamedValues {
				if i > 0 {
					b.WriteString(",")
				}
				fmt.Fprintf(b, " %s(%d)", nv.Name, nv.Value)
			}
			b.WriteString(" }")
		}
		formatSize(b, t.Size)

	case KindEnumerated:
		b.WriteString("ENUMERATED {")
		for i, v := range t.Variants {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(b, " %s", v.Name)
			if t.ExtensionAfter == i && i < len(t.Variants)-1 {
				b.WriteString(", ...")
			}
		}
		if t.ExtensionAfter == len(t.Variants)-1 {
			b.WriteString(", ...")
		}
		b.WriteString(" }")

	case KindSequence, KindSet:
		if t.Kind == KindSet {
			b.WriteString("SET {\n")
		} else {
			b.WriteString("SEQUENCE {\n")
		}
		for i, f := range t.Fields {
			fmt.Fprintf(b, "%s%s ", indent, f.Name)
			formatType(b, f.Type, depth+1)
			if f.Optional {
				b.WriteString(" OPTIONAL")
			} else if f.Default != nil {
				fmt.Fprintf(b, " DEFAULT %s", formatValue(f.Default))
			}
			if i < len(t.Fields)-1 || t.ExtensionAfter == i {
				b.WriteString(",")
			}
			b.WriteString("\n")
			if t.ExtensionAfter == i {
				fmt.Fprintf(b, "%s...", indent)
				if i < len(t.Fields)-1 {
					b.WriteString(",")
				}
				b.WriteString("\n")
			}
		}
		if t.ExtensionAfter >= 0 && len(t.Fields) == 0 {
			fmt.Fprintf(b, "%s...\n", indent)
		}
		fmt.Fprintf(b, "%s}", closing)

	case KindSequenceOf, KindSetOf:
		if t.Kind == KindSetOf {
			b.WriteString("SET")
		} else {
			b.WriteString("SEQUENCE")
		}
		formatSize(b, t.Size)
		b.WriteString(" OF ")
		formatType(b, t.Inner, depth)

	case KindChoice:
		b.WriteString("CHOICE {\n")
		for i, f := range t.Fields {
			fmt.Fprintf(b, "%s%s ", indent, f.Name)
			formatType(b, f.Type, depth+1)
			if i < len(t.Fields)-1 || t.ExtensionAfter == i {
				b.WriteString(",")
			}
			b.WriteString("\n")
			if t.ExtensionAfter == i {
				fmt.Fprintf(b, "%s...", indent)
				if i < len(t.Fields)-1 {
					b.WriteString(",")
				}
				b.WriteString("\n")
			}
		}
		fmt.Fprintf(b, "%s}", closing)

	case KindReference:
		b.WriteString(t.RefName)
	}
}

func formatRange(b *strings.Builder, r *Range) {
	if r == nil {
		return
	}
	b.WriteString("(")
	if r.MinUnbounded {
		b.WriteString("MIN")
	} else {
		fmt.Fprintf(b, "%d", r.Min)
	}
	b.WriteString("..")
	if r.MaxUnbounded {
		b.WriteString("MAX")
	} else {
		fmt.Fprintf(b, "%d", r.Max)
	}
	if r.Extensible {
		b.WriteString(", ...")
	}
	b.WriteString(")")
}

func formatSize(b *strings.Builder, r *Range) {
	if r == nil {
		return
	}
	b.WriteString(" (SIZE (")
	fmt.Fprintf(b, "%d..", r.Lower())
	if r.MaxUnbounded {
		b.WriteString("MAX")
	} else {
		fmt.Fprintf(b, "%d", r.Max)
	}
	if r.Extensible {
		b.WriteString(", ...")
	}
	b.WriteString("))")
}
