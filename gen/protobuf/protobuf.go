// Package protobuf emits proto3 definitions for an emitted-type model,
// treating Protobuf as one more lowering target over the same
// projection the Go backend consumes.
package protobuf

import (
	"fmt"
	"strings"

	"github.com/asn1go/asn1go/gen"
)

// Options configures the generator.
type Options struct {
	// Package is the proto package name. Defaults to a lowercased form
	// of the module name.
	Package string
}

// Generate renders one .proto file per ASN.1 module, keyed by file name.
func Generate(model *gen.Model, opts Options) (map[string][]byte, error) {
	byModule := make(map[string][]int)
	var moduleOrder []string
	for i, def := range model.Defs {
		if _, seen := byModule[def.Module]; !seen {
			moduleOrder = append(moduleOrder, def.Module)
		}
		byModule[def.Module] = append(byModule[def.Module], i)
	}

	files := make(map[string][]byte, len(moduleOrder))
	for _, module := range moduleOrder {
		var b strings.Builder
		pkg := opts.Package
		if pkg == "" {
			pkg = strings.ToLower(strings.ReplaceAll(module, "-", "."))
		}
		b.WriteString("syntax = \"proto3\";\n\n")
		fmt.Fprintf(&b, "package %s;\n\n", pkg)

		for _, i := range byModule[module] {
			def := &model.Defs[i]
			emitDef(&b, model, def)
		}
		files[strings.ToLower(strings.ReplaceAll(module, "-", "_"))+".proto"] = []byte(b.String())
	}
	return files, nil
}

func emitDef(b *strings.Builder, model *gen.Model, def *gen.Def) {
	name := messageName(def.Name)
	t := &def.Type

	switch t.Kind {
	case gen.KindEnum:
		fmt.Fprintf(b, "enum %s {\n", name)
		for i, variant := range t.Variants {
			fmt.Fprintf(b, "    %s = %d;\n", enumVariantName(def.Name, variant), i)
		}
		b.WriteString("}\n\n")

	case gen.KindStruct:
		fmt.Fprintf(b, "message %s {\n", name)
		for i := range t.Fields {
			field := &t.Fields[i]
			label := ""
			if field.Optional || field.InExtension {
				label = "optional "
			}
			scalar, repeated := scalarType(model, &field.Type)
			if repeated {
				label = "repeated "
			}
			fmt.Fprintf(b, "    %s%s %s = %d;\n", label, scalar, fieldName(field.Name), i+1)
		}
		b.WriteString("}\n\n")

	case gen.KindChoice:
		fmt.Fprintf(b, "message %s {\n", name)
		fmt.Fprintf(b, "    oneof value {\n")
		for i := range t.Fields {
			field := &t.Fields[i]
			scalar, _ := scalarType(model, &field.Type)
			fmt.Fprintf(b, "        %s %s = %d;\n", scalar, fieldName(field.Name), i+1)
		}
		b.WriteString("    }\n}\n\n")

	default:
		// scalar assignments become single-field wrapper messages
		scalar, repeated := scalarType(model, t)
		label := ""
		if repeated {
			label = "repeated "
		}
		fmt.Fprintf(b, "message %s {\n    %s%s value = 1;\n}\n\n", name, label, scalar)
	}
}

// scalarType maps an emitted type to a proto3 type, reporting whether
// the field is repeated.
func scalarType(model *gen.Model, t *gen.EmittedType) (string, bool) {
	switch t.Kind {
	case gen.KindBool:
		return "bool", false
	case gen.KindNull:
		return "bool", false
	case gen.KindUint8, gen.KindUint16, gen.KindUint32:
		return "uint32", false
	case gen.KindUint64:
		return "uint64", false
	case gen.KindInt8, gen.KindInt16, gen.KindInt32:
		return "int32", false
	case gen.KindInt64:
		return "int64", false
	case gen.KindString:
		return "string", false
	case gen.KindBytes, gen.KindBitString:
		return "bytes", false
	case gen.KindList:
		inner, _ := scalarType(model, t.Elem)
		return inner, true
	case gen.KindRef:
		return messageName(t.RefName), false
	default:
		return "bytes", false
	}
}

func messageName(name string) string {
	return strings.ReplaceAll(name, "-", "")
}

func fieldName(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r == '-':
			b.WriteByte('_')
		case r >= 'A' && r <= 'Z':
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SCREAMING_SNAKE_CASE with the enum name as prefix, proto3 style.
func enumVariantName(enum, variant string) string {
	return strings.ToUpper(fieldName(enum)) + "_" + strings.ToUpper(fieldName(variant))
}
