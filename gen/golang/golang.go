// Package golang emits Go source for an emitted-type model: one struct,
// tagged union or named scalar per definition, each implementing the
// codec.Writable and codec.Readable contracts against the generic
// driver.
package golang

import (
	"fmt"
	"strings"

	"github.com/asn1go/asn1go/asn1"
	"github.com/asn1go/asn1go/gen"
)

// Options configures the generator.
type Options struct {
	// Package is the Go package name of the generated file.
	// Defaults to a lowercased form of the module name.
	Package string
}

// Generate renders one Go source file per ASN.1 module and returns
// them keyed by file name.
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
		g := &generator{model: model, opts: opts, module: module}
		content, err := g.file(byModule[module])
		if err != nil {
			return nil, err
		}
		files[fileName(module)] = content
	}
	return files, nil
}

func fileName(module string) string {
	return strings.ToLower(strings.ReplaceAll(module, "-", "_")) + ".go"
}

type generator struct {
	model  *gen.Model
	opts   Options
	module string
	b      strings.Builder
}

func (g *generator) file(defs []int) ([]byte, error) {
	pkg := g.opts.Package
	if pkg == "" {
		pkg = strings.ToLower(strings.ReplaceAll(g.module, "-", ""))
	}

	fmt.Fprintf(&g.b, "// Code generated by asn1rs from %s. DO NOT EDIT.\n\n", g.module)
	fmt.Fprintf(&g.b, "package %s\n\n", pkg)
	fmt.Fprintf(&g.b, "import (\n\t\"github.com/asn1go/asn1go/codec\"\n)\n\n")

	for _, i := range defs {
		def := &g.model.Defs[i]
		if err := g.definition(def); err != nil {
			return nil, fmt.Errorf("%s: %w", def.Name, err)
		}
	}

	return []byte(g.b.String()), nil
}

// goName converts an ASN.1 identifier to an exported Go name.
func goName(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if r == '-' || r == '_' {
			upper = true
			continue
		}
		if upper {
			b.WriteString(strings.ToUpper(string(r)))
			upper = false
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// goType returns the Go type of a field position. Aggregates never
// appear here: the parser lifts them into their own definitions.
func (g *generator) goType(t *gen.EmittedType) string {
	switch t.Kind {
	case gen.KindBool:
		return "bool"
	case gen.KindNull:
		return "struct{}"
	case gen.KindUint8:
		return "uint8"
	case gen.KindUint16:
		return "uint16"
	case gen.KindUint32:
		return "uint32"
	case gen.KindUint64:
		return "uint64"
	case gen.KindInt8:
		return "int8"
	case gen.KindInt16:
		return "int16"
	case gen.KindInt32:
		return "int32"
	case gen.KindInt64:
		return "int64"
	case gen.KindString:
		return "string"
	case gen.KindBytes:
		return "[]byte"
	case gen.KindBitString:
		return "codec.BitString"
	case gen.KindList:
		return "[]" + g.goType(t.Elem)
	case gen.KindRef:
		return goName(t.RefName)
	default:
		return "struct{}"
	}
}

// boundsExpr renders the codec.Bounds literal of a range constraint.
func boundsExpr(r *asn1.Range) string {
	if r == nil {
		return "codec.Bounds{}"
	}
	var parts []string
	if !r.MinUnbounded {
		parts = append(parts, fmt.Sprintf("Min: codec.Int64(%d)", r.Min))
	}
	if !r.MaxUnbounded {
		parts = append(parts, fmt.Sprintf("Max: codec.Int64(%d)", r.Max))
	}
	if r.Extensible {
		parts = append(parts, "Extensible: true")
	}
	return "codec.Bounds{" + strings.Join(parts, ", ") + "}"
}

// sizeExpr renders the codec.Size literal of a SIZE constraint.
func sizeExpr(r *asn1.Range) string {
	if r == nil {
		return "codec.Size{}"
	}
	var parts []string
	if !r.MinUnbounded {
		parts = append(parts, fmt.Sprintf("Min: codec.Uint64(%d)", r.Min))
	}
	if !r.MaxUnbounded {
		parts = append(parts, fmt.Sprintf("Max: codec.Uint64(%d)", r.Max))
	}
	if r.Extensible {
		parts = append(parts, "Extensible: true")
	}
	return "codec.Size{" + strings.Join(parts, ", ") + "}"
}

func variantsExpr(t *gen.EmittedType, count int) string {
	root := count
	if t.ExtensionAfter >= 0 {
		root = t.ExtensionAfter + 1
	}
	if t.ExtensionAfter >= 0 {
		return fmt.Sprintf("codec.Variants{Root: %d, Extensible: true}", root)
	}
	return fmt.Sprintf("codec.Variants{Root: %d}", root)
}

func (g *generator) definition(def *gen.Def) error {
	name := goName(def.Name)
	t := &def.Type

	for _, constant := range t.Constants {
		fmt.Fprintf(&g.b, "const %s%s = %d\n", name, goName(constant.Name), constant.Value)
	}
	if len(t.Constants) > 0 {
		g.b.WriteString("\n")
	}

	switch t.Kind {
	case gen.KindStruct:
		g.structDef(name, t)
	case gen.KindChoice:
		g.choiceDef(name, t)
	case gen.KindEnum:
		g.enumDef(name, t)
	default:
		g.scalarDef(name, t)
	}
	return nil
}

// scalarDef emits a named scalar, string, bytes, bit string, list or
// alias definition with its codec methods.
func (g *generator) scalarDef(name string, t *gen.EmittedType) {
	switch t.Kind {
	case gen.KindRef:
		// a pure rename; the alias carries the target's methods
		fmt.Fprintf(&g.b, "type %s = %s\n\n", name, goName(t.RefName))
		return

	case gen.KindList:
		elemType := g.goType(t.Elem)
		fmt.Fprintf(&g.b, "type %s []%s\n\n", name, elemType)

		fmt.Fprintf(&g.b, "func (v *%s) Write(w codec.Writer) error {\n", name)
		fmt.Fprintf(&g.b, "\treturn w.WriteSequenceOf(%s, len(*v), func(i int) error {\n", sizeExpr(t.Size))
		g.b.WriteString(indentLines(g.writeValueStmt(t.Elem, "(*v)[i]", "w"), "\t"))
		g.b.WriteString("\t\t\treturn nil\n\t})\n}\n\n")

		fmt.Fprintf(&g.b, "func (v *%s) Read(r codec.Reader) error {\n", name)
		g.b.WriteString("\t*v = nil\n")
		fmt.Fprintf(&g.b, "\t_, err := r.ReadSequenceOf(%s, func(i int) error {\n", sizeExpr(t.Size))
		fmt.Fprintf(&g.b, "\t\t*v = append(*v, *new(%s))\n", elemType)
		g.b.WriteString(indentLines(g.readValueStmt(t.Elem, "(*v)[i]", "r"), "\t"))
		g.b.WriteString("\t\t\treturn nil\n\t})\n\treturn err\n}\n\n")
		return

	case gen.KindNull:
		fmt.Fprintf(&g.b, "type %s struct{}\n\n", name)
		fmt.Fprintf(&g.b, "func (v *%s) Write(w codec.Writer) error {\n\treturn w.WriteNull()\n}\n\n", name)
		fmt.Fprintf(&g.b, "func (v *%s) Read(r codec.Reader) error {\n\treturn r.ReadNull()\n}\n\n", name)
		return
	}

	fmt.Fprintf(&g.b, "type %s %s\n\n", name, g.goType(t))

	fmt.Fprintf(&g.b, "func (v *%s) Write(w codec.Writer) error {\n", name)
	fmt.Fprintf(&g.b, "\treturn %s\n}\n\n", g.writeExpr(t, fmt.Sprintf("%s(*v)", g.goType(t)), "w"))

	fmt.Fprintf(&g.b, "func (v *%s) Read(r codec.Reader) error {\n", name)
	g.b.WriteString(g.readInto(t, "(*v)", name, "r"))
	g.b.WriteString("\treturn nil\n}\n\n")
}

// writeExpr renders the single write call of a non-aggregate type.
// expr is a value expression already converted to the Go base type.
func (g *generator) writeExpr(t *gen.EmittedType, expr, w string) string {
	switch t.Kind {
	case gen.KindBool:
		return fmt.Sprintf("%s.WriteBool(bool(%s))", w, expr)
	case gen.KindNull:
		return fmt.Sprintf("%s.WriteNull()", w)
	case gen.KindString:
		return fmt.Sprintf("%s.%s(%s, string(%s))", w, writeStringMethod(t.Charset), sizeExpr(t.Size), expr)
	case gen.KindBytes:
		return fmt.Sprintf("%s.WriteOctetString(%s, []byte(%s))", w, sizeExpr(t.Size), expr)
	case gen.KindBitString:
		return fmt.Sprintf("%s.WriteBitString(%s, codec.BitString(%s).Bytes, codec.BitString(%s).BitLen)", w, sizeExpr(t.Size), expr, expr)
	default:
		return fmt.Sprintf("%s.WriteInt(%s, int64(%s))", w, boundsExpr(t.Bounds), expr)
	}
}

func writeStringMethod(c asn1.Charset) string {
	switch c {
	case asn1.CharsetIA5:
		return "WriteIA5String"
	case asn1.CharsetNumeric:
		return "WriteNumericString"
	case asn1.CharsetPrintable:
		return "WritePrintableString"
	case asn1.CharsetVisible:
		return "WriteVisibleString"
	default:
		return "WriteUTF8String"
	}
}

func readStringMethod(c asn1.Charset) string {
	switch c {
	case asn1.CharsetIA5:
		return "ReadIA5String"
	case asn1.CharsetNumeric:
		return "ReadNumericString"
	case asn1.CharsetPrintable:
		return "ReadPrintableString"
	case asn1.CharsetVisible:
		return "ReadVisibleString"
	default:
		return "ReadUTF8String"
	}
}

// readInto renders statements decoding into target, which must be an
// addressable expression of the named type.
func (g *generator) readInto(t *gen.EmittedType, target, typeName, r string) string {
	switch t.Kind {
	case gen.KindBool:
		return fmt.Sprintf("\tx, err := %s.ReadBool()\n\tif err != nil {\n\t\treturn err\n\t}\n\t%s = %s(x)\n", r, target, typeName)
	case gen.KindString:
		return fmt.Sprintf("\tx, err := %s.%s(%s)\n\tif err != nil {\n\t\treturn err\n\t}\n\t%s = %s(x)\n", r, readStringMethod(t.Charset), sizeExpr(t.Size), target, typeName)
	case gen.KindBytes:
		return fmt.Sprintf("\tx, err := %s.ReadOctetString(%s)\n\tif err != nil {\n\t\treturn err\n\t}\n\t%s = %s(x)\n", r, sizeExpr(t.Size), target, typeName)
	case gen.KindBitString:
		return fmt.Sprintf("\tbits, n, err := %s.ReadBitString(%s)\n\tif err != nil {\n\t\treturn err\n\t}\n\t%s = %s(codec.BitString{Bytes: bits, BitLen: n})\n", r, sizeExpr(t.Size), target, typeName)
	default:
		return fmt.Sprintf("\tx, err := %s.ReadInt(%s)\n\tif err != nil {\n\t\treturn err\n\t}\n\t%s = %s(x)\n", r, boundsExpr(t.Bounds), target, typeName)
	}
}

func (g *generator) enumDef(name string, t *gen.EmittedType) {
	fmt.Fprintf(&g.b, "type %s int64\n\n", name)
	g.b.WriteString("const (\n")
	for i, variant := range t.Variants {
		fmt.Fprintf(&g.b, "\t%s%s %s = %d\n", name, goName(variant), name, i)
	}
	g.b.WriteString(")\n\n")

	variants := variantsExpr(t, len(t.Variants))
	fmt.Fprintf(&g.b, "func (v *%s) Write(w codec.Writer) error {\n", name)
	fmt.Fprintf(&g.b, "\treturn w.WriteEnumIndex(%s, uint64(*v))\n}\n\n", variants)

	fmt.Fprintf(&g.b, "func (v *%s) Read(r codec.Reader) error {\n", name)
	fmt.Fprintf(&g.b, "\tindex, err := r.ReadEnumIndex(%s)\n", variants)
	fmt.Fprintf(&g.b, "\tif err != nil {\n\t\treturn err\n\t}\n\t*v = %s(index)\n\treturn nil\n}\n\n", name)
}

func (g *generator) structDef(name string, t *gen.EmittedType) {
	optionalFields := 0
	var root, ext []*gen.Field
	for i := range t.Fields {
		field := &t.Fields[i]
		if field.InExtension {
			ext = append(ext, field)
		} else {
			root = append(root, field)
			if field.Optional || field.Default != nil {
				optionalFields++
			}
		}
	}

	fmt.Fprintf(&g.b, "type %s struct {\n", name)
	for i := range t.Fields {
		field := &t.Fields[i]
		goType := g.goType(&field.Type)
		if field.Optional || field.InExtension {
			goType = "*" + goType
		}
		fmt.Fprintf(&g.b, "\t%s %s\n", goName(field.Name), goType)
	}
	g.b.WriteString("}\n\n")

	for i := range t.Fields {
		field := &t.Fields[i]
		if field.Default != nil {
			fmt.Fprintf(&g.b, "const %s%sDefault = %s\n\n", name, goName(field.Name), defaultLiteral(field))
		}
	}

	seq := fmt.Sprintf("codec.Sequence{OptionalFields: %d}", optionalFields)
	if t.ExtensionAfter >= 0 {
		seq = fmt.Sprintf("codec.Sequence{OptionalFields: %d, Extensible: true}", optionalFields)
	}

	// Write
	fmt.Fprintf(&g.b, "func (v *%s) Write(w codec.Writer) error {\n", name)
	fmt.Fprintf(&g.b, "\treturn w.WriteSequence(%s, func() error {\n", seq)
	for _, field := range root {
		g.writeField(name, field)
	}
	g.b.WriteString("\t\treturn nil\n\t}")
	for _, field := range ext {
		fieldName := goName(field.Name)
		fmt.Fprintf(&g.b, ", codec.ExtensionField{\n\t\tPresent: v.%s != nil,\n\t\tValue: func() error {\n", fieldName)
		g.b.WriteString(indentLines(g.writeValueStmt(&field.Type, "(*v."+fieldName+")", "w"), "\t"))
		g.b.WriteString("\t\t\treturn nil\n\t\t},\n\t}")
	}
	g.b.WriteString(")\n}\n\n")

	// Read
	fmt.Fprintf(&g.b, "func (v *%s) Read(r codec.Reader) error {\n", name)
	fmt.Fprintf(&g.b, "\t_, err := r.ReadSequence(%s, func() error {\n", seq)
	for _, field := range root {
		g.readField(name, field)
	}
	g.b.WriteString("\t\treturn nil\n\t}")
	for _, field := range ext {
		fieldName := goName(field.Name)
		fmt.Fprintf(&g.b, ", codec.ExtensionSlot{\n\t\tRead: func() error {\n")
		fmt.Fprintf(&g.b, "\t\t\tv.%s = new(%s)\n", fieldName, g.goType(&field.Type))
		g.b.WriteString(indentLines(g.readValueStmt(&field.Type, "(*v."+fieldName+")", "r"), "\t"))
		g.b.WriteString("\t\t\treturn nil\n\t\t},\n\t}")
	}
	g.b.WriteString(")\n\treturn err\n}\n\n")
}

func defaultLiteral(field *gen.Field) string {
	switch field.Default.Kind {
	case asn1.ValueBoolean:
		if field.Default.Bool {
			return "true"
		}
		return "false"
	case asn1.ValueString:
		return fmt.Sprintf("%q", field.Default.Str)
	default:
		return fmt.Sprintf("%d", field.Default.Int)
	}
}

// writeField renders the encoding of one root field inside the
// sequence closure.
func (g *generator) writeField(typeName string, field *gen.Field) {
	fieldName := goName(field.Name)

	switch {
	case field.Optional:
		fmt.Fprintf(&g.b, "\t\tif err := w.WriteOpt(v.%s != nil, func() error {\n", fieldName)
		g.b.WriteString(indentLines(g.writeValueStmt(&field.Type, "(*v."+fieldName+")", "w"), "\t"))
		g.b.WriteString("\t\t\treturn nil\n\t\t}); err != nil {\n\t\t\treturn err\n\t\t}\n")

	case field.Default != nil:
		fmt.Fprintf(&g.b, "\t\tif err := w.WriteOpt(v.%s != %s%sDefault, func() error {\n", fieldName, typeName, fieldName)
		g.b.WriteString(indentLines(g.writeValueStmt(&field.Type, "v."+fieldName, "w"), "\t"))
		g.b.WriteString("\t\t\treturn nil\n\t\t}); err != nil {\n\t\t\treturn err\n\t\t}\n")

	default:
		g.b.WriteString(g.writeValueStmt(&field.Type, "v."+fieldName, "w"))
	}
}

// writeValueStmt renders `if err := <write>; err != nil { return err }`
// style statements (or a method call for references and lists) at
// sequence-closure indentation. No trailing return is emitted; callers
// in closure positions append their own `return nil`.
func (g *generator) writeValueStmt(t *gen.EmittedType, expr, w string) string {
	switch t.Kind {
	case gen.KindRef:
		return fmt.Sprintf("\t\tif err := %s.Write(%s); err != nil {\n\t\t\treturn err\n\t\t}\n", expr, w)
	case gen.KindList:
		size := sizeExpr(t.Size)
		inner := g.writeValueStmt(t.Elem, expr+"[i]", w)
		return fmt.Sprintf("\t\tif err := %s.WriteSequenceOf(%s, len(%s), func(i int) error {\n%s\t\t\treturn nil\n\t\t}); err != nil {\n\t\t\treturn err\n\t\t}\n",
			w, size, expr, indentLines(inner, "\t"))
	default:
		return fmt.Sprintf("\t\tif err := %s; err != nil {\n\t\t\treturn err\n\t\t}\n", g.writeExpr(t, expr, w))
	}
}

func (g *generator) readField(typeName string, field *gen.Field) {
	fieldName := goName(field.Name)

	switch {
	case field.Optional:
		fmt.Fprintf(&g.b, "\t\tif _, err := r.ReadOpt(func() error {\n")
		fmt.Fprintf(&g.b, "\t\t\tv.%s = new(%s)\n", fieldName, g.goType(&field.Type))
		g.b.WriteString(indentLines(g.readValueStmt(&field.Type, "(*v."+fieldName+")", "r"), "\t"))
		g.b.WriteString("\t\t\treturn nil\n\t\t}); err != nil {\n\t\t\treturn err\n\t\t}\n")

	case field.Default != nil:
		fmt.Fprintf(&g.b, "\t\tif present, err := r.ReadOpt(func() error {\n")
		g.b.WriteString(indentLines(g.readValueStmt(&field.Type, "v."+fieldName, "r"), "\t"))
		fmt.Fprintf(&g.b, "\t\t\treturn nil\n\t\t}); err != nil {\n\t\t\treturn err\n\t\t} else if !present {\n\t\t\tv.%s = %s%sDefault\n\t\t}\n", fieldName, typeName, fieldName)

	default:
		g.b.WriteString(g.readValueStmt(&field.Type, "v."+fieldName, "r"))
	}
}

// readValueStmt renders decoding statements into an addressable
// expression, at sequence-closure indentation. No trailing return is
// emitted; callers in closure positions append their own `return nil`.
func (g *generator) readValueStmt(t *gen.EmittedType, target, r string) string {
	switch t.Kind {
	case gen.KindRef:
		return fmt.Sprintf("\t\tif err := %s.Read(%s); err != nil {\n\t\t\treturn err\n\t\t}\n", target, r)
	case gen.KindList:
		size := sizeExpr(t.Size)
		elemType := g.goType(t.Elem)
		inner := g.readValueStmt(t.Elem, target+"[i]", r)
		return fmt.Sprintf("\t\tif _, err := %s.ReadSequenceOf(%s, func(i int) error {\n\t\t\t%s = append(%s, *new(%s))\n%s\t\t\treturn nil\n\t\t}); err != nil {\n\t\t\treturn err\n\t\t}\n",
			r, size, target, target, elemType, indentLines(inner, "\t"))
	case gen.KindBool:
		return fmt.Sprintf("\t\tif x, err := %s.ReadBool(); err != nil {\n\t\t\treturn err\n\t\t} else {\n\t\t\t%s = x\n\t\t}\n", r, target)
	case gen.KindString:
		return fmt.Sprintf("\t\tif x, err := %s.%s(%s); err != nil {\n\t\t\treturn err\n\t\t} else {\n\t\t\t%s = x\n\t\t}\n", r, readStringMethod(t.Charset), sizeExpr(t.Size), target)
	case gen.KindBytes:
		return fmt.Sprintf("\t\tif x, err := %s.ReadOctetString(%s); err != nil {\n\t\t\treturn err\n\t\t} else {\n\t\t\t%s = x\n\t\t}\n", r, sizeExpr(t.Size), target)
	case gen.KindBitString:
		return fmt.Sprintf("\t\tif bits, n, err := %s.ReadBitString(%s); err != nil {\n\t\t\treturn err\n\t\t} else {\n\t\t\t%s = codec.BitString{Bytes: bits, BitLen: n}\n\t\t}\n", r, sizeExpr(t.Size), target)
	default:
		goType := g.goType(t)
		return fmt.Sprintf("\t\tif x, err := %s.ReadInt(%s); err != nil {\n\t\t\treturn err\n\t\t} else {\n\t\t\t%s = %s(x)\n\t\t}\n", r, boundsExpr(t.Bounds), target, goType)
	}
}

func (g *generator) choiceDef(name string, t *gen.EmittedType) {
	fmt.Fprintf(&g.b, "type %s struct {\n", name)
	for i := range t.Fields {
		field := &t.Fields[i]
		fmt.Fprintf(&g.b, "\t%s *%s\n", goName(field.Name), g.goType(&field.Type))
	}
	g.b.WriteString("}\n\n")

	variants := variantsExpr(t, len(t.Fields))

	fmt.Fprintf(&g.b, "func (v *%s) Write(w codec.Writer) error {\n", name)
	g.b.WriteString("\tswitch {\n")
	for i := range t.Fields {
		field := &t.Fields[i]
		fieldName := goName(field.Name)
		fmt.Fprintf(&g.b, "\tcase v.%s != nil:\n", fieldName)
		fmt.Fprintf(&g.b, "\t\treturn w.WriteChoice(%s, %d, func() error {\n", variants, i)
		g.b.WriteString(indentLines(g.writeValueStmt(&field.Type, "(*v."+fieldName+")", "w"), "\t"))
		g.b.WriteString("\t\t\treturn nil\n\t\t})\n")
	}
	g.b.WriteString("\t}\n")
	fmt.Fprintf(&g.b, "\treturn &codec.InvalidIndexError{Index: %d, Variants: %d}\n}\n\n", len(t.Fields), len(t.Fields))

	fmt.Fprintf(&g.b, "func (v *%s) Read(r codec.Reader) error {\n", name)
	fmt.Fprintf(&g.b, "\treturn r.ReadChoice(%s, func(index uint64) error {\n", variants)
	g.b.WriteString("\t\tswitch index {\n")
	for i := range t.Fields {
		field := &t.Fields[i]
		fieldName := goName(field.Name)
		fmt.Fprintf(&g.b, "\t\tcase %d:\n", i)
		fmt.Fprintf(&g.b, "\t\t\tv.%s = new(%s)\n", fieldName, g.goType(&field.Type))
		g.b.WriteString(indentLines(g.readValueStmt(&field.Type, "(*v."+fieldName+")", "r"), "\t"))
		g.b.WriteString("\t\t\treturn nil\n")
	}
	g.b.WriteString("\t\t}\n\t\t// an unknown extension alternative: content already consumed\n\t\treturn nil\n\t})\n}\n\n")
}

// indentLines prefixes every non-empty line with the given indent.
func indentLines(s, indent string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}
