// Package sql emits PostgreSQL DDL for an emitted-type model: one table
// per record, one table per choice with a nullable column per
// alternative (no discriminant column), child tables for lists, and
// integer columns for enums.
package sql

import (
	"fmt"
	"strings"

	"github.com/asn1go/asn1go/gen"
)

// Generate renders one .sql file per ASN.1 module, keyed by file name.
func Generate(model *gen.Model) (map[string][]byte, error) {
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
		fmt.Fprintf(&b, "-- Generated by asn1rs from %s.\n\n", module)
		for _, i := range byModule[module] {
			emitDef(&b, model, &model.Defs[i])
		}
		files[strings.ToLower(strings.ReplaceAll(module, "-", "_"))+".sql"] = []byte(b.String())
	}
	return files, nil
}

func emitDef(b *strings.Builder, model *gen.Model, def *gen.Def) {
	table := tableName(def.Name)
	t := &def.Type

	switch t.Kind {
	case gen.KindStruct, gen.KindChoice:
		fmt.Fprintf(b, "CREATE TABLE %s (\n", table)
		b.WriteString("    id SERIAL PRIMARY KEY")
		for i := range t.Fields {
			field := &t.Fields[i]
			column, ok := columnType(model, &field.Type)
			if !ok {
				// lists land in a child table below
				continue
			}
			nullable := ""
			if t.Kind == gen.KindChoice || field.Optional || field.InExtension {
				nullable = ""
			} else {
				nullable = " NOT NULL"
			}
			fmt.Fprintf(b, ",\n    %s %s%s", columnName(field.Name), column, nullable)
		}
		b.WriteString("\n);\n\n")

		for i := range t.Fields {
			field := &t.Fields[i]
			if field.Type.Kind == gen.KindList {
				emitListTable(b, model, table, field.Name, field.Type.Elem)
			}
		}

	case gen.KindList:
		emitListTable(b, model, tableName(def.Name), "value", t.Elem)

	default:
		// scalar assignments need no table of their own
	}
}

func emitListTable(b *strings.Builder, model *gen.Model, parent, field string, elem *gen.EmittedType) {
	table := fmt.Sprintf("%s_%s", parent, columnName(field))
	column, ok := columnType(model, elem)
	if !ok {
		column = "INTEGER"
	}
	fmt.Fprintf(b, "CREATE TABLE %s (\n", table)
	fmt.Fprintf(b, "    id SERIAL PRIMARY KEY,\n")
	fmt.Fprintf(b, "    %s_id INTEGER NOT NULL REFERENCES %s(id) ON DELETE CASCADE,\n", parent, parent)
	fmt.Fprintf(b, "    ordinal INTEGER NOT NULL,\n")
	fmt.Fprintf(b, "    value %s NOT NULL\n);\n\n", column)
}

// columnType maps an emitted type to a PostgreSQL column type. Lists
// report false: they become child tables.
func columnType(model *gen.Model, t *gen.EmittedType) (string, bool) {
	switch t.Kind {
	case gen.KindBool, gen.KindNull:
		return "BOOLEAN", true
	case gen.KindUint8, gen.KindInt8, gen.KindInt16:
		return "SMALLINT", true
	case gen.KindUint16, gen.KindInt32:
		return "INTEGER", true
	case gen.KindUint32, gen.KindInt64, gen.KindUint64:
		return "BIGINT", true
	case gen.KindString:
		return "TEXT", true
	case gen.KindBytes, gen.KindBitString:
		return "BYTEA", true
	case gen.KindEnum:
		return "SMALLINT", true
	case gen.KindRef:
		ref := model.Defs[t.Ref]
		return columnType(model, &ref.Type)
	case gen.KindList:
		return "", false
	default:
		return "BYTEA", true
	}
}

func tableName(name string) string {
	return columnName(name)
}

func columnName(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r == '-':
			b.WriteByte('_')
		case r >= 'A' && r <= 'Z':
			if i > 0 && name[i-1] != '-' && !(name[i-1] >= 'A' && name[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
