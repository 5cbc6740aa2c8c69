package parser

import (
	"strconv"
	"strings"

	"github.com/asn1go/asn1go/internal/ast"
	"github.com/asn1go/asn1go/internal/types"
)

// liftInlineTypes replaces inline aggregate types (SEQUENCE, SET, CHOICE,
// ENUMERATED bodies written directly in field position) with references
// to synthetic top-level assignments. Synthetic names derive from the
// enclosing path; collisions get a numeric suffix.
func liftInlineTypes(module *ast.Module) {
	l := &lifter{module: module, names: make(map[string]bool)}
	for _, a := range module.Assignments {
		l.names[a.AssignmentName().Name] = true
	}

	// walk a snapshot: lifted assignments are appended and are already
	// fully walked when created
	for _, a := range append([]ast.Assignment(nil), module.Assignments...) {
		ta, ok := a.(*ast.TypeAssignment)
		if !ok {
			continue
		}
		ta.Type = l.walk(ta.Type, ta.Name.Name)
	}
}

type lifter struct {
	module *ast.Module
	names  map[string]bool
}

// walk rewrites inline aggregates below ts. The enclosing path seeds
// synthetic names; ts itself is never lifted.
func (l *lifter) walk(ts ast.TypeSyntax, path string) ast.TypeSyntax {
	switch t := ts.(type) {
	case *ast.TypeSequence:
		for i := range t.Fields {
			field := &t.Fields[i]
			field.Type = l.liftIfAggregate(field.Type, path+upperCamel(field.Name.Name))
		}
	case *ast.TypeChoice:
		for i := range t.Alternatives {
			alternative := &t.Alternatives[i]
			alternative.Type = l.liftIfAggregate(alternative.Type, path+upperCamel(alternative.Name.Name))
		}
	case *ast.TypeSequenceOf:
		t.Inner = l.liftIfAggregate(t.Inner, path+"Entry")
	}
	return ts
}

// liftIfAggregate lifts an inline aggregate into a synthetic assignment
// and returns a reference to it; other types are walked in place.
func (l *lifter) liftIfAggregate(ts ast.TypeSyntax, path string) ast.TypeSyntax {
	switch ts.(type) {
	case *ast.TypeSequence, *ast.TypeChoice, *ast.TypeEnumerated:
		l.walk(ts, path)
		name := l.unique(path)
		l.names[name] = true
		ident := ast.NewIdent(name, types.Synthetic)
		l.module.Assignments = append(l.module.Assignments, &ast.TypeAssignment{
			Name:      ident,
			Type:      ts,
			Synthetic: true,
			Span:      ts.SyntaxSpan(),
		})
		return &ast.TypeReference{Name: ident}
	default:
		return l.walk(ts, path)
	}
}

// unique returns name, or name with the smallest numeric suffix that is
// not yet taken.
func (l *lifter) unique(name string) string {
	if !l.names[name] {
		return name
	}
	for i := 1; ; i++ {
		candidate := name + strconv.Itoa(i)
		if !l.names[candidate] {
			return candidate
		}
	}
}

// upperCamel converts an ASN.1 identifier (lowerCamel with hyphens) to
// UpperCamelCase for synthetic type names.
func upperCamel(name string) string {
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
