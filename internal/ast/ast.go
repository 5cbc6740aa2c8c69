// Package ast defines the unresolved model produced by the parser.
//
// Constraint bounds and default values may still be symbolic references
// at this stage; the resolver substitutes them and produces the public
// asn1 model.
package ast

import (
	"github.com/asn1go/asn1go/internal/types"
)

// Ident is a name with its source span.
type Ident struct {
	Name string
	Span types.Span
}

// NewIdent creates a new identifier.
func NewIdent(name string, span types.Span) Ident {
	return Ident{Name: name, Span: span}
}

// TagDefault is the tagging environment of a module.
type TagDefault int

// Tagging environments. Explicit is the X.680 default.
const (
	TagDefaultExplicit TagDefault = iota
	TagDefaultImplicit
	TagDefaultAutomatic
)

// String returns the ASN.1 spelling of the tag default.
func (t TagDefault) String() string {
	switch t {
	case TagDefaultImplicit:
		return "IMPLICIT"
	case TagDefaultAutomatic:
		return "AUTOMATIC"
	default:
		return "EXPLICIT"
	}
}

// Module is a parsed module definition with unresolved references.
type Module struct {
	Name        Ident
	OID         []OidComponent
	TagDefault  TagDefault
	Imports     []ImportClause
	Assignments []Assignment
	Diagnostics []types.SpanDiagnostic
	Span        types.Span
}

// NewModule creates a module with the given name and tagging environment.
func NewModule(name Ident, tagDefault TagDefault, span types.Span) *Module {
	return &Module{Name: name, TagDefault: tagDefault, Span: span}
}

// ImportClause is one `symbols FROM Module` group of an IMPORTS statement.
type ImportClause struct {
	Symbols []Ident
	From    Ident
	FromOID []OidComponent
	Span    types.Span
}

// OidComponent is one arc of an OBJECT IDENTIFIER value: a name,
// a number, or name(number).
type OidComponent struct {
	Name   *Ident
	Number *uint32
	Span   types.Span
}

// Assignment is a top-level module body entry.
type Assignment interface {
	AssignmentName() Ident
	AssignmentSpan() types.Span
	assignment()
}

// TypeAssignment is `Name ::= Type`.
type TypeAssignment struct {
	Name Ident
	Tag  *Tag
	Type TypeSyntax
	// Synthetic marks assignments lifted from inline aggregates.
	Synthetic bool
	Span      types.Span
}

func (a *TypeAssignment) AssignmentName() Ident          { return a.Name }
func (a *TypeAssignment) AssignmentSpan() types.Span     { return a.Span }
func (*TypeAssignment) assignment()                      {}

// ValueAssignment is `name Type ::= value`.
type ValueAssignment struct {
	Name  Ident
	Type  TypeSyntax
	Value Value
	Span  types.Span
}

func (a *ValueAssignment) AssignmentName() Ident      { return a.Name }
func (a *ValueAssignment) AssignmentSpan() types.Span { return a.Span }
func (*ValueAssignment) assignment()                  {}

// OidAssignment is `name OBJECT IDENTIFIER ::= { … }`.
type OidAssignment struct {
	Name       Ident
	Components []OidComponent
	Span       types.Span
}

func (a *OidAssignment) AssignmentName() Ident      { return a.Name }
func (a *OidAssignment) AssignmentSpan() types.Span { return a.Span }
func (*OidAssignment) assignment()                  {}

// TagClass is the class of an ASN.1 tag.
type TagClass int

// Tag classes in canonical order (X.680 8.6).
const (
	TagClassUniversal TagClass = iota
	TagClassApplication
	TagClassContext
	TagClassPrivate
)

// TagMode distinguishes explicit and implicit tagging of a component.
type TagMode int

// Tag modes. Unspecified falls back to the module's tagging environment.
const (
	TagModeUnspecified TagMode = iota
	TagModeExplicit
	TagModeImplicit
)

// Tag is a `[class number]` prefix with an optional EXPLICIT/IMPLICIT mode.
type Tag struct {
	Class  TagClass
	Number uint32
	Mode   TagMode
	Span   types.Span
}

// Value is a parsed value literal or reference.
type Value interface {
	ValueSpan() types.Span
	value()
}

// ValueInteger is an integer literal.
type ValueInteger struct {
	V    int64
	Span types.Span
}

func (v *ValueInteger) ValueSpan() types.Span { return v.Span }
func (*ValueInteger) value()                  {}

// ValueBoolean is TRUE or FALSE.
type ValueBoolean struct {
	V    bool
	Span types.Span
}

func (v *ValueBoolean) ValueSpan() types.Span { return v.Span }
func (*ValueBoolean) value()                  {}

// ValueString is a double-quoted string literal.
type ValueString struct {
	V    string
	Span types.Span
}

func (v *ValueString) ValueSpan() types.Span { return v.Span }
func (*ValueString) value()                  {}

// ValueReference is a reference to a value assignment or an enum variant.
type ValueReference struct {
	Name Ident
}

func (v *ValueReference) ValueSpan() types.Span { return v.Name.Span }
func (*ValueReference) value()                  {}

// ValueOid is an OID value literal `{ … }`.
type ValueOid struct {
	Components []OidComponent
	Span       types.Span
}

func (v *ValueOid) ValueSpan() types.Span { return v.Span }
func (*ValueOid) value()                  {}

// Bound is one end of a range or size constraint: a literal, a MIN/MAX
// sentinel, or a symbolic value reference resolved later.
type Bound struct {
	Kind    BoundKind
	Literal int64
	Ref     Ident
	Span    types.Span
}

// BoundKind discriminates Bound.
type BoundKind int

// Bound kinds.
const (
	BoundLiteral BoundKind = iota
	BoundMin
	BoundMax
	BoundReference
)

// LiteralBound creates a literal bound.
func LiteralBound(v int64, span types.Span) Bound {
	return Bound{Kind: BoundLiteral, Literal: v, Span: span}
}

// Constraint is a range or SIZE constraint with optional extensibility.
// A single-value constraint is represented with Lower == Upper.
type Constraint struct {
	Kind       ConstraintKind
	Lower      Bound
	Upper      Bound
	Extensible bool
	Span       types.Span
}

// ConstraintKind discriminates Constraint.
type ConstraintKind int

// Constraint kinds.
const (
	ConstraintRange ConstraintKind = iota
	ConstraintSize
)

// NamedNumber is a named value of an INTEGER or a named bit of a BIT STRING.
type NamedNumber struct {
	Name  Ident
	Value Bound
	Span  types.Span
}

// EnumVariant is one variant of an ENUMERATED type.
type EnumVariant struct {
	Name   Ident
	Number *int64
	Span   types.Span
}

// Field is a component of a SEQUENCE or SET. A WITH COMPONENTS
// constraint on the field type is consumed during parsing and carries
// no semantics here.
type Field struct {
	Name     Ident
	Tag      *Tag
	Type     TypeSyntax
	Optional bool
	Default  Value
	Span     types.Span
}

// Alternative is a named alternative of a CHOICE.
type Alternative struct {
	Name Ident
	Tag  *Tag
	Type TypeSyntax
	Span types.Span
}

// TypeSyntax represents a type expression.
type TypeSyntax interface {
	SyntaxSpan() types.Span
	typeSyntax()
}

// TypeBoolean is BOOLEAN.
type TypeBoolean struct {
	Span types.Span
}

func (t *TypeBoolean) SyntaxSpan() types.Span { return t.Span }
func (*TypeBoolean) typeSyntax()              {}

// TypeNull is NULL.
type TypeNull struct {
	Span types.Span
}

func (t *TypeNull) SyntaxSpan() types.Span { return t.Span }
func (*TypeNull) typeSyntax()              {}

// TypeInteger is INTEGER with an optional range constraint and named numbers.
type TypeInteger struct {
	Constraint   *Constraint
	NamedNumbers []NamedNumber
	Span         types.Span
}

func (t *TypeInteger) SyntaxSpan() types.Span { return t.Span }
func (*TypeInteger) typeSyntax()              {}

// Charset identifies the alphabet of a restricted character string type.
type Charset int

// Character string alphabets.
const (
	CharsetUTF8 Charset = iota
	CharsetIA5
	CharsetNumeric
	CharsetPrintable
	CharsetVisible
)

// String returns the ASN.1 type name for the charset.
func (c Charset) String() string {
	switch c {
	case CharsetIA5:
		return "IA5String"
	case CharsetNumeric:
		return "NumericString"
	case CharsetPrintable:
		return "PrintableString"
	case CharsetVisible:
		return "VisibleString"
	default:
		return "UTF8String"
	}
}

// TypeString is a restricted character string with an optional SIZE constraint.
type TypeString struct {
	Charset Charset
	Size    *Constraint
	Span    types.Span
}

func (t *TypeString) SyntaxSpan() types.Span { return t.Span }
func (*TypeString) typeSyntax()              {}

// TypeOctetString is OCTET STRING with an optional SIZE constraint.
type TypeOctetString struct {
	Size *Constraint
	Span types.Span
}

func (t *TypeOctetString) SyntaxSpan() types.Span { return t.Span }
func (*TypeOctetString) typeSyntax()              {}

// TypeBitString is BIT STRING with named bits and an optional SIZE constraint.
type TypeBitString struct {
	NamedBits []NamedNumber
	Size      *Constraint
	Span      types.Span
}

func (t *TypeBitString) SyntaxSpan() types.Span { return t.Span }
func (*TypeBitString) typeSyntax()              {}

// TypeEnumerated is ENUMERATED with variants in declaration order.
// ExtensionAfter is the index of the last root variant, or -1 when the
// type is not extensible.
type TypeEnumerated struct {
	Variants       []EnumVariant
	ExtensionAfter int
	Span           types.Span
}

func (t *TypeEnumerated) SyntaxSpan() types.Span { return t.Span }
func (*TypeEnumerated) typeSyntax()              {}

// TypeSequence is SEQUENCE { … } (or SET with IsSet).
// ExtensionAfter is the index of the last root field, or -1.
type TypeSequence struct {
	IsSet          bool
	Fields         []Field
	ExtensionAfter int
	Span           types.Span
}

func (t *TypeSequence) SyntaxSpan() types.Span { return t.Span }
func (*TypeSequence) typeSyntax()              {}

// TypeSequenceOf is SEQUENCE OF / SET OF with an optional SIZE constraint.
type TypeSequenceOf struct {
	IsSet bool
	Size  *Constraint
	Inner TypeSyntax
	Span  types.Span
}

func (t *TypeSequenceOf) SyntaxSpan() types.Span { return t.Span }
func (*TypeSequenceOf) typeSyntax()              {}

// TypeChoice is CHOICE { … }.
// ExtensionAfter is the index of the last root alternative, or -1.
type TypeChoice struct {
	Alternatives   []Alternative
	ExtensionAfter int
	Span           types.Span
}

func (t *TypeChoice) SyntaxSpan() types.Span { return t.Span }
func (*TypeChoice) typeSyntax()              {}

// TypeReference names another type, optionally qualified with a module.
// A subtype constraint written on the reference (`Foo (0..10)`) is kept
// and applied to the referenced type during resolution.
type TypeReference struct {
	Module     *Ident
	Name       Ident
	Constraint *Constraint
}

func (t *TypeReference) SyntaxSpan() types.Span { return t.Name.Span }
func (*TypeReference) typeSyntax()              {}
