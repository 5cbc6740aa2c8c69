// Package gen projects the resolved ASN.1 model into the emitted-type
// form consumed by the code generation backends.
//
// The projection is target-language agnostic: integers collapse into
// the smallest covering bucket, aggregates become records and tagged
// variants, strings become owned character or byte sequences. Emitted
// definitions live in an arena and reference each other by index, so
// cyclic schemas stay finite; backends break cycles by indirection on
// the referencing field.
package gen

import (
	"fmt"

	"github.com/asn1go/asn1go/asn1"
)

// Kind discriminates EmittedType.
type Kind int

// Emitted type kinds.
const (
	KindBool Kind = iota
	KindNull
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindString
	KindBytes
	KindBitString
	KindEnum
	KindStruct
	KindChoice
	KindList
	KindRef
)

// Unsigned reports whether the kind is an unsigned integer bucket.
func (k Kind) Unsigned() bool {
	return k >= KindUint8 && k <= KindUint64
}

// Integer reports whether the kind is an integer bucket.
func (k Kind) Integer() bool {
	return k >= KindUint8 && k <= KindInt64
}

// Constant is a named integer emitted alongside a type: an INTEGER
// named number or a BIT STRING named bit position.
type Constant struct {
	Name  string
	Value int64
}

// Field is a component of an emitted record or tagged union.
type Field struct {
	Name        string
	Type        EmittedType
	Optional    bool
	Default     *asn1.Value
	InExtension bool
}

// EmittedType is the projection of one resolved type.
type EmittedType struct {
	Kind    Kind
	Charset asn1.Charset

	// Bounds and Size carry the declared constraints through to the
	// codec calls of the generated encoders.
	Bounds *asn1.Range
	Size   *asn1.Range

	// Variants of an enum, in declaration order.
	Variants []string

	// Fields of a struct or tagged union.
	Fields []Field

	// Elem is the element type of a list.
	Elem *EmittedType

	// ExtensionAfter mirrors the resolved model; -1 when not extensible.
	ExtensionAfter int

	// Ref indexes the arena for KindRef.
	Ref     int
	RefName string

	// Constants emitted alongside the type.
	Constants []Constant
}

// Def is one emitted definition.
type Def struct {
	Name   string
	Module string
	Type   EmittedType
}

// Model is the arena of emitted definitions.
type Model struct {
	Defs []Def

	index map[string]int
}

// Lookup returns the arena index of a definition by name, or -1.
func (m *Model) Lookup(name string) int {
	if i, ok := m.index[name]; ok {
		return i
	}
	return -1
}

// Project walks the resolved model and produces the emitted-type form.
// Value and OID assignments do not project; their values surface as
// constants where a type names them.
func Project(model *asn1.Model) (*Model, error) {
	out := &Model{index: make(map[string]int)}

	// pre-assign arena slots so references resolve independent of order
	for _, module := range model.Modules {
		for _, def := range module.Definitions {
			if def.Kind != asn1.DefinitionType {
				continue
			}
			if _, dup := out.index[def.Name]; dup {
				return nil, fmt.Errorf("duplicate emitted type name %q", def.Name)
			}
			out.index[def.Name] = len(out.Defs)
			out.Defs = append(out.Defs, Def{Name: def.Name, Module: module.Name})
		}
	}

	for _, module := range model.Modules {
		for _, def := range module.Definitions {
			if def.Kind != asn1.DefinitionType {
				continue
			}
			slot := out.index[def.Name]
			projected, err := out.project(def.Type)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", module.Name, def.Name, err)
			}
			out.Defs[slot].Type = projected
		}
	}

	return out, nil
}

func (m *Model) project(t *asn1.Type) (EmittedType, error) {
	switch t.Kind {
	case asn1.KindBoolean:
		return EmittedType{Kind: KindBool}, nil

	case asn1.KindNull:
		return EmittedType{Kind: KindNull}, nil

	case asn1.KindInteger:
		result := EmittedType{
			Kind:   bucketFor(t.Range),
			Bounds: t.Range,
		}
		for _, nv := range t.NamedValues {
			result.Constants = append(result.Constants, Constant{Name: nv.Name, Value: nv.Value})
		}
		return result, nil

	case asn1.KindString:
		return EmittedType{Kind: KindString, Charset: t.Charset, Size: t.Size}, nil

	case asn1.KindOctetString:
		return EmittedType{Kind: KindBytes, Size: t.Size}, nil

	case asn1.KindBitString:
		result := EmittedType{Kind: KindBitString, Size: t.Size}
		for _, nv := range t.NamedValues {
			result.Constants = append(result.Constants, Constant{Name: nv.Name, Value: nv.Value})
		}
		return result, nil

	case asn1.KindEnumerated:
		result := EmittedType{Kind: KindEnum, ExtensionAfter: t.ExtensionAfter}
		for _, v := range t.Variants {
			result.Variants = append(result.Variants, v.Name)
		}
		return result, nil

	case asn1.KindSequence, asn1.KindSet:
		result := EmittedType{Kind: KindStruct, ExtensionAfter: t.ExtensionAfter}
		for i := range t.Fields {
			field, err := m.projectField(&t.Fields[i])
			if err != nil {
				return EmittedType{}, err
			}
			result.Fields = append(result.Fields, field)
		}
		return result, nil

	case asn1.KindChoice:
		result := EmittedType{Kind: KindChoice, ExtensionAfter: t.ExtensionAfter}
		for i := range t.Fields {
			field, err := m.projectField(&t.Fields[i])
			if err != nil {
				return EmittedType{}, err
			}
			result.Fields = append(result.Fields, field)
		}
		return result, nil

	case asn1.KindSequenceOf, asn1.KindSetOf:
		elem, err := m.project(t.Inner)
		if err != nil {
			return EmittedType{}, err
		}
		return EmittedType{Kind: KindList, Size: t.Size, Elem: &elem}, nil

	case asn1.KindReference:
		index, ok := m.index[t.RefName]
		if !ok {
			return EmittedType{}, fmt.Errorf("reference to unprojected type %q", t.RefName)
		}
		return EmittedType{Kind: KindRef, Ref: index, RefName: t.RefName}, nil

	default:
		return EmittedType{}, fmt.Errorf("unsupported type kind %d", t.Kind)
	}
}

func (m *Model) projectField(f *asn1.Field) (Field, error) {
	projected, err := m.project(f.Type)
	if err != nil {
		return Field{}, fmt.Errorf("field %s: %w", f.Name, err)
	}
	return Field{
		Name:        f.Name,
		Type:        projected,
		Optional:    f.Optional,
		Default:     f.Default,
		InExtension: f.InExtension,
	}, nil
}

// bucketFor picks the smallest integral bucket covering the range:
// unsigned when the lower bound is non-negative, the widest unsigned
// bucket for a non-negative range with an open upper bound, and the
// widest signed bucket for a fully open INTEGER.
func bucketFor(r *asn1.Range) Kind {
	if r == nil || r.MinUnbounded {
		return KindInt64
	}
	if r.Min >= 0 {
		if r.MaxUnbounded {
			return KindUint64
		}
		switch {
		case r.Max < 1<<8:
			return KindUint8
		case r.Max < 1<<16:
			return KindUint16
		case r.Max < 1<<32:
			return KindUint32
		default:
			return KindUint64
		}
	}
	if r.MaxUnbounded {
		return KindInt64
	}
	switch {
	case r.Min >= -1<<7 && r.Max < 1<<7:
		return KindInt8
	case r.Min >= -1<<15 && r.Max < 1<<15:
		return KindInt16
	case r.Min >= -1<<31 && r.Max < 1<<31:
		return KindInt32
	default:
		return KindInt64
	}
}
