package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asn1go/asn1go/asn1"
)

func rangeOf(min, max int64) *asn1.Range {
	return &asn1.Range{Min: min, Max: max}
}

func TestIntegerBucketing(t *testing.T) {
	cases := []struct {
		name     string
		r        *asn1.Range
		expected Kind
	}{
		{"u8 upper edge", rangeOf(0, 255), KindUint8},
		{"u16", rangeOf(0, 256), KindUint16},
		{"u16 upper edge", rangeOf(0, 65535), KindUint16},
		{"u32", rangeOf(0, 65536), KindUint32},
		{"station id is u32", rangeOf(0, 4294967295), KindUint32},
		{"u64", rangeOf(0, 4294967296), KindUint64},
		{"i8", rangeOf(-128, 127), KindInt8},
		{"i16", rangeOf(-129, 127), KindInt16},
		{"i32", rangeOf(-900000000, 900000001), KindInt32},
		{"i64", rangeOf(-1, 1 << 40), KindInt64},
		{"open upper unsigned widest", &asn1.Range{Min: 0, MaxUnbounded: true}, KindUint64},
		{"open integer widest signed", &asn1.Range{MinUnbounded: true, MaxUnbounded: true}, KindInt64},
		{"no constraint widest signed", nil, KindInt64},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, bucketFor(tc.r))
		})
	}
}

func buildModel(t *testing.T, definitions []*asn1.Definition) *asn1.Model {
	t.Helper()
	return asn1.NewModel([]*asn1.Module{
		asn1.NewModule("Test-Module", asn1.TagDefaultExplicit, definitions),
	})
}

func TestProjectSequence(t *testing.T) {
	station := &asn1.Definition{
		Name: "StationID",
		Kind: asn1.DefinitionType,
		Type: &asn1.Type{Kind: asn1.KindInteger, Range: rangeOf(0, 4294967295)},
	}
	header := &asn1.Definition{
		Name: "Header",
		Kind: asn1.DefinitionType,
		Type: &asn1.Type{
			Kind:           asn1.KindSequence,
			ExtensionAfter: -1,
			Fields: []asn1.Field{
				{Name: "stationID", Type: &asn1.Type{Kind: asn1.KindReference, RefName: "StationID", Ref: station}},
				{Name: "note", Type: &asn1.Type{Kind: asn1.KindString, Charset: asn1.CharsetUTF8}, Optional: true},
			},
		},
	}

	model, err := Project(buildModel(t, []*asn1.Definition{station, header}))
	require.NoError(t, err)

	stationIdx := model.Lookup("StationID")
	require.GreaterOrEqual(t, stationIdx, 0)
	assert.Equal(t, KindUint32, model.Defs[stationIdx].Type.Kind)

	headerIdx := model.Lookup("Header")
	headerType := model.Defs[headerIdx].Type
	require.Equal(t, KindStruct, headerType.Kind)
	require.Len(t, headerType.Fields, 2)

	ref := headerType.Fields[0].Type
	assert.Equal(t, KindRef, ref.Kind)
	assert.Equal(t, stationIdx, ref.Ref)

	assert.True(t, headerType.Fields[1].Optional)
	assert.Equal(t, KindString, headerType.Fields[1].Type.Kind)
}

func TestProjectListAndEnum(t *testing.T) {
	color := &asn1.Definition{
		Name: "Color",
		Kind: asn1.DefinitionType,
		Type: &asn1.Type{
			Kind:           asn1.KindEnumerated,
			ExtensionAfter: 1,
			Variants: []asn1.Variant{
				{Name: "red", Number: 0},
				{Name: "green", Number: 1},
				{Name: "blue", Number: 2},
			},
		},
	}
	palette := &asn1.Definition{
		Name: "Palette",
		Kind: asn1.DefinitionType,
		Type: &asn1.Type{
			Kind:  asn1.KindSequenceOf,
			Size:  &asn1.Range{Min: 1, Max: 8},
			Inner: &asn1.Type{Kind: asn1.KindReference, RefName: "Color", Ref: color},
		},
	}

	model, err := Project(buildModel(t, []*asn1.Definition{color, palette}))
	require.NoError(t, err)

	colorType := model.Defs[model.Lookup("Color")].Type
	assert.Equal(t, KindEnum, colorType.Kind)
	assert.Equal(t, []string{"red", "green", "blue"}, colorType.Variants)
	assert.Equal(t, 1, colorType.ExtensionAfter)

	paletteType := model.Defs[model.Lookup("Palette")].Type
	require.Equal(t, KindList, paletteType.Kind)
	assert.Equal(t, KindRef, paletteType.Elem.Kind)
}

func TestProjectCyclicReferences(t *testing.T) {
	node := &asn1.Definition{Name: "Node", Kind: asn1.DefinitionType}
	child := &asn1.Definition{Name: "Child", Kind: asn1.DefinitionType}
	node.Type = &asn1.Type{
		Kind:           asn1.KindSequence,
		ExtensionAfter: -1,
		Fields: []asn1.Field{
			{Name: "next", Type: &asn1.Type{Kind: asn1.KindReference, RefName: "Child", Ref: child}, Optional: true},
		},
	}
	child.Type = &asn1.Type{
		Kind:           asn1.KindSequence,
		ExtensionAfter: -1,
		Fields: []asn1.Field{
			{Name: "parent", Type: &asn1.Type{Kind: asn1.KindReference, RefName: "Node", Ref: node}, Optional: true},
		},
	}

	model, err := Project(buildModel(t, []*asn1.Definition{node, child}))
	require.NoError(t, err)

	nodeType := model.Defs[model.Lookup("Node")].Type
	assert.Equal(t, model.Lookup("Child"), nodeType.Fields[0].Type.Ref)
}

func TestProjectBitStringConstants(t *testing.T) {
	flags := &asn1.Definition{
		Name: "Flags",
		Kind: asn1.DefinitionType,
		Type: &asn1.Type{
			Kind: asn1.KindBitString,
			Size: &asn1.Range{Min: 8, Max: 8},
			NamedValues: []asn1.NamedValue{
				{Name: "low", Value: 0},
				{Name: "high", Value: 7},
			},
		},
	}

	model, err := Project(buildModel(t, []*asn1.Definition{flags}))
	require.NoError(t, err)

	flagsType := model.Defs[model.Lookup("Flags")].Type
	assert.Equal(t, KindBitString, flagsType.Kind)
	require.Len(t, flagsType.Constants, 2)
	assert.Equal(t, Constant{Name: "high", Value: 7}, flagsType.Constants[1])
}
