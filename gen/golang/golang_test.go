package golang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asn1go/asn1go/asn1"
	"github.com/asn1go/asn1go/gen"
)

func projectSource(t *testing.T, defs []*asn1.Definition) *gen.Model {
	t.Helper()
	model, err := gen.Project(asn1.NewModel([]*asn1.Module{
		asn1.NewModule("Test-Module", asn1.TagDefaultExplicit, defs),
	}))
	require.NoError(t, err)
	return model
}

func generateOne(t *testing.T, defs []*asn1.Definition) string {
	t.Helper()
	files, err := Generate(projectSource(t, defs), Options{Package: "testpkg"})
	require.NoError(t, err)
	content, ok := files["test_module.go"]
	require.True(t, ok, "expected test_module.go, got %v", keys(files))
	return string(content)
}

func keys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestGenerateScalar(t *testing.T) {
	content := generateOne(t, []*asn1.Definition{{
		Name: "StationID",
		Kind: asn1.DefinitionType,
		Type: &asn1.Type{
			Kind:           asn1.KindInteger,
			Range:          &asn1.Range{Min: 0, Max: 4294967295},
			ExtensionAfter: -1,
		},
	}})

	assert.Contains(t, content, "package testpkg")
	assert.Contains(t, content, "type StationID uint32")
	assert.Contains(t, content, "func (v *StationID) Write(w codec.Writer) error")
	assert.Contains(t, content, "func (v *StationID) Read(r codec.Reader) error")
	assert.Contains(t, content, "Min: codec.Int64(0), Max: codec.Int64(4294967295)")
}

func TestGenerateStructWithOptional(t *testing.T) {
	content := generateOne(t, []*asn1.Definition{{
		Name: "Header",
		Kind: asn1.DefinitionType,
		Type: &asn1.Type{
			Kind:           asn1.KindSequence,
			ExtensionAfter: -1,
			Fields: []asn1.Field{
				{Name: "id", Type: &asn1.Type{Kind: asn1.KindInteger, Range: &asn1.Range{Min: 0, Max: 255}, ExtensionAfter: -1}},
				{Name: "note", Type: &asn1.Type{Kind: asn1.KindString, Charset: asn1.CharsetUTF8, ExtensionAfter: -1}, Optional: true},
			},
		},
	}})

	assert.Contains(t, content, "type Header struct {")
	assert.Contains(t, content, "Id uint8")
	assert.Contains(t, content, "Note *string")
	assert.Contains(t, content, "codec.Sequence{OptionalFields: 1}")
	assert.Contains(t, content, "w.WriteOpt(v.Note != nil")
}

func TestGenerateEnum(t *testing.T) {
	content := generateOne(t, []*asn1.Definition{{
		Name: "Color",
		Kind: asn1.DefinitionType,
		Type: &asn1.Type{
			Kind:           asn1.KindEnumerated,
			ExtensionAfter: 1,
			Variants: []asn1.Variant{
				{Name: "red"}, {Name: "green"}, {Name: "blue"},
			},
		},
	}})

	assert.Contains(t, content, "type Color int64")
	assert.Contains(t, content, "ColorRed Color = 0")
	assert.Contains(t, content, "ColorBlue Color = 2")
	assert.Contains(t, content, "codec.Variants{Root: 2, Extensible: true}")
}

func TestGenerateChoice(t *testing.T) {
	content := generateOne(t, []*asn1.Definition{{
		Name: "Topping",
		Kind: asn1.DefinitionType,
		Type: &asn1.Type{
			Kind:           asn1.KindChoice,
			ExtensionAfter: -1,
			Fields: []asn1.Field{
				{Name: "cheese", Type: &asn1.Type{Kind: asn1.KindBoolean, ExtensionAfter: -1}},
				{Name: "grams", Type: &asn1.Type{Kind: asn1.KindInteger, Range: &asn1.Range{Min: 0, Max: 1000}, ExtensionAfter: -1}},
			},
		},
	}})

	assert.Contains(t, content, "type Topping struct {")
	assert.Contains(t, content, "Cheese *bool")
	assert.Contains(t, content, "Grams *uint16")
	assert.Contains(t, content, "w.WriteChoice(codec.Variants{Root: 2}, 0,")
	assert.Contains(t, content, "r.ReadChoice(codec.Variants{Root: 2},")
}

func TestGenerateBitStringConstants(t *testing.T) {
	content := generateOne(t, []*asn1.Definition{{
		Name: "Flags",
		Kind: asn1.DefinitionType,
		Type: &asn1.Type{
			Kind:           asn1.KindBitString,
			Size:           &asn1.Range{Min: 8, Max: 8},
			ExtensionAfter: -1,
			NamedValues: []asn1.NamedValue{
				{Name: "low", Value: 0},
				{Name: "high", Value: 7},
			},
		},
	}})

	assert.Contains(t, content, "const FlagsLow = 0")
	assert.Contains(t, content, "const FlagsHigh = 7")
	assert.Contains(t, content, "type Flags codec.BitString")
}
