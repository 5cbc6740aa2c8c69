package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asn1go/asn1go/asn1"
	"github.com/asn1go/asn1go/internal/ast"
	"github.com/asn1go/asn1go/internal/parser"
	"github.com/asn1go/asn1go/internal/types"
)

// resolve parses and resolves the given module texts as one batch,
// requiring a clean run.
func resolve(t *testing.T, sources ...string) *asn1.Model {
	t.Helper()
	model, diags := resolveWithDiagnostics(t, sources...)
	for _, md := range diags {
		for _, d := range md.Diagnostics {
			t.Errorf("unexpected diagnostic in %s: [%s] %s", md.Module, d.Code, d.Message)
		}
	}
	return model
}

func resolveWithDiagnostics(t *testing.T, sources ...string) (*asn1.Model, []ModuleDiagnostics) {
	t.Helper()
	modules := make([]*ast.Module, 0, len(sources))
	for _, source := range sources {
		p := parser.New([]byte(source), nil, types.DefaultConfig())
		module := p.ParseModule()
		for _, d := range module.Diagnostics {
			require.Greater(t, int(d.Severity), int(types.SeverityError),
				"parse diagnostic: %s", d.Message)
		}
		modules = append(modules, module)
	}
	return New(modules, nil).Resolve()
}

func definition(t *testing.T, model *asn1.Model, name string) *asn1.Definition {
	t.Helper()
	def := model.Lookup(name)
	require.NotNil(t, def, "definition %q", name)
	return def
}

func TestResolveValueReferenceInRange(t *testing.T) {
	model := resolve(t, `
MyProto DEFINITIONS ::= BEGIN
    min-speed INTEGER ::= 0
    max-speed INTEGER ::= 255
    Speed ::= INTEGER(min-speed..max-speed)
END`)

	speed := definition(t, model, "Speed").Type
	require.NotNil(t, speed.Range)
	assert.Equal(t, int64(0), speed.Range.Min)
	assert.Equal(t, int64(255), speed.Range.Max)
}

func TestResolveValueReferenceInSize(t *testing.T) {
	model := resolve(t, `
MyProto DEFINITIONS ::= BEGIN
    max-len INTEGER ::= 64
    Name ::= UTF8String(SIZE(1..max-len))
END`)

	name := definition(t, model, "Name").Type
	require.NotNil(t, name.Size)
	assert.Equal(t, int64(64), name.Size.Max)
}

func TestResolveValueReferenceChain(t *testing.T) {
	model := resolve(t, `
MyProto DEFINITIONS ::= BEGIN
    base INTEGER ::= 7
    alias INTEGER ::= base
    Limited ::= INTEGER(0..alias)
END`)

	limited := definition(t, model, "Limited").Type
	assert.Equal(t, int64(7), limited.Range.Max)
}

func TestResolveValueReferenceAcrossImport(t *testing.T) {
	model := resolve(t, `
Constants DEFINITIONS ::= BEGIN
    max-stations INTEGER ::= 128
END`, `
MyProto DEFINITIONS ::= BEGIN
    IMPORTS max-stations FROM Constants;
    Stations ::= SEQUENCE (SIZE(1..max-stations)) OF INTEGER(0..255)
END`)

	stations := definition(t, model, "Stations").Type
	require.NotNil(t, stations.Size)
	assert.Equal(t, int64(128), stations.Size.Max)
}

func TestUnresolvedValueReference(t *testing.T) {
	_, diags := resolveWithDiagnostics(t, `
MyProto DEFINITIONS ::= BEGIN
    Speed ::= INTEGER(0..missing-bound)
END`)

	require.Len(t, diags, 1)
	require.NotEmpty(t, diags[0].Diagnostics)
	assert.Equal(t, types.DiagUnresolvedValue, diags[0].Diagnostics[0].Code)
}

func TestResolveTypeReferenceAcrossModules(t *testing.T) {
	model := resolve(t, `
ITS-Container DEFINITIONS ::= BEGIN
    StationID ::= INTEGER(0..4294967295)
END`, `
CAM-PDU DEFINITIONS ::= BEGIN
    IMPORTS StationID FROM ITS-Container;
    Header ::= SEQUENCE {
        stationID StationID
    }
END`)

	header := definition(t, model, "Header").Type
	stationField := header.Fields[0]
	require.Equal(t, asn1.KindReference, stationField.Type.Kind)

	resolved := stationField.Type.Resolved()
	require.Equal(t, asn1.KindInteger, resolved.Kind)
	assert.Equal(t, int64(4294967295), resolved.Range.Max)
}

func TestUnresolvedTypeReference(t *testing.T) {
	_, diags := resolveWithDiagnostics(t, `
MyProto DEFINITIONS ::= BEGIN
    Header ::= SEQUENCE { station Missing }
END`)

	require.Len(t, diags, 1)
	assert.Equal(t, types.DiagUnresolvedType, diags[0].Diagnostics[0].Code)
}

func TestMinMaxSentinels(t *testing.T) {
	model := resolve(t, `
MyProto DEFINITIONS ::= BEGIN
    Open ::= INTEGER(MIN..MAX)
    HalfOpen ::= INTEGER(0..MAX)
END`)

	open := definition(t, model, "Open").Type
	assert.True(t, open.Range.MinUnbounded)
	assert.True(t, open.Range.MaxUnbounded)

	halfOpen := definition(t, model, "HalfOpen").Type
	assert.False(t, halfOpen.Range.MinUnbounded)
	assert.Equal(t, int64(0), halfOpen.Range.Min)
	assert.True(t, halfOpen.Range.MaxUnbounded)
}

func TestDuplicateNamesReported(t *testing.T) {
	_, diags := resolveWithDiagnostics(t, `
MyProto DEFINITIONS ::= BEGIN
    Twice ::= BOOLEAN
    Twice ::= NULL
END`)

	require.Len(t, diags, 1)
	assert.Equal(t, types.DiagInconsistentModel, diags[0].Diagnostics[0].Code)
}

func TestReversedBoundsReported(t *testing.T) {
	model, diags := resolveWithDiagnostics(t, `
MyProto DEFINITIONS ::= BEGIN
    Bad ::= INTEGER(10..1)
END`)

	require.Len(t, diags, 1)
	assert.Equal(t, types.DiagBoundsReversed, diags[0].Diagnostics[0].Code)

	// the model is still well formed afterwards
	bad := definition(t, model, "Bad").Type
	assert.LessOrEqual(t, bad.Range.Min, bad.Range.Max)
}

func TestAutomaticTags(t *testing.T) {
	model := resolve(t, `
MyProto DEFINITIONS AUTOMATIC TAGS ::= BEGIN
    Message ::= SEQUENCE {
        alpha BOOLEAN,
        beta  INTEGER,
        gamma NULL
    }
END`)

	message := definition(t, model, "Message").Type
	for i, field := range message.Fields {
		assert.Equal(t, asn1.TagClassContext, field.Tag.Class)
		assert.Equal(t, uint32(i), field.Tag.Number)
		assert.Equal(t, asn1.TagModeImplicit, field.Tag.Mode)
	}
}

func TestAutomaticTagsDisabledByExplicitTag(t *testing.T) {
	model := resolve(t, `
MyProto DEFINITIONS AUTOMATIC TAGS ::= BEGIN
    Message ::= SEQUENCE {
        alpha [5] BOOLEAN,
        beta  INTEGER
    }
END`)

	message := definition(t, model, "Message").Type
	assert.Equal(t, uint32(5), message.Fields[0].Tag.Number)
	// beta falls back to the universal tag of INTEGER
	assert.Equal(t, asn1.TagClassUniversal, message.Fields[1].Tag.Class)
	assert.Equal(t, asn1.TagInteger.Number, message.Fields[1].Tag.Number)
}

func TestSetFieldsCanonicalOrder(t *testing.T) {
	model := resolve(t, `
MyProto DEFINITIONS ::= BEGIN
    Jumbled ::= SET {
        z [2] BOOLEAN,
        a [0] BOOLEAN,
        m [1] BOOLEAN
    }
END`)

	jumbled := definition(t, model, "Jumbled").Type
	require.Len(t, jumbled.Fields, 3)
	assert.Equal(t, "a", jumbled.Fields[0].Name)
	assert.Equal(t, "m", jumbled.Fields[1].Name)
	assert.Equal(t, "z", jumbled.Fields[2].Name)
}

func TestSetCanonicalOrderStableAcrossReloads(t *testing.T) {
	source := `
MyProto DEFINITIONS ::= BEGIN
    Jumbled ::= SET {
        z [2] BOOLEAN,
        a [0] BOOLEAN,
        m [1] BOOLEAN
    }
END`

	first := resolve(t, source)
	second := resolve(t, source)

	a := definition(t, first, "Jumbled").Type
	b := definition(t, second, "Jumbled").Type
	require.Len(t, b.Fields, len(a.Fields))
	for i := range a.Fields {
		assert.Equal(t, a.Fields[i].Name, b.Fields[i].Name)
		assert.Equal(t, a.Fields[i].Tag, b.Fields[i].Tag)
	}
}

func TestTagCollisionInSet(t *testing.T) {
	_, diags := resolveWithDiagnostics(t, `
MyProto DEFINITIONS ::= BEGIN
    Clashing ::= SET {
        a [0] BOOLEAN,
        b [0] INTEGER
    }
END`)

	require.Len(t, diags, 1)
	found := false
	for _, d := range diags[0].Diagnostics {
		if d.Code == types.DiagTagCollision {
			found = true
		}
	}
	assert.True(t, found, "expected a tag collision diagnostic")
}

func TestChoiceCanonicalTagIsSmallestAlternative(t *testing.T) {
	model := resolve(t, `
MyProto DEFINITIONS ::= BEGIN
    Pick ::= CHOICE {
        num  INTEGER,
        flag BOOLEAN
    }
END`)

	pick := definition(t, model, "Pick").Type
	// BOOLEAN (universal 1) sorts before INTEGER (universal 2)
	assert.Equal(t, asn1.TagBoolean.Number, pick.Tag.Number)
}

func TestEnumeratedDefaults(t *testing.T) {
	model := resolve(t, `
MyProto DEFINITIONS ::= BEGIN
    Color ::= ENUMERATED { red, green(5), blue }
END`)

	color := definition(t, model, "Color").Type
	require.Len(t, color.Variants, 3)
	assert.Equal(t, int64(0), color.Variants[0].Number)
	assert.Equal(t, int64(5), color.Variants[1].Number)
	assert.Equal(t, int64(2), color.Variants[2].Number)
}

func TestDefaultEnumVariantResolved(t *testing.T) {
	model := resolve(t, `
MyProto DEFINITIONS ::= BEGIN
    Color ::= ENUMERATED { red, green, blue }
    Shape ::= SEQUENCE {
        fill Color DEFAULT green
    }
END`)

	shape := definition(t, model, "Shape").Type
	fill := shape.Fields[0]
	require.NotNil(t, fill.Default)
	assert.Equal(t, asn1.ValueEnumVariant, fill.Default.Kind)
	assert.Equal(t, "green", fill.Default.Name)
	assert.Equal(t, int64(1), fill.Default.Int)
}

func TestExtensionFieldsAreOptionalOnWire(t *testing.T) {
	model := resolve(t, `
MyProto DEFINITIONS ::= BEGIN
    Message ::= SEQUENCE {
        id INTEGER(0..255),
        ...,
        extra BOOLEAN
    }
END`)

	message := definition(t, model, "Message").Type
	require.Len(t, message.Fields, 2)
	assert.False(t, message.Fields[0].OptionalOnWire())
	assert.True(t, message.Fields[1].InExtension)
	assert.True(t, message.Fields[1].OptionalOnWire())
}

func TestConstraintOnReferenceNarrowsBase(t *testing.T) {
	model := resolve(t, `
MyProto DEFINITIONS ::= BEGIN
    Speed ::= INTEGER(0..16383)
    SlowSpeed ::= Speed (0..100)
END`)

	slow := definition(t, model, "SlowSpeed").Type
	assert.Equal(t, asn1.KindInteger, slow.Kind)
	require.NotNil(t, slow.Range)
	assert.Equal(t, int64(100), slow.Range.Max)
}

func TestOidAssignmentResolved(t *testing.T) {
	model := resolve(t, `
MyProto DEFINITIONS ::= BEGIN
    base OBJECT IDENTIFIER ::= { iso(1) 3 }
    leaf OBJECT IDENTIFIER ::= { base 42 }
END`)

	leaf := definition(t, model, "leaf")
	assert.Equal(t, asn1.OID{1, 3, 42}, leaf.OID)
}

func TestCyclicTypesResolve(t *testing.T) {
	model := resolve(t, `
MyProto DEFINITIONS ::= BEGIN
    Node ::= SEQUENCE {
        value INTEGER(0..255),
        next  Child OPTIONAL
    }
    Child ::= SEQUENCE {
        parent Node OPTIONAL
    }
END`)

	node := definition(t, model, "Node").Type
	next := node.Fields[1].Type
	require.Equal(t, asn1.KindReference, next.Kind)
	require.NotNil(t, next.Ref)
	assert.Equal(t, "Child", next.Ref.Name)

	// following the cycle terminates
	resolved := next.Resolved()
	assert.Equal(t, asn1.KindSequence, resolved.Kind)
}
