package asn1go

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asn1go/asn1go/asn1"
	"github.com/asn1go/asn1go/gen"
)

// itsContainer is a representative slice of ETSI TS 102 894-2 style
// definitions.
const itsContainer = `
ITS-Container {
    itu-t (0) identified-organization (4) etsi (0) itsDomain (5) wg1 (1) ts (102894) cdd (2) version (2)
}
DEFINITIONS AUTOMATIC TAGS ::= BEGIN

StationID ::= INTEGER(0..4294967295)

StationType ::= INTEGER {
    unknown(0), pedestrian(1), cyclist(2), moped(3), motorcycle(4),
    passengerCar(5), bus(6), lightTruck(7), heavyTruck(8)
} (0..255)

Heading ::= SEQUENCE {
    headingValue      INTEGER(0..3601),
    headingConfidence INTEGER(1..127)
}

PathHistory ::= SEQUENCE (SIZE(0..40)) OF PathPoint

PathPoint ::= SEQUENCE {
    pathPosition Heading,
    pathDeltaTime INTEGER(1..65535, ...) OPTIONAL
}

END`

func TestCompileITSContainer(t *testing.T) {
	model, err := Compile(String("its.asn1", itsContainer))
	require.NoError(t, err, "parse-then-resolve must produce zero errors")

	module := model.Module("ITS-Container")
	require.NotNil(t, module)
	assert.Equal(t, asn1.TagDefaultAutomatic, module.TagDefault)
	assert.Equal(t, asn1.OID{0, 4, 0, 5, 1, 102894, 2, 2}, module.OID)

	station := module.Definition("StationID")
	require.NotNil(t, station)
	require.NotNil(t, station.Type.Range)
	assert.Equal(t, int64(0), station.Type.Range.Min)
	assert.Equal(t, int64(4294967295), station.Type.Range.Max)

	projected, err := gen.Project(model)
	require.NoError(t, err)
	stationType := projected.Defs[projected.Lookup("StationID")].Type
	assert.Equal(t, gen.KindUint32, stationType.Kind, "StationID buckets to u32")

	stationKind := projected.Defs[projected.Lookup("StationType")].Type
	assert.Equal(t, gen.KindUint8, stationKind.Kind)
	assert.Len(t, stationKind.Constants, 9)
}

func TestCompileMultipleSourcesWithImports(t *testing.T) {
	constants := `
Constants DEFINITIONS ::= BEGIN
    max-len INTEGER ::= 32
END`
	uses := `
Uses DEFINITIONS ::= BEGIN
    IMPORTS max-len FROM Constants;
    Name ::= UTF8String(SIZE(1..max-len))
END`

	model, err := Compile(Multi(
		String("constants.asn1", constants),
		String("uses.asn1", uses),
	))
	require.NoError(t, err)

	name := model.Module("Uses").Definition("Name")
	require.NotNil(t, name)
	assert.Equal(t, int64(32), name.Type.Size.Max)
}

func TestCompileReportsLocatedDiagnostics(t *testing.T) {
	source := `BadProto DEFINITIONS ::= BEGIN
    Station ::= Missing
END`

	_, err := Compile(String("bad.asn1", source))
	require.Error(t, err)

	var sourceErr *asn1.SourceError
	require.ErrorAs(t, err, &sourceErr)
	require.NotEmpty(t, sourceErr.Diagnostics)

	d := sourceErr.Diagnostics[0]
	assert.Equal(t, "bad.asn1", d.Path)
	assert.Equal(t, 2, d.Line)
	assert.Contains(t, d.Message, "Missing")

	formatted := d.String()
	assert.True(t, strings.HasPrefix(formatted, "bad.asn1:2:"),
		"diagnostic must format as <path>:<line>:<col>: <message>, got %q", formatted)
}

func TestCompileParseErrorFails(t *testing.T) {
	_, err := Compile(String("broken.asn1", "this is not ASN.1"))
	require.Error(t, err)

	var sourceErr *asn1.SourceError
	require.ErrorAs(t, err, &sourceErr)
}

func TestCompileNoSources(t *testing.T) {
	_, err := Compile(nil)
	assert.ErrorIs(t, err, ErrNoSources)

	_, err = Compile(Multi())
	assert.ErrorIs(t, err, ErrNoSources)
}

func TestPermissiveDiagnosticsOption(t *testing.T) {
	source := `
MyProto DEFINITIONS ::= BEGIN
    Station ::= Missing
END`

	_, err := Compile(String("loose.asn1", source))
	require.Error(t, err, "unresolved references fail by default")

	_, err = Compile(String("loose.asn1", source), WithPermissiveDiagnostics())
	assert.NoError(t, err, "permissive mode only fails on fatal diagnostics")

	_, err = Compile(String("loose.asn1", source),
		WithIgnoreDiagnostics("unresolved-*"))
	assert.NoError(t, err, "ignored codes do not fail compilation")
}

func TestFormatRoundTripIsIdempotent(t *testing.T) {
	source := `
Fmt-Test DEFINITIONS ::= BEGIN
    Speed ::= INTEGER(0..16383)
    Color ::= ENUMERATED { red, green, blue }
    Message ::= SEQUENCE {
        speed Speed,
        note  UTF8String (SIZE (0..64)) OPTIONAL,
        color Color
    }
    Path ::= SEQUENCE (SIZE (1..16)) OF Message
END`

	first, err := Compile(String("fmt.asn1", source))
	require.NoError(t, err)

	formatted := asn1.Format(first.Module("Fmt-Test"))

	second, err := Compile(String("fmt2.asn1", formatted))
	require.NoError(t, err, "formatted output must re-compile:\n%s", formatted)

	reformatted := asn1.Format(second.Module("Fmt-Test"))
	assert.Equal(t, formatted, reformatted, "formatting must be a fixed point")
}

func TestParseTarget(t *testing.T) {
	for name, expected := range map[string]Target{
		"go":       TargetGo,
		"rust":     TargetGo,
		"proto":    TargetProto,
		"protobuf": TargetProto,
		"sql":      TargetSQL,
	} {
		target, err := ParseTarget(name)
		require.NoError(t, err)
		assert.Equal(t, expected, target)
	}

	_, err := ParseTarget("java")
	assert.Error(t, err)
}

func TestGenerateGoTarget(t *testing.T) {
	model, err := Compile(String("its.asn1", itsContainer))
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, Generate(model, TargetGo, dir, GenerateConfig{Package: "its"}))

	content := readGenerated(t, dir, "its_container.go")
	assert.Contains(t, content, "package its")
	assert.Contains(t, content, "type StationID uint32")
	assert.Contains(t, content, "func (v *StationID) Write(w codec.Writer) error")
	assert.Contains(t, content, "type Heading struct {")
}

func TestGenerateProtoTarget(t *testing.T) {
	model, err := Compile(String("its.asn1", itsContainer))
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, Generate(model, TargetProto, dir, GenerateConfig{ProtoPackage: "its"}))

	content := readGenerated(t, dir, "its_container.proto")
	assert.Contains(t, content, "syntax = \"proto3\";")
	assert.Contains(t, content, "message Heading {")
}

func readGenerated(t *testing.T, dir, name string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(content)
}

func TestGenerateSQLTarget(t *testing.T) {
	model, err := Compile(String("its.asn1", itsContainer))
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, Generate(model, TargetSQL, dir, GenerateConfig{}))

	content := readGenerated(t, dir, "its_container.sql")
	assert.Contains(t, content, "CREATE TABLE heading (")
}
