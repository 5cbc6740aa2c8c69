package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineColumn(t *testing.T) {
	source := []byte("first line\nsecond line\nthird")

	line, col := LineColumn(source, 0)
	assert.Equal(t, 1, line)
	assert.Equal(t, 1, col)

	line, col = LineColumn(source, ByteOffset(len("first line\n")))
	assert.Equal(t, 2, line)
	assert.Equal(t, 1, col)

	line, col = LineColumn(source, ByteOffset(len("first line\nsecond")))
	assert.Equal(t, 2, line)
	assert.Equal(t, 7, col)
}

func TestMatchGlob(t *testing.T) {
	assert.True(t, MatchGlob("parse-error", "parse-error"))
	assert.True(t, MatchGlob("unresolved-*", "unresolved-type-reference"))
	assert.True(t, MatchGlob("*-error", "parse-error"))
	assert.False(t, MatchGlob("unresolved-*", "parse-error"))
}

func TestDiagnosticConfigFiltering(t *testing.T) {
	cfg := DiagnosticConfig{
		FailAt:    SeverityError,
		Ignore:    []string{"identifier-*"},
		Overrides: map[string]Severity{"parse-error": SeverityWarning},
	}

	assert.False(t, cfg.ShouldReport("identifier-length-64"))
	assert.True(t, cfg.ShouldReport("parse-error"))
	assert.Equal(t, SeverityWarning, cfg.Effective("parse-error", SeverityError))
	assert.True(t, cfg.ShouldFail(SeverityError))
	assert.False(t, cfg.ShouldFail(SeverityWarning))
}
