package types

import (
	"fmt"
	"slices"
	"strings"
)

// Severity classifies how serious a diagnostic is.
// Lower values are more severe.
type Severity int

// Severity values, most severe first.
const (
	SeverityFatal Severity = iota
	SeverityError
	SeverityWarning
	SeverityInfo
)

// String returns the lowercase name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityFatal:
		return "fatal"
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// SpanDiagnostic is a message from the lexer, parser or resolver with a
// byte-span location. It gets converted to an asn1.Diagnostic with module
// name and line/column information at the facade boundary.
type SpanDiagnostic struct {
	Severity Severity
	Code     string // diagnostic code (e.g. "parse-error")
	Span     Span
	Message  string
}

// DiagnosticConfig controls strictness and diagnostic filtering.
type DiagnosticConfig struct {
	// FailAt sets the severity threshold for failure.
	// If any diagnostic has severity <= FailAt, compilation fails.
	FailAt Severity

	// Overrides change severity for specific diagnostic codes.
	Overrides map[string]Severity

	// Ignore lists diagnostic codes to suppress entirely.
	// Supports glob patterns (e.g. "identifier-*").
	Ignore []string
}

// DefaultConfig returns the default diagnostic configuration:
// errors fail, warnings are reported.
func DefaultConfig() DiagnosticConfig {
	return DiagnosticConfig{FailAt: SeverityError}
}

// PermissiveConfig returns a configuration that only fails on fatal
// diagnostics, for schemas from the wild.
func PermissiveConfig() DiagnosticConfig {
	return DiagnosticConfig{FailAt: SeverityFatal}
}

// Effective returns the severity after applying per-code overrides.
func (c DiagnosticConfig) Effective(code string, sev Severity) Severity {
	if override, ok := c.Overrides[code]; ok {
		return override
	}
	return sev
}

// ShouldReport returns true if a diagnostic with the given code should be
// surfaced to the caller under this configuration.
func (c DiagnosticConfig) ShouldReport(code string) bool {
	return !slices.ContainsFunc(c.Ignore, func(pattern string) bool {
		return MatchGlob(pattern, code)
	})
}

// ShouldFail returns true if a diagnostic with the given severity should
// cause compilation to fail.
func (c DiagnosticConfig) ShouldFail(sev Severity) bool {
	return sev <= c.FailAt
}

// MatchGlob performs simple glob matching with * wildcard.
func MatchGlob(pattern, s string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(s, prefix)
	}
	if suffix, ok := strings.CutPrefix(pattern, "*"); ok {
		return strings.HasSuffix(s, suffix)
	}
	return pattern == s
}
