package asn1

import (
	"fmt"
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

// Diagnostic is an issue found during parsing or resolution, located by
// source path and 1-based line/column.
type Diagnostic struct {
	Severity Severity
	Code     string
	Message  string
	Path     string // source path or synthetic source name
	Line     int    // 1-based, 0 if not applicable
	Column   int    // 1-based, 0 if not applicable
}

// String formats the diagnostic as `<path>:<line>:<col>: <message>`,
// omitting location parts that are zero.
func (d Diagnostic) String() string {
	var b strings.Builder
	if d.Path != "" {
		b.WriteString(d.Path)
		if d.Line > 0 {
			fmt.Fprintf(&b, ":%d", d.Line)
			if d.Column > 0 {
				fmt.Fprintf(&b, ":%d", d.Column)
			}
		}
		b.WriteString(": ")
	}
	b.WriteString(d.Message)
	return b.String()
}

// SourceError aggregates the failing diagnostics of a compilation.
type SourceError struct {
	Diagnostics []Diagnostic
}

// Error formats the first diagnostic, with a count of the remainder.
func (e *SourceError) Error() string {
	switch len(e.Diagnostics) {
	case 0:
		return "compilation failed"
	case 1:
		return e.Diagnostics[0].String()
	default:
		return fmt.Sprintf("%s (and %d more)", e.Diagnostics[0].String(), len(e.Diagnostics)-1)
	}
}
