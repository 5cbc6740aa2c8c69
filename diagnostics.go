package asn1go

import (
	"github.com/asn1go/asn1go/asn1"
	"github.com/asn1go/asn1go/internal/ast"
	"github.com/asn1go/asn1go/internal/types"
)

// astModule pairs a parsed module with the source it came from, so
// resolver diagnostics can be located by path and line/column.
type astModule struct {
	source NamedSource
	module *ast.Module
}

func astModules(modules []*astModule) []*ast.Module {
	out := make([]*ast.Module, len(modules))
	for i, m := range modules {
		out[i] = m.module
	}
	return out
}

func findSource(modules []*astModule, moduleName string) NamedSource {
	for _, m := range modules {
		if m.module.Name.Name == moduleName {
			return m.source
		}
	}
	return NamedSource{}
}

// diagnosticCollector lowers span diagnostics to public diagnostics and
// tracks whether any of them fails compilation under the configuration.
type diagnosticCollector struct {
	config  types.DiagnosticConfig
	all     []asn1.Diagnostic
	failing []asn1.Diagnostic
	failed  bool
}

func (c *diagnosticCollector) addSpanDiagnostics(src NamedSource, diags []types.SpanDiagnostic) {
	for _, d := range diags {
		if !c.config.ShouldReport(d.Code) {
			continue
		}
		severity := c.config.Effective(d.Code, d.Severity)

		diagnostic := asn1.Diagnostic{
			Severity: asn1.Severity(severity),
			Code:     d.Code,
			Message:  d.Message,
			Path:     src.Name,
		}
		if !d.Span.IsSynthetic() && src.Content != nil {
			diagnostic.Line, diagnostic.Column = types.LineColumn(src.Content, d.Span.Start)
		}

		c.all = append(c.all, diagnostic)
		if c.config.ShouldFail(severity) {
			c.failed = true
			c.failing = append(c.failing, diagnostic)
		}
	}
}
