// Package asn1go compiles ASN.1 module definitions into a fully
// resolved type model and generates application-language data types
// driven by a bit-exact UPER codec.
//
// The pipeline: source text is tokenized and parsed into an unresolved
// model per module, all loaded modules are resolved in one batch pass
// (value references, cross-module symbols, canonical tags), and the
// resolved model is projected into emitted types consumed by the
// generator backends. At runtime, generated types drive the uper
// package through the codec contract.
//
// Example:
//
//	model, err := asn1go.Compile(
//	    asn1go.Dir("schemas"),
//	    asn1go.WithLogger(slog.Default()),
//	)
package asn1go

import (
	"context"
	"errors"
	"log/slog"

	"github.com/asn1go/asn1go/asn1"
	"github.com/asn1go/asn1go/internal/parser"
	"github.com/asn1go/asn1go/internal/resolver"
	"github.com/asn1go/asn1go/internal/types"
)

// ErrNoSources is returned when Compile is called with no sources.
var ErrNoSources = errors.New("no ASN.1 sources provided")

// LevelTrace is a custom log level more verbose than Debug.
// Use for per-item iteration logging (tokens, constraints, tags).
// Enable with: &slog.HandlerOptions{Level: slog.Level(-8)}
const LevelTrace = types.LevelTrace

// CompileOption configures Compile.
type CompileOption func(*compileConfig)

type compileConfig struct {
	logger     *slog.Logger
	diagConfig types.DiagnosticConfig
}

// WithLogger sets the logger for debug/trace output.
// If not set, no logging occurs (zero overhead).
func WithLogger(logger *slog.Logger) CompileOption {
	return func(c *compileConfig) { c.logger = logger }
}

// WithPermissiveDiagnostics only fails compilation on fatal
// diagnostics, for schemas from the wild.
func WithPermissiveDiagnostics() CompileOption {
	return func(c *compileConfig) { c.diagConfig = types.PermissiveConfig() }
}

// WithIgnoreDiagnostics suppresses diagnostics by code; codes support a
// '*' glob.
func WithIgnoreDiagnostics(codes ...string) CompileOption {
	return func(c *compileConfig) {
		c.diagConfig.Ignore = append(c.diagConfig.Ignore, codes...)
	}
}

// Compile loads all modules from the given source and resolves them as
// one batch. On parse or resolution failure the returned error is an
// *asn1.SourceError carrying every failing diagnostic with its source
// path and line/column.
func Compile(source Source, opts ...CompileOption) (*asn1.Model, error) {
	cfg := compileConfig{diagConfig: types.DefaultConfig()}
	for _, opt := range opts {
		opt(&cfg)
	}

	if source == nil {
		return nil, ErrNoSources
	}
	sources, err := source.Load()
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	logger := cfg.logger
	if logEnabled(logger, slog.LevelInfo) {
		logger.LogAttrs(context.Background(), slog.LevelInfo, "compiling",
			slog.Int("sources", len(sources)))
	}

	collector := &diagnosticCollector{config: cfg.diagConfig}

	var modules []*astModule
	for _, src := range sources {
		p := parser.New(src.Content, componentLogger(logger, "parser"), cfg.diagConfig)
		parsed := p.ParseModule()
		collector.addSpanDiagnostics(src, parsed.Diagnostics)
		modules = append(modules, &astModule{source: src, module: parsed})
	}

	res := resolver.New(astModules(modules), componentLogger(logger, "resolver"))
	model, moduleDiags := res.Resolve()

	for _, md := range moduleDiags {
		src := findSource(modules, md.Module)
		collector.addSpanDiagnostics(src, md.Diagnostics)
	}

	if collector.failed {
		return nil, &asn1.SourceError{Diagnostics: collector.failing}
	}
	return model, nil
}

func componentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("component", component))
}

// logEnabled returns true if logging is enabled at the given level.
func logEnabled(logger *slog.Logger, level slog.Level) bool {
	return logger != nil && logger.Enabled(context.Background(), level)
}
