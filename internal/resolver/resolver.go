// Package resolver turns parsed AST modules into the resolved public
// model.
//
// Resolution is a batch pass over all loaded modules in two phases:
// value references in constraints and defaults are substituted first,
// then type references are resolved across the module set and every
// component receives its canonical tag.
package resolver

import (
	"fmt"
	"log/slog"

	"github.com/asn1go/asn1go/asn1"
	"github.com/asn1go/asn1go/internal/ast"
	"github.com/asn1go/asn1go/internal/types"
)

// ModuleDiagnostics associates resolver diagnostics with the module
// that produced them.
type ModuleDiagnostics struct {
	Module      string
	Diagnostics []types.SpanDiagnostic
}

// Resolver resolves a batch of parsed modules.
type Resolver struct {
	modules []*ast.Module

	// symbol tables per module name
	assignments map[string]map[string]ast.Assignment
	// importOf maps module name -> symbol -> exporting module name
	importOf map[string]map[string]string

	// definition shells created up front so references (including
	// cyclic ones) always have a target
	definitions map[string]map[string]*asn1.Definition

	// pendingConstraints carries reference-site subtype constraints to
	// the post-pass that applies them onto structural copies.
	pendingConstraints map[*asn1.Type]pendingConstraint

	current     *ast.Module // module being resolved, for diagnostics
	diagnostics map[string][]types.SpanDiagnostic

	// pendingDefaults defers DEFAULT value resolution until every
	// definition in the batch has a resolved type.
	pendingDefaults []pendingDefault

	// cycle guards
	oidResolving   map[string]bool
	valueResolving map[string]bool

	types.Logger
}

// New creates a Resolver over the given modules.
// Pass nil for logger to disable logging.
func New(modules []*ast.Module, logger *slog.Logger) *Resolver {
	return &Resolver{
		modules:            modules,
		assignments:        make(map[string]map[string]ast.Assignment),
		importOf:           make(map[string]map[string]string),
		definitions:        make(map[string]map[string]*asn1.Definition),
		pendingConstraints: make(map[*asn1.Type]pendingConstraint),
		diagnostics:        make(map[string][]types.SpanDiagnostic),
		oidResolving:       make(map[string]bool),
		valueResolving:     make(map[string]bool),
		Logger:             types.Logger{L: logger},
	}
}

// Resolve runs both resolution phases and returns the resolved model
// along with per-module diagnostics.
func (r *Resolver) Resolve() (*asn1.Model, []ModuleDiagnostics) {
	r.buildSymbolTables()

	resolved := make([]*asn1.Module, 0, len(r.modules))
	for _, module := range r.modules {
		resolved = append(resolved, r.resolveModule(module))
	}

	r.applyPendingConstraints()
	r.applyPendingDefaults()

	for _, module := range resolved {
		r.current = r.astModule(module.Name)
		for _, def := range module.Definitions {
			if def.Kind == asn1.DefinitionType && def.Type != nil {
				r.canonicalizeTags(module, def)
			}
		}
	}

	diags := make([]ModuleDiagnostics, 0, len(r.diagnostics))
	for _, module := range r.modules {
		if d := r.diagnostics[module.Name.Name]; len(d) > 0 {
			diags = append(diags, ModuleDiagnostics{Module: module.Name.Name, Diagnostics: d})
		}
	}

	r.Log(slog.LevelDebug, "resolution complete",
		slog.Int("modules", len(resolved)),
		slog.Int("modules_with_diagnostics", len(diags)))

	return asn1.NewModel(resolved), diags
}

func (r *Resolver) astModule(name string) *ast.Module {
	for _, m := range r.modules {
		if m.Name.Name == name {
			return m
		}
	}
	return nil
}

func (r *Resolver) error(code string, span types.Span, format string, args ...any) {
	name := ""
	if r.current != nil {
		name = r.current.Name.Name
	}
	r.diagnostics[name] = append(r.diagnostics[name], types.SpanDiagnostic{
		Severity: types.SeverityError,
		Code:     code,
		Span:     span,
		Message:  fmt.Sprintf(format, args...),
	})
}

// buildSymbolTables indexes assignments and imports per module and
// creates definition shells. Duplicate names within a module are
// reported and the first assignment wins.
func (r *Resolver) buildSymbolTables() {
	for _, module := range r.modules {
		r.current = module
		name := module.Name.Name

		table := make(map[string]ast.Assignment, len(module.Assignments))
		shells := make(map[string]*asn1.Definition, len(module.Assignments))
		for _, a := range module.Assignments {
			aName := a.AssignmentName().Name
			if _, exists := table[aName]; exists {
				r.error(types.DiagInconsistentModel, a.AssignmentSpan(),
					"duplicate name %q in module %s", aName, name)
				continue
			}
			table[aName] = a
			shells[aName] = &asn1.Definition{Name: aName}
			if ta, ok := a.(*ast.TypeAssignment); ok {
				shells[aName].Synthetic = ta.Synthetic
			}
		}
		r.assignments[name] = table
		r.definitions[name] = shells

		importTable := make(map[string]string)
		for _, clause := range module.Imports {
			for _, symbol := range clause.Symbols {
				importTable[symbol.Name] = clause.From.Name
			}
		}
		r.importOf[name] = importTable
	}
}

// lookupAssignment finds the assignment for a symbol visible from the
// given module: locally first, then through imports.
// Returns the assignment and its defining module name.
func (r *Resolver) lookupAssignment(fromModule, symbol string) (ast.Assignment, string, bool) {
	if a, ok := r.assignments[fromModule][symbol]; ok {
		return a, fromModule, true
	}
	if exporter, ok := r.importOf[fromModule][symbol]; ok {
		if a, ok := r.assignments[exporter][symbol]; ok {
			return a, exporter, true
		}
		r.error(types.DiagImportModuleUnknown, types.Synthetic,
			"symbol %q imported from unknown or incomplete module %q", symbol, exporter)
	}
	return nil, "", false
}

// lookupDefinition finds the definition shell for a symbol visible from
// the given module.
func (r *Resolver) lookupDefinition(fromModule, symbol string) (*asn1.Definition, bool) {
	if d, ok := r.definitions[fromModule][symbol]; ok {
		return d, true
	}
	if exporter, ok := r.importOf[fromModule][symbol]; ok {
		if d, ok := r.definitions[exporter][symbol]; ok {
			return d, true
		}
	}
	return nil, false
}

// resolveModule converts one AST module into its resolved form.
func (r *Resolver) resolveModule(module *ast.Module) *asn1.Module {
	r.current = module
	name := module.Name.Name

	r.Log(slog.LevelDebug, "resolving module", slog.String("module", name))

	defs := make([]*asn1.Definition, 0, len(module.Assignments))
	for _, a := range module.Assignments {
		def, ok := r.definitions[name][a.AssignmentName().Name]
		if !ok || defContains(defs, def) {
			continue // duplicate assignment already reported
		}

		switch assignment := a.(type) {
		case *ast.TypeAssignment:
			def.Kind = asn1.DefinitionType
			def.Type = r.resolveType(module, assignment.Type, assignment.Tag)

		case *ast.ValueAssignment:
			def.Kind = asn1.DefinitionValue
			def.Type = r.resolveType(module, assignment.Type, nil)
			def.Value = r.resolveValue(module, assignment.Value, def.Type)

		case *ast.OidAssignment:
			def.Kind = asn1.DefinitionOid
			def.OID = r.resolveOid(module, assignment.Components)
		}

		defs = append(defs, def)
	}

	tagDefault := asn1.TagDefault(module.TagDefault)
	resolved := asn1.NewModule(name, tagDefault, defs)
	resolved.OID = r.resolveOid(module, module.OID)
	for _, clause := range module.Imports {
		symbols := make([]string, len(clause.Symbols))
		for i, s := range clause.Symbols {
			symbols[i] = s.Name
		}
		resolved.Imports = append(resolved.Imports, asn1.Import{
			Symbols: symbols,
			From:    clause.From.Name,
		})
	}
	return resolved
}

func defContains(defs []*asn1.Definition, def *asn1.Definition) bool {
	for _, d := range defs {
		if d == def {
			return true
		}
	}
	return false
}

// resolveOid resolves an OID component list, following leading name
// references to other OID assignments and well-known roots.
func (r *Resolver) resolveOid(module *ast.Module, components []ast.OidComponent) asn1.OID {
	if len(components) == 0 {
		return nil
	}

	var oid asn1.OID
	for i, c := range components {
		switch {
		case c.Number != nil:
			oid = append(oid, *c.Number)

		case c.Name != nil && i == 0:
			// leading name: well-known root or another OID assignment
			switch c.Name.Name {
			case "itu-t", "ccitt":
				oid = append(oid, 0)
			case "iso":
				oid = append(oid, 1)
			case "joint-iso-itu-t", "joint-iso-ccitt":
				oid = append(oid, 2)
			default:
				key := module.Name.Name + "." + c.Name.Name
				if r.oidResolving[key] {
					r.error(types.DiagInconsistentModel, c.Span,
						"cyclic object identifier reference %q", c.Name.Name)
					continue
				}
				if a, owner, ok := r.lookupAssignment(module.Name.Name, c.Name.Name); ok {
					if oa, ok := a.(*ast.OidAssignment); ok {
						r.oidResolving[key] = true
						owningModule := r.astModule(owner)
						oid = append(oid, r.resolveOid(owningModule, oa.Components)...)
						delete(r.oidResolving, key)
						continue
					}
				}
				r.error(types.DiagUnresolvedValue, c.Span,
					"unresolved object identifier component %q", c.Name.Name)
			}

		default:
			r.error(types.DiagUnresolvedValue, c.Span,
				"object identifier component %q needs a number", c.Name.Name)
		}
	}
	return oid
}
