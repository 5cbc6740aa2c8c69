// Package asn1 exposes the fully-resolved model of a set of compiled
// ASN.1 modules.
//
// Values of this package are produced by the resolver and are immutable
// from that point on: every type reference points at a defined type in
// the loaded module set, every constraint bound is a concrete integer,
// and every component carries its canonical tag.
package asn1

// Model is a resolved set of modules.
type Model struct {
	Modules []*Module

	byName map[string]*Module
}

// NewModel creates a model over the given modules.
// Module order is preserved; lookup is by name.
func NewModel(modules []*Module) *Model {
	m := &Model{
		Modules: modules,
		byName:  make(map[string]*Module, len(modules)),
	}
	for _, module := range modules {
		if _, exists := m.byName[module.Name]; !exists {
			m.byName[module.Name] = module
		}
	}
	return m
}

// Module returns the module with the given name, or nil.
func (m *Model) Module(name string) *Module {
	return m.byName[name]
}

// Lookup finds a definition by name across all modules, in module
// load order.
func (m *Model) Lookup(name string) *Definition {
	for _, module := range m.Modules {
		if def := module.Definition(name); def != nil {
			return def
		}
	}
	return nil
}

// TagDefault is the tagging environment of a module.
type TagDefault int

// Tagging environments. Explicit is the X.680 default.
const (
	TagDefaultExplicit TagDefault = iota
	TagDefaultImplicit
	TagDefaultAutomatic
)

// String returns the ASN.1 spelling of the tag default.
func (t TagDefault) String() string {
	switch t {
	case TagDefaultImplicit:
		return "IMPLICIT"
	case TagDefaultAutomatic:
		return "AUTOMATIC"
	default:
		return "EXPLICIT"
	}
}

// Module is one resolved module.
type Module struct {
	Name        string
	OID         OID
	TagDefault  TagDefault
	Imports     []Import
	Definitions []*Definition

	byName map[string]*Definition
}

// NewModule creates a module and indexes its definitions by name.
func NewModule(name string, tagDefault TagDefault, definitions []*Definition) *Module {
	m := &Module{
		Name:        name,
		TagDefault:  tagDefault,
		Definitions: definitions,
		byName:      make(map[string]*Definition, len(definitions)),
	}
	for _, def := range definitions {
		def.Module = m
		if _, exists := m.byName[def.Name]; !exists {
			m.byName[def.Name] = def
		}
	}
	return m
}

// Definition returns the definition with the given name, or nil.
func (m *Module) Definition(name string) *Definition {
	return m.byName[name]
}

// Import is one `symbols FROM Module` clause.
type Import struct {
	Symbols []string
	From    string
}

// DefinitionKind discriminates Definition.
type DefinitionKind int

// Definition kinds.
const (
	DefinitionType DefinitionKind = iota
	DefinitionValue
	DefinitionOid
)

// Definition is one resolved assignment.
type Definition struct {
	Name   string
	Kind   DefinitionKind
	Module *Module

	// Type is the resolved type for type assignments, and the declared
	// type of the value for value assignments.
	Type *Type

	// Value is set for value assignments.
	Value *Value

	// OID is set for object identifier assignments.
	OID OID

	// Synthetic marks definitions lifted from inline aggregates.
	Synthetic bool
}

// OID is an object identifier value.
type OID []uint32
