package resolver

import (
	"github.com/asn1go/asn1go/asn1"
	"github.com/asn1go/asn1go/internal/ast"
	"github.com/asn1go/asn1go/internal/types"
)

// pendingConstraint is a reference-site subtype constraint waiting for
// the post-pass that applies it onto a structural copy of the
// referenced type.
type pendingConstraint struct {
	module     *ast.Module
	constraint *ast.Constraint
}

// pendingDefault is a DEFAULT value waiting for the post-pass that
// resolves it against the field's (by then fully resolved) type.
type pendingDefault struct {
	module *ast.Module
	value  ast.Value
	field  *asn1.Field
}

// applyPendingDefaults resolves DEFAULT values once every definition in
// the batch has its type.
func (r *Resolver) applyPendingDefaults() {
	for _, pending := range r.pendingDefaults {
		r.current = pending.module
		pending.field.Default = r.resolveValue(pending.module, pending.value, pending.field.Type)
	}
}

// evalIntRef resolves a named integer value visible from the given
// module, chasing value-assignment chains with a cycle guard.
// This is phase one of resolution: value-reference substitution.
func (r *Resolver) evalIntRef(module *ast.Module, ref ast.Ident) (int64, bool) {
	key := module.Name.Name + "." + ref.Name
	if r.valueResolving[key] {
		r.error(types.DiagInconsistentModel, ref.Span,
			"cyclic value reference %q", ref.Name)
		return 0, false
	}

	a, owner, ok := r.lookupAssignment(module.Name.Name, ref.Name)
	if !ok {
		r.error(types.DiagUnresolvedValue, ref.Span,
			"unresolved value reference %q", ref.Name)
		return 0, false
	}

	va, ok := a.(*ast.ValueAssignment)
	if !ok {
		r.error(types.DiagUnresolvedValue, ref.Span,
			"%q does not name a value", ref.Name)
		return 0, false
	}

	switch value := va.Value.(type) {
	case *ast.ValueInteger:
		return value.V, true
	case *ast.ValueReference:
		r.valueResolving[key] = true
		v, ok := r.evalIntRef(r.astModule(owner), value.Name)
		delete(r.valueResolving, key)
		return v, ok
	default:
		r.error(types.DiagUnresolvedValue, ref.Span,
			"value %q is not an integer", ref.Name)
		return 0, false
	}
}

// resolveBound resolves one end of a constraint. MIN/MAX sentinels map
// to the open side; size constraints clamp MIN to zero.
func (r *Resolver) resolveBound(module *ast.Module, b ast.Bound, forSize bool) (value int64, unbounded bool) {
	switch b.Kind {
	case ast.BoundLiteral:
		return b.Literal, false
	case ast.BoundMin:
		if forSize {
			return 0, false
		}
		return 0, true
	case ast.BoundMax:
		return 0, true
	case ast.BoundReference:
		v, ok := r.evalIntRef(module, b.Ref)
		if !ok {
			return 0, false
		}
		return v, false
	default:
		return 0, false
	}
}

// resolveRange converts an AST constraint into a resolved Range.
// Reversed bounds are reported and swapped so downstream passes see a
// well-formed range.
func (r *Resolver) resolveRange(module *ast.Module, c *ast.Constraint, forSize bool) *asn1.Range {
	if c == nil {
		return nil
	}

	result := &asn1.Range{Extensible: c.Extensible}
	result.Min, result.MinUnbounded = r.resolveBound(module, c.Lower, forSize)
	result.Max, result.MaxUnbounded = r.resolveBound(module, c.Upper, forSize)

	if result.Bounded() && result.Min > result.Max {
		r.error(types.DiagBoundsReversed, c.Span,
			"constraint lower bound %d exceeds upper bound %d", result.Min, result.Max)
		result.Min, result.Max = result.Max, result.Min
	}
	if forSize && !result.MinUnbounded && result.Min < 0 {
		r.error(types.DiagInconsistentModel, c.Span,
			"negative size bound %d", result.Min)
		result.Min = 0
	}

	return result
}

// resolveValue converts an AST value into a resolved value. The declared
// type disambiguates references: an enumerated variant name wins over a
// value assignment of the same spelling.
func (r *Resolver) resolveValue(module *ast.Module, v ast.Value, declared *asn1.Type) *asn1.Value {
	switch value := v.(type) {
	case *ast.ValueInteger:
		return &asn1.Value{Kind: asn1.ValueInteger, Int: value.V}

	case *ast.ValueBoolean:
		return &asn1.Value{Kind: asn1.ValueBoolean, Bool: value.V}

	case *ast.ValueString:
		return &asn1.Value{Kind: asn1.ValueString, Str: value.V}

	case *ast.ValueOid:
		return &asn1.Value{Kind: asn1.ValueOID, OID: r.resolveOid(module, value.Components)}

	case *ast.ValueReference:
		if declared != nil {
			if variant, ok := enumVariant(declared, value.Name.Name); ok {
				return &asn1.Value{
					Kind: asn1.ValueEnumVariant,
					Name: variant.Name,
					Int:  variant.Number,
				}
			}
			if named, ok := namedValue(declared, value.Name.Name); ok {
				return &asn1.Value{Kind: asn1.ValueInteger, Int: named.Value, Name: named.Name}
			}
		}
		if n, ok := r.evalIntRef(module, value.Name); ok {
			return &asn1.Value{Kind: asn1.ValueInteger, Int: n, Name: value.Name.Name}
		}
		return nil

	default:
		return nil
	}
}

// enumVariant finds a variant by name on an enumerated type, following
// references.
func enumVariant(t *asn1.Type, name string) (asn1.Variant, bool) {
	resolved := t.Resolved()
	if resolved == nil || resolved.Kind != asn1.KindEnumerated {
		return asn1.Variant{}, false
	}
	for _, v := range resolved.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return asn1.Variant{}, false
}

// namedValue finds an INTEGER named number or BIT STRING named bit by
// name, following references.
func namedValue(t *asn1.Type, name string) (asn1.NamedValue, bool) {
	resolved := t.Resolved()
	if resolved == nil {
		return asn1.NamedValue{}, false
	}
	for _, nv := range resolved.NamedValues {
		if nv.Name == name {
			return nv, true
		}
	}
	return asn1.NamedValue{}, false
}

// applyPendingConstraints rewrites references that carried a subtype
// constraint into structural copies of their target with the constraint
// substituted.
func (r *Resolver) applyPendingConstraints() {
	for t, pending := range r.pendingConstraints {
		base := t.Resolved()
		if base == nil || base == t {
			continue // unresolved reference, already reported
		}

		r.current = pending.module
		clone := *base
		switch base.Kind {
		case asn1.KindInteger:
			clone.Range = r.resolveRange(pending.module, pending.constraint, false)
		case asn1.KindString, asn1.KindOctetString, asn1.KindBitString,
			asn1.KindSequenceOf, asn1.KindSetOf:
			clone.Size = r.resolveRange(pending.module, pending.constraint, true)
		default:
			continue // constraint not applicable, keep the plain reference
		}
		*t = clone
	}
}
