package resolver

import (
	"github.com/asn1go/asn1go/asn1"
	"github.com/asn1go/asn1go/internal/ast"
	"github.com/asn1go/asn1go/internal/types"
)

// resolveType converts an AST type expression into a resolved type.
// Constraint bounds are substituted here (phase one); canonical tags
// are filled in afterwards by canonicalizeTags (phase two), except for
// explicit source tags which are recorded immediately.
func (r *Resolver) resolveType(module *ast.Module, ts ast.TypeSyntax, topTag *ast.Tag) *asn1.Type {
	result := r.convertType(module, ts)
	if topTag != nil {
		result.Tag = r.convertTag(module, topTag)
	}
	return result
}

// convertTag maps a source tag to the resolved model, resolving an
// unspecified mode against the module's tagging environment.
func (r *Resolver) convertTag(module *ast.Module, tag *ast.Tag) asn1.Tag {
	mode := asn1.TagModeExplicit
	switch tag.Mode {
	case ast.TagModeImplicit:
		mode = asn1.TagModeImplicit
	case ast.TagModeExplicit:
		mode = asn1.TagModeExplicit
	case ast.TagModeUnspecified:
		if module.TagDefault != ast.TagDefaultExplicit {
			mode = asn1.TagModeImplicit
		}
	}
	return asn1.Tag{
		Class:  asn1.TagClass(tag.Class),
		Number: tag.Number,
		Mode:   mode,
	}
}

func (r *Resolver) convertType(module *ast.Module, ts ast.TypeSyntax) *asn1.Type {
	switch t := ts.(type) {
	case *ast.TypeBoolean:
		return &asn1.Type{Kind: asn1.KindBoolean}

	case *ast.TypeNull:
		return &asn1.Type{Kind: asn1.KindNull}

	case *ast.TypeInteger:
		result := &asn1.Type{
			Kind:  asn1.KindInteger,
			Range: r.resolveRange(module, t.Constraint, false),
		}
		for _, nn := range t.NamedNumbers {
			value, _ := r.resolveBound(module, nn.Value, false)
			result.NamedValues = append(result.NamedValues, asn1.NamedValue{
				Name:  nn.Name.Name,
				Value: value,
			})
		}
		return result

	case *ast.TypeString:
		return &asn1.Type{
			Kind:    asn1.KindString,
			Charset: asn1.Charset(t.Charset),
			Size:    r.resolveRange(module, t.Size, true),
		}

	case *ast.TypeOctetString:
		return &asn1.Type{
			Kind: asn1.KindOctetString,
			Size: r.resolveRange(module, t.Size, true),
		}

	case *ast.TypeBitString:
		result := &asn1.Type{
			Kind: asn1.KindBitString,
			Size: r.resolveRange(module, t.Size, true),
		}
		for _, nb := range t.NamedBits {
			value, _ := r.resolveBound(module, nb.Value, false)
			result.NamedValues = append(result.NamedValues, asn1.NamedValue{
				Name:  nb.Name.Name,
				Value: value,
			})
		}
		return result

	case *ast.TypeEnumerated:
		result := &asn1.Type{
			Kind:           asn1.KindEnumerated,
			ExtensionAfter: t.ExtensionAfter,
		}
		for i, v := range t.Variants {
			number := int64(i)
			if v.Number != nil {
				number = *v.Number
			}
			result.Variants = append(result.Variants, asn1.Variant{
				Name:   v.Name.Name,
				Number: number,
			})
		}
		return result

	case *ast.TypeSequence:
		kind := asn1.KindSequence
		if t.IsSet {
			kind = asn1.KindSet
		}
		result := &asn1.Type{
			Kind:           kind,
			ExtensionAfter: t.ExtensionAfter,
		}
		seen := make(map[string]bool, len(t.Fields))
		for i, f := range t.Fields {
			if seen[f.Name.Name] {
				r.error(types.DiagInconsistentModel, f.Span,
					"duplicate field %q", f.Name.Name)
			}
			seen[f.Name.Name] = true

			field := asn1.Field{
				Name:        f.Name.Name,
				Type:        r.convertType(module, f.Type),
				Optional:    f.Optional,
				InExtension: t.ExtensionAfter >= 0 && i > t.ExtensionAfter,
			}
			if f.Tag != nil {
				field.Tag = r.convertTag(module, f.Tag)
			}
			result.Fields = append(result.Fields, field)
		}
		// DEFAULT values resolve in a post-pass so they may reference
		// enumerations defined later in the batch
		for i := range result.Fields {
			if t.Fields[i].Default != nil {
				r.pendingDefaults = append(r.pendingDefaults, pendingDefault{
					module: module,
					value:  t.Fields[i].Default,
					field:  &result.Fields[i],
				})
			}
		}
		return result

	case *ast.TypeSequenceOf:
		kind := asn1.KindSequenceOf
		if t.IsSet {
			kind = asn1.KindSetOf
		}
		return &asn1.Type{
			Kind:  kind,
			Size:  r.resolveRange(module, t.Size, true),
			Inner: r.convertType(module, t.Inner),
		}

	case *ast.TypeChoice:
		result := &asn1.Type{
			Kind:           asn1.KindChoice,
			ExtensionAfter: t.ExtensionAfter,
		}
		for i, alternative := range t.Alternatives {
			field := asn1.Field{
				Name:        alternative.Name.Name,
				Type:        r.convertType(module, alternative.Type),
				InExtension: t.ExtensionAfter >= 0 && i > t.ExtensionAfter,
			}
			if alternative.Tag != nil {
				field.Tag = r.convertTag(module, alternative.Tag)
			}
			result.Fields = append(result.Fields, field)
		}
		return result

	case *ast.TypeReference:
		result := &asn1.Type{
			Kind:    asn1.KindReference,
			RefName: t.Name.Name,
		}

		fromModule := module.Name.Name
		if t.Module != nil {
			// a qualified reference bypasses the import table
			fromModule = t.Module.Name
			if _, known := r.assignments[fromModule]; !known {
				r.error(types.DiagImportModuleUnknown, t.Name.Span,
					"unknown module %q in qualified reference", fromModule)
			}
		}

		if def, ok := r.lookupDefinition(fromModule, t.Name.Name); ok {
			result.Ref = def
		} else {
			r.error(types.DiagUnresolvedType, t.Name.Span,
				"unresolved type reference %q", t.Name.Name)
		}

		if t.Constraint != nil {
			r.pendingConstraints[result] = pendingConstraint{
				module:     module,
				constraint: t.Constraint,
			}
		}
		return result

	default:
		r.error(types.DiagInconsistentModel, ts.SyntaxSpan(), "unsupported type syntax")
		return &asn1.Type{Kind: asn1.KindNull}
	}
}
