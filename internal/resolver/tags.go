package resolver

import (
	"log/slog"
	"slices"

	"github.com/asn1go/asn1go/asn1"
	"github.com/asn1go/asn1go/internal/types"
)

// zeroTag is the "no tag assigned yet" sentinel. UNIVERSAL 0 is reserved
// by X.680 and never appears in source.
var zeroTag = asn1.Tag{}

// canonicalizeTags is phase two of resolution for one definition:
// every type and component receives its canonical tag (X.680 8.6),
// AUTOMATIC TAGS environments assign fresh context tags per aggregate,
// SET components are reordered canonically and collisions are reported.
func (r *Resolver) canonicalizeTags(module *asn1.Module, def *asn1.Definition) {
	visited := make(map[*asn1.Type]bool)
	r.walkTags(module, def.Type, visited)

	if r.TraceEnabled() {
		r.Trace("tags canonicalized",
			slog.String("module", module.Name),
			slog.String("definition", def.Name))
	}
}

func (r *Resolver) walkTags(module *asn1.Module, t *asn1.Type, visited map[*asn1.Type]bool) {
	if t == nil || visited[t] {
		return
	}
	visited[t] = true

	switch t.Kind {
	case asn1.KindSequence, asn1.KindSet, asn1.KindChoice:
		r.assignComponentTags(module, t)
		for i := range t.Fields {
			r.walkTags(module, t.Fields[i].Type, visited)
		}
		if t.Kind == asn1.KindSet {
			r.orderSetFields(t)
		}
		r.checkTagCollisions(t)

	case asn1.KindSequenceOf, asn1.KindSetOf:
		r.walkTags(module, t.Inner, visited)
	}

	if t.Tag == zeroTag {
		t.Tag = r.tagOfType(t, make(map[*asn1.Type]bool))
	}
}

// assignComponentTags fills in the tag of every component that has no
// explicit source tag. Under AUTOMATIC TAGS a fresh context-specific
// tag per component is assigned in declaration order, unless any
// component already bears an explicit tag.
func (r *Resolver) assignComponentTags(module *asn1.Module, t *asn1.Type) {
	automatic := module.TagDefault == asn1.TagDefaultAutomatic
	if automatic {
		for i := range t.Fields {
			if t.Fields[i].Tag != zeroTag {
				automatic = false
				break
			}
		}
	}

	if automatic {
		for i := range t.Fields {
			t.Fields[i].Tag = asn1.Tag{
				Class:  asn1.TagClassContext,
				Number: uint32(i),
				Mode:   asn1.TagModeImplicit,
			}
		}
		return
	}

	for i := range t.Fields {
		if t.Fields[i].Tag == zeroTag {
			t.Fields[i].Tag = r.tagOfType(t.Fields[i].Type, make(map[*asn1.Type]bool))
		}
	}
}

// tagOfType computes the canonical tag a type contributes in an
// untagged position: the universal tag of its kind, the target's tag
// for references, and the smallest alternative tag for an untagged
// CHOICE (X.680 8.6, 41 table 8).
func (r *Resolver) tagOfType(t *asn1.Type, guard map[*asn1.Type]bool) asn1.Tag {
	if t == nil || guard[t] {
		return zeroTag
	}
	guard[t] = true

	switch t.Kind {
	case asn1.KindBoolean:
		return asn1.TagBoolean
	case asn1.KindNull:
		return asn1.TagNull
	case asn1.KindInteger:
		return asn1.TagInteger
	case asn1.KindString:
		switch t.Charset {
		case asn1.CharsetIA5:
			return asn1.TagIA5String
		case asn1.CharsetNumeric:
			return asn1.TagNumericString
		case asn1.CharsetPrintable:
			return asn1.TagPrintableString
		case asn1.CharsetVisible:
			return asn1.TagVisibleString
		default:
			return asn1.TagUTF8String
		}
	case asn1.KindOctetString:
		return asn1.TagOctetString
	case asn1.KindBitString:
		return asn1.TagBitString
	case asn1.KindEnumerated:
		return asn1.TagEnumerated
	case asn1.KindSequence, asn1.KindSequenceOf:
		return asn1.TagSequence
	case asn1.KindSet, asn1.KindSetOf:
		return asn1.TagSet

	case asn1.KindChoice:
		smallest := zeroTag
		for i := range t.Fields {
			tag := t.Fields[i].Tag
			if tag == zeroTag {
				tag = r.tagOfType(t.Fields[i].Type, guard)
			}
			if tag == zeroTag {
				continue
			}
			if smallest == zeroTag || tag.Compare(smallest) < 0 {
				smallest = tag
			}
		}
		return smallest

	case asn1.KindReference:
		if t.Tag != zeroTag {
			return t.Tag
		}
		if t.Ref != nil && t.Ref.Type != nil {
			return r.tagOfType(t.Ref.Type, guard)
		}
		return zeroTag

	default:
		return zeroTag
	}
}

// orderSetFields puts root SET components into canonical tag order.
// Extension additions keep declaration order after the root block.
func (r *Resolver) orderSetFields(t *asn1.Type) {
	rootCount := t.RootFieldCount()
	root := t.Fields[:rootCount]
	slices.SortStableFunc(root, func(a, b asn1.Field) int {
		return a.Tag.Compare(b.Tag)
	})
}

// checkTagCollisions reports equal canonical tags within one aggregate.
// Only the root components of a SET and the alternatives of a CHOICE
// need distinct tags for canonical ordering and decoding.
func (r *Resolver) checkTagCollisions(t *asn1.Type) {
	if t.Kind != asn1.KindSet && t.Kind != asn1.KindChoice {
		return
	}
	seen := make(map[asn1.Tag]string, len(t.Fields))
	for i := 0; i < t.RootFieldCount(); i++ {
		field := &t.Fields[i]
		if field.Tag == zeroTag {
			continue
		}
		key := asn1.Tag{Class: field.Tag.Class, Number: field.Tag.Number}
		if other, dup := seen[key]; dup {
			r.error(types.DiagTagCollision, types.Synthetic,
				"components %q and %q share canonical tag [%s %d]",
				other, field.Name, key.Class, key.Number)
			continue
		}
		seen[key] = field.Name
	}
}
