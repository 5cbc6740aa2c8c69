package parser

import (
	"fmt"

	"github.com/asn1go/asn1go/internal/ast"
	"github.com/asn1go/asn1go/internal/lexer"
	"github.com/asn1go/asn1go/internal/types"
)

// parseTag parses an optional `[class number]` prefix followed by an
// optional EXPLICIT/IMPLICIT mode keyword. Returns nil when the current
// token does not open a tag.
func (p *Parser) parseTag() (*ast.Tag, *types.SpanDiagnostic) {
	if !p.check(lexer.TokLBracket) {
		return nil, nil
	}
	start := p.currentSpan().Start
	p.advance() // [

	tag := ast.Tag{Class: ast.TagClassContext}
	switch p.peek().Kind {
	case lexer.TokKwUniversal:
		p.advance()
		tag.Class = ast.TagClassUniversal
	case lexer.TokKwApplication:
		p.advance()
		tag.Class = ast.TagClassApplication
	case lexer.TokKwPrivate:
		p.advance()
		tag.Class = ast.TagClassPrivate
	}

	numTok, err := p.expect(lexer.TokNumber)
	if err != nil {
		return nil, err
	}
	if num, ok := p.parseU32(numTok.Span, "tag number"); ok {
		tag.Number = num
	}

	if _, err := p.expect(lexer.TokRBracket); err != nil {
		return nil, err
	}

	switch p.peek().Kind {
	case lexer.TokKwExplicit:
		p.advance()
		tag.Mode = ast.TagModeExplicit
	case lexer.TokKwImplicit:
		p.advance()
		tag.Mode = ast.TagModeImplicit
	}

	tag.Span = types.NewSpan(start, p.currentSpan().Start)
	return &tag, nil
}

// parseType parses a type expression.
func (p *Parser) parseType() (ast.TypeSyntax, *types.SpanDiagnostic) {
	start := p.currentSpan().Start

	switch p.peek().Kind {
	case lexer.TokKwBoolean:
		tok := p.advance()
		return &ast.TypeBoolean{Span: tok.Span}, nil

	case lexer.TokKwNull:
		tok := p.advance()
		return &ast.TypeNull{Span: tok.Span}, nil

	case lexer.TokKwInteger:
		return p.parseIntegerType()

	case lexer.TokKwEnumerated:
		return p.parseEnumeratedType()

	case lexer.TokKwUTF8String:
		p.advance()
		return p.parseStringType(ast.CharsetUTF8, start)
	case lexer.TokKwIA5String:
		p.advance()
		return p.parseStringType(ast.CharsetIA5, start)
	case lexer.TokKwNumericString:
		p.advance()
		return p.parseStringType(ast.CharsetNumeric, start)
	case lexer.TokKwPrintableString:
		p.advance()
		return p.parseStringType(ast.CharsetPrintable, start)
	case lexer.TokKwVisibleString:
		p.advance()
		return p.parseStringType(ast.CharsetVisible, start)

	case lexer.TokKwOctet:
		p.advance()
		if _, err := p.expect(lexer.TokKwString); err != nil {
			return nil, err
		}
		size, err := p.parseOptionalSizeConstraint()
		if err != nil {
			return nil, err
		}
		return &ast.TypeOctetString{
			Size: size,
			Span: types.NewSpan(start, p.currentSpan().Start),
		}, nil

	case lexer.TokKwBit:
		return p.parseBitStringType()

	case lexer.TokKwSequence:
		p.advance()
		return p.parseSequenceOrOf(false, start)

	case lexer.TokKwSet:
		p.advance()
		return p.parseSequenceOrOf(true, start)

	case lexer.TokKwChoice:
		return p.parseChoiceType()

	case lexer.TokUppercaseIdent:
		return p.parseTypeReference()

	default:
		diag := p.makeError(fmt.Sprintf("expected type, found %s", p.peek().Kind.Name()))
		return nil, &diag
	}
}

// parseTypeReference parses `Type` or `Module.Type`, optionally followed
// by a subtype constraint applied to the referenced type.
func (p *Parser) parseTypeReference() (ast.TypeSyntax, *types.SpanDiagnostic) {
	nameTok := p.advance()
	name := p.makeIdent(nameTok)

	ref := &ast.TypeReference{Name: name}
	if p.check(lexer.TokDot) && p.peekNth(1).Kind == lexer.TokUppercaseIdent {
		p.advance() // .
		inner := p.makeIdent(p.advance())
		moduleName := name
		ref = &ast.TypeReference{Module: &moduleName, Name: inner}
	}

	if p.check(lexer.TokLParen) {
		constraint, err := p.parseConstraint()
		if err != nil {
			return nil, err
		}
		ref.Constraint = constraint
	}

	return ref, nil
}

// parseIntegerType parses INTEGER with optional named numbers and
// optional range constraint.
func (p *Parser) parseIntegerType() (ast.TypeSyntax, *types.SpanDiagnostic) {
	start := p.currentSpan().Start
	p.advance() // INTEGER

	result := &ast.TypeInteger{}

	if p.check(lexer.TokLBrace) {
		named, err := p.parseNamedNumberList()
		if err != nil {
			return nil, err
		}
		result.NamedNumbers = named
	}

	if p.check(lexer.TokLParen) {
		constraint, err := p.parseConstraint()
		if err != nil {
			return nil, err
		}
		result.Constraint = constraint
	}

	result.Span = types.NewSpan(start, p.currentSpan().Start)
	return result, nil
}

func (p *Parser) parseStringType(charset ast.Charset, start types.ByteOffset) (ast.TypeSyntax, *types.SpanDiagnostic) {
	size, err := p.parseOptionalSizeConstraint()
	if err != nil {
		return nil, err
	}
	return &ast.TypeString{
		Charset: charset,
		Size:    size,
		Span:    types.NewSpan(start, p.currentSpan().Start),
	}, nil
}

// parseBitStringType parses BIT STRING with optional named bits and
// optional SIZE constraint.
func (p *Parser) parseBitStringType() (ast.TypeSyntax, *types.SpanDiagnostic) {
	start := p.currentSpan().Start
	p.advance() // BIT
	if _, err := p.expect(lexer.TokKwString); err != nil {
		return nil, err
	}

	result := &ast.TypeBitString{}

	if p.check(lexer.TokLBrace) {
		named, err := p.parseNamedNumberList()
		if err != nil {
			return nil, err
		}
		result.NamedBits = named
	}

	size, err := p.parseOptionalSizeConstraint()
	if err != nil {
		return nil, err
	}
	result.Size = size

	result.Span = types.NewSpan(start, p.currentSpan().Start)
	return result, nil
}

// parseEnumeratedType parses ENUMERATED { a, b, ..., c }.
func (p *Parser) parseEnumeratedType() (ast.TypeSyntax, *types.SpanDiagnostic) {
	start := p.currentSpan().Start
	p.advance() // ENUMERATED

	if _, err := p.expect(lexer.TokLBrace); err != nil {
		return nil, err
	}

	result := &ast.TypeEnumerated{ExtensionAfter: -1}

	for !p.check(lexer.TokRBrace) {
		if p.isEOF() {
			diag := p.makeError("unexpected end of enumeration")
			return nil, &diag
		}

		if p.check(lexer.TokEllipsis) {
			tok := p.advance()
			if result.ExtensionAfter >= 0 {
				p.recordParseError(types.SpanDiagnostic{
					Severity: types.SeverityError,
					Code:     types.DiagMisplacedExtension,
					Span:     tok.Span,
					Message:  "duplicate extension marker in enumeration",
				})
			} else {
				result.ExtensionAfter = len(result.Variants) - 1
			}
		} else {
			nameTok, err := p.expect(lexer.TokLowercaseIdent)
			if err != nil {
				return nil, err
			}
			variant := ast.EnumVariant{
				Name: p.makeIdent(nameTok),
				Span: nameTok.Span,
			}
			if p.check(lexer.TokLParen) {
				p.advance()
				numTok := p.peek()
				if numTok.Kind != lexer.TokNumber && numTok.Kind != lexer.TokNegativeNumber {
					diag := p.makeError("expected number in enumeration value")
					return nil, &diag
				}
				p.advance()
				if v, ok := p.parseI64(numTok.Span, "enumeration value"); ok {
					variant.Number = &v
				}
				if _, err := p.expect(lexer.TokRParen); err != nil {
					return nil, err
				}
			}
			result.Variants = append(result.Variants, variant)
		}

		if p.check(lexer.TokComma) {
			p.advance()
		}
	}
	p.advance() // }

	result.Span = types.NewSpan(start, p.currentSpan().Start)
	return result, nil
}

// parseSequenceOrOf dispatches after a consumed SEQUENCE or SET keyword:
// either a component list `{ … }` or a `[SIZE(…)] OF Type` collection.
func (p *Parser) parseSequenceOrOf(isSet bool, start types.ByteOffset) (ast.TypeSyntax, *types.SpanDiagnostic) {
	if p.check(lexer.TokLBrace) {
		return p.parseComponentList(isSet, start)
	}

	var size *ast.Constraint
	if p.check(lexer.TokLParen) {
		constraint, err := p.parseConstraint()
		if err != nil {
			return nil, err
		}
		if constraint != nil && constraint.Kind != ast.ConstraintSize {
			diag := p.makeError("expected SIZE constraint before OF")
			return nil, &diag
		}
		size = constraint
	}

	if _, err := p.expect(lexer.TokKwOf); err != nil {
		return nil, err
	}

	inner, err := p.parseType()
	if err != nil {
		return nil, err
	}

	return &ast.TypeSequenceOf{
		IsSet: isSet,
		Size:  size,
		Inner: inner,
		Span:  types.NewSpan(start, p.currentSpan().Start),
	}, nil
}

// parseComponentList parses the `{ field, …, ..., ext }` body of a
// SEQUENCE or SET.
func (p *Parser) parseComponentList(isSet bool, start types.ByteOffset) (ast.TypeSyntax, *types.SpanDiagnostic) {
	p.advance() // {

	result := &ast.TypeSequence{IsSet: isSet, ExtensionAfter: -1}

	for !p.check(lexer.TokRBrace) {
		if p.isEOF() {
			diag := p.makeError("unexpected end of component list")
			return nil, &diag
		}

		if p.check(lexer.TokEllipsis) {
			tok := p.advance()
			if result.ExtensionAfter >= 0 {
				p.recordParseError(types.SpanDiagnostic{
					Severity: types.SeverityError,
					Code:     types.DiagMisplacedExtension,
					Span:     tok.Span,
					Message:  "duplicate extension marker in component list",
				})
			} else {
				result.ExtensionAfter = len(result.Fields) - 1
			}
		} else {
			field, err := p.parseField()
			if err != nil {
				return nil, err
			}
			result.Fields = append(result.Fields, field)
		}

		if p.check(lexer.TokComma) {
			p.advance()
		}
	}
	p.advance() // }

	result.Span = types.NewSpan(start, p.currentSpan().Start)
	return result, nil
}

// parseField parses one component: name [Tag] Type [OPTIONAL | DEFAULT value].
func (p *Parser) parseField() (ast.Field, *types.SpanDiagnostic) {
	nameTok, err := p.expect(lexer.TokLowercaseIdent)
	if err != nil {
		return ast.Field{}, err
	}
	start := nameTok.Span.Start

	field := ast.Field{Name: p.makeIdent(nameTok)}

	tag, err := p.parseTag()
	if err != nil {
		return ast.Field{}, err
	}
	field.Tag = tag

	fieldType, err := p.parseType()
	if err != nil {
		return ast.Field{}, err
	}
	field.Type = fieldType

	switch p.peek().Kind {
	case lexer.TokKwOptional:
		p.advance()
		field.Optional = true
	case lexer.TokKwDefault:
		p.advance()
		value, err := p.parseValue()
		if err != nil {
			return ast.Field{}, err
		}
		field.Default = value
	}

	field.Span = types.NewSpan(start, p.currentSpan().Start)
	return field, nil
}

// parseChoiceType parses CHOICE { alt, …, ... }.
func (p *Parser) parseChoiceType() (ast.TypeSyntax, *types.SpanDiagnostic) {
	start := p.currentSpan().Start
	p.advance() // CHOICE

	if _, err := p.expect(lexer.TokLBrace); err != nil {
		return nil, err
	}

	result := &ast.TypeChoice{ExtensionAfter: -1}

	for !p.check(lexer.TokRBrace) {
		if p.isEOF() {
			diag := p.makeError("unexpected end of choice")
			return nil, &diag
		}

		if p.check(lexer.TokEllipsis) {
			tok := p.advance()
			if result.ExtensionAfter >= 0 {
				p.recordParseError(types.SpanDiagnostic{
					Severity: types.SeverityError,
					Code:     types.DiagMisplacedExtension,
					Span:     tok.Span,
					Message:  "duplicate extension marker in choice",
				})
			} else {
				result.ExtensionAfter = len(result.Alternatives) - 1
			}
		} else {
			nameTok, err := p.expect(lexer.TokLowercaseIdent)
			if err != nil {
				return nil, err
			}

			alternative := ast.Alternative{Name: p.makeIdent(nameTok)}

			tag, err := p.parseTag()
			if err != nil {
				return nil, err
			}
			alternative.Tag = tag

			altType, err := p.parseType()
			if err != nil {
				return nil, err
			}
			alternative.Type = altType
			alternative.Span = types.NewSpan(nameTok.Span.Start, p.currentSpan().Start)

			result.Alternatives = append(result.Alternatives, alternative)
		}

		if p.check(lexer.TokComma) {
			p.advance()
		}
	}
	p.advance() // }

	result.Span = types.NewSpan(start, p.currentSpan().Start)
	return result, nil
}

// parseNamedNumberList parses `{ name(value), … }` for INTEGER named
// numbers and BIT STRING named bits. Values may be literals or value
// references.
func (p *Parser) parseNamedNumberList() ([]ast.NamedNumber, *types.SpanDiagnostic) {
	p.advance() // {

	var named []ast.NamedNumber

	for !p.check(lexer.TokRBrace) {
		if p.isEOF() {
			diag := p.makeError("unexpected end of named number list")
			return named, &diag
		}

		nameTok, err := p.expect(lexer.TokLowercaseIdent)
		if err != nil {
			return named, err
		}
		if _, err := p.expect(lexer.TokLParen); err != nil {
			return named, err
		}

		var value ast.Bound
		switch p.peek().Kind {
		case lexer.TokNumber, lexer.TokNegativeNumber:
			tok := p.advance()
			if v, ok := p.parseI64(tok.Span, "named number"); ok {
				value = ast.LiteralBound(v, tok.Span)
			}
		case lexer.TokLowercaseIdent:
			tok := p.advance()
			value = ast.Bound{Kind: ast.BoundReference, Ref: p.makeIdent(tok), Span: tok.Span}
		default:
			diag := p.makeError("expected number or value reference")
			return named, &diag
		}

		if _, err := p.expect(lexer.TokRParen); err != nil {
			return named, err
		}

		named = append(named, ast.NamedNumber{
			Name:  p.makeIdent(nameTok),
			Value: value,
			Span:  types.NewSpan(nameTok.Span.Start, p.currentSpan().Start),
		})

		if p.check(lexer.TokComma) {
			p.advance()
		}
	}
	p.advance() // }

	return named, nil
}
