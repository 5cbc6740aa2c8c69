package parser

import (
	"fmt"
	"log/slog"

	"github.com/asn1go/asn1go/internal/ast"
	"github.com/asn1go/asn1go/internal/lexer"
	"github.com/asn1go/asn1go/internal/types"
)

// parseAssignment dispatches to the appropriate assignment parser based
// on lookahead tokens.
func (p *Parser) parseAssignment() (ast.Assignment, *types.SpanDiagnostic) {
	first := p.peek().Kind
	second := p.peekNth(1).Kind

	if p.TraceEnabled() {
		p.Trace("parsing assignment",
			slog.Int("offset", int(p.currentSpan().Start)),
			slog.String("first", first.Name()),
			slog.String("second", second.Name()))
	}

	switch {
	// Type assignment: Name ::= [Tag] Type
	case first == lexer.TokUppercaseIdent && second == lexer.TokColonColonEqual:
		return p.parseTypeAssignment()

	// Object identifier assignment: name OBJECT IDENTIFIER ::= { … }
	case first == lexer.TokLowercaseIdent && second == lexer.TokKwObject &&
		p.peekNth(2).Kind == lexer.TokKwIdentifier:
		return p.parseOidAssignment()

	// Value assignment: name Type ::= value
	case first == lexer.TokLowercaseIdent:
		return p.parseValueAssignment()

	default:
		diag := p.makeError(fmt.Sprintf("expected assignment, found %s", first.Name()))
		return nil, &diag
	}
}

func (p *Parser) parseTypeAssignment() (ast.Assignment, *types.SpanDiagnostic) {
	nameTok := p.advance()
	name := p.makeIdent(nameTok)
	p.validateTypeName(name)

	p.advance() // ::=

	tag, err := p.parseTag()
	if err != nil {
		return nil, err
	}

	parsed, err := p.parseType()
	if err != nil {
		return nil, err
	}

	return &ast.TypeAssignment{
		Name: name,
		Tag:  tag,
		Type: parsed,
		Span: types.NewSpan(nameTok.Span.Start, p.currentSpan().Start),
	}, nil
}

func (p *Parser) parseOidAssignment() (ast.Assignment, *types.SpanDiagnostic) {
	nameTok := p.advance()
	name := p.makeIdent(nameTok)

	p.advance() // OBJECT
	p.advance() // IDENTIFIER

	if _, err := p.expect(lexer.TokColonColonEqual); err != nil {
		return nil, err
	}

	components, err := p.parseOidComponents()
	if err != nil {
		return nil, err
	}

	return &ast.OidAssignment{
		Name:       name,
		Components: components,
		Span:       types.NewSpan(nameTok.Span.Start, p.currentSpan().Start),
	}, nil
}

func (p *Parser) parseValueAssignment() (ast.Assignment, *types.SpanDiagnostic) {
	nameTok := p.advance()
	name := p.makeIdent(nameTok)

	valueType, err := p.parseType()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.TokColonColonEqual); err != nil {
		return nil, err
	}

	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}

	return &ast.ValueAssignment{
		Name:  name,
		Type:  valueType,
		Value: value,
		Span:  types.NewSpan(nameTok.Span.Start, p.currentSpan().Start),
	}, nil
}

// parseValue parses a value literal or reference: an integer, TRUE or
// FALSE, a quoted string, an identifier, or a braced OID value.
func (p *Parser) parseValue() (ast.Value, *types.SpanDiagnostic) {
	switch p.peek().Kind {
	case lexer.TokNumber, lexer.TokNegativeNumber:
		tok := p.advance()
		v, ok := p.parseI64(tok.Span, "value")
		if !ok {
			v = 0
		}
		return &ast.ValueInteger{V: v, Span: tok.Span}, nil

	case lexer.TokKwTrue:
		tok := p.advance()
		return &ast.ValueBoolean{V: true, Span: tok.Span}, nil

	case lexer.TokKwFalse:
		tok := p.advance()
		return &ast.ValueBoolean{V: false, Span: tok.Span}, nil

	case lexer.TokQuotedString:
		tok := p.advance()
		text := p.text(tok.Span)
		// strip the surrounding quotes; an unterminated literal may
		// lack the closing quote
		if len(text) >= 2 && text[len(text)-1] == '"' {
			text = text[1 : len(text)-1]
		} else if len(text) >= 1 {
			text = text[1:]
		}
		return &ast.ValueString{V: text, Span: tok.Span}, nil

	case lexer.TokLowercaseIdent:
		tok := p.advance()
		return &ast.ValueReference{Name: p.makeIdent(tok)}, nil

	case lexer.TokLBrace:
		start := p.currentSpan().Start
		components, err := p.parseOidComponents()
		if err != nil {
			return nil, err
		}
		return &ast.ValueOid{
			Components: components,
			Span:       types.NewSpan(start, p.currentSpan().Start),
		}, nil

	default:
		diag := p.makeError(fmt.Sprintf("expected value, found %s", p.peek().Kind.Name()))
		return nil, &diag
	}
}

// validateTypeName checks type assignment names for style violations.
func (p *Parser) validateTypeName(name ast.Ident) {
	if len(name.Name) > 64 {
		p.recordDiagnostic(types.DiagIdentifierLength, types.SeverityWarning, name.Span,
			fmt.Sprintf("identifier %q exceeds 64 characters (%d)", name.Name, len(name.Name)))
	}
}

// recordDiagnostic appends a diagnostic subject to Ignore filtering.
func (p *Parser) recordDiagnostic(code string, severity types.Severity, span types.Span, message string) {
	if !p.diagConfig.ShouldReport(code) {
		return
	}
	p.diagnostics = append(p.diagnostics, types.SpanDiagnostic{
		Severity: p.diagConfig.Effective(code, severity),
		Code:     code,
		Span:     span,
		Message:  message,
	})
}
