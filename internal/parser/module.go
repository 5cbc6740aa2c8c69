package parser

import (
	"fmt"

	"github.com/asn1go/asn1go/internal/ast"
	"github.com/asn1go/asn1go/internal/lexer"
	"github.com/asn1go/asn1go/internal/types"
)

// parseModuleHeader parses:
//
//	ModuleName [{ oid }] DEFINITIONS [TagDefault TAGS] ::= BEGIN
func (p *Parser) parseModuleHeader() (ast.Ident, ast.TagDefault, *types.SpanDiagnostic) {
	nameToken, err := p.expect(lexer.TokUppercaseIdent)
	if err != nil {
		return ast.Ident{}, ast.TagDefaultExplicit, err
	}
	name := p.makeIdent(nameToken)

	if p.check(lexer.TokLBrace) {
		oid, err := p.parseOidComponents()
		if err != nil {
			return ast.Ident{}, ast.TagDefaultExplicit, err
		}
		p.pendingModuleOID = oid
	}

	if _, err := p.expect(lexer.TokKwDefinitions); err != nil {
		return ast.Ident{}, ast.TagDefaultExplicit, err
	}

	tagDefault := ast.TagDefaultExplicit
	switch p.peek().Kind {
	case lexer.TokKwAutomatic:
		p.advance()
		tagDefault = ast.TagDefaultAutomatic
		if _, err := p.expect(lexer.TokKwTags); err != nil {
			return ast.Ident{}, tagDefault, err
		}
	case lexer.TokKwImplicit:
		p.advance()
		tagDefault = ast.TagDefaultImplicit
		if _, err := p.expect(lexer.TokKwTags); err != nil {
			return ast.Ident{}, tagDefault, err
		}
	case lexer.TokKwExplicit:
		p.advance()
		if _, err := p.expect(lexer.TokKwTags); err != nil {
			return ast.Ident{}, tagDefault, err
		}
	}

	if _, err := p.expect(lexer.TokColonColonEqual); err != nil {
		return ast.Ident{}, tagDefault, err
	}
	if _, err := p.expect(lexer.TokKwBegin); err != nil {
		return ast.Ident{}, tagDefault, err
	}

	return name, tagDefault, nil
}

// skipExports consumes an EXPORTS clause up to and including its
// terminating semicolon. Export lists do not affect resolution here:
// every assignment is visible to importing modules.
func (p *Parser) skipExports() {
	p.advance() // EXPORTS
	for !p.isEOF() && !p.check(lexer.TokSemicolon) && !p.check(lexer.TokKwEnd) {
		p.advance()
	}
	if p.check(lexer.TokSemicolon) {
		p.advance()
	}
}

// parseImports parses: IMPORTS { symbol, … FROM Module [{oid}] } … ;
func (p *Parser) parseImports() ([]ast.ImportClause, *types.SpanDiagnostic) {
	if _, err := p.expect(lexer.TokKwImports); err != nil {
		return nil, err
	}

	var imports []ast.ImportClause

	for {
		if p.check(lexer.TokSemicolon) {
			p.advance()
			break
		}

		if p.isEOF() || p.check(lexer.TokKwEnd) {
			diag := p.makeError("unexpected end of imports")
			return imports, &diag
		}

		start := p.currentSpan().Start
		var symbols []ast.Ident

		for {
			if p.check(lexer.TokUppercaseIdent) || p.check(lexer.TokLowercaseIdent) {
				symbols = append(symbols, p.makeIdent(p.advance()))
			} else if p.check(lexer.TokKwFrom) {
				break
			} else {
				diag := p.makeError(fmt.Sprintf("expected symbol or FROM, found %s", p.peek().Kind.Name()))
				return imports, &diag
			}

			if p.check(lexer.TokComma) {
				p.advance()
			}
		}

		p.advance() // FROM

		moduleToken, err := p.expect(lexer.TokUppercaseIdent)
		if err != nil {
			return imports, err
		}

		clause := ast.ImportClause{
			Symbols: symbols,
			From:    p.makeIdent(moduleToken),
			Span:    types.NewSpan(start, moduleToken.Span.End),
		}

		// optional module object identifier after the module name
		if p.check(lexer.TokLBrace) {
			oid, err := p.parseOidComponents()
			if err != nil {
				return imports, err
			}
			clause.FromOID = oid
		}

		imports = append(imports, clause)
	}

	return imports, nil
}

// parseOidComponents parses a braced object identifier value:
//
//	{ iso(1) standard(0) 8571 name }
func (p *Parser) parseOidComponents() ([]ast.OidComponent, *types.SpanDiagnostic) {
	if _, err := p.expect(lexer.TokLBrace); err != nil {
		return nil, err
	}

	var components []ast.OidComponent

	for !p.check(lexer.TokRBrace) {
		if p.isEOF() {
			diag := p.makeError("unexpected end of object identifier")
			return components, &diag
		}

		start := p.currentSpan().Start

		switch p.peek().Kind {
		case lexer.TokNumber:
			tok := p.advance()
			if num, ok := p.parseU32(tok.Span, "object identifier arc"); ok {
				components = append(components, ast.OidComponent{
					Number: &num,
					Span:   tok.Span,
				})
			}

		case lexer.TokLowercaseIdent, lexer.TokUppercaseIdent:
			nameTok := p.advance()
			name := p.makeIdent(nameTok)
			component := ast.OidComponent{Name: &name, Span: nameTok.Span}

			if p.check(lexer.TokLParen) {
				p.advance()
				numTok, err := p.expect(lexer.TokNumber)
				if err != nil {
					return components, err
				}
				if num, ok := p.parseU32(numTok.Span, "object identifier arc"); ok {
					component.Number = &num
				}
				if _, err := p.expect(lexer.TokRParen); err != nil {
					return components, err
				}
				component.Span = types.NewSpan(start, p.currentSpan().Start)
			}

			components = append(components, component)

		default:
			diag := p.makeError(fmt.Sprintf("expected object identifier arc, found %s", p.peek().Kind.Name()))
			return components, &diag
		}
	}

	p.advance() // }
	return components, nil
}

// recoverToAssignment skips tokens until the start of a new assignment
// or END, allowing the parser to continue after an error.
func (p *Parser) recoverToAssignment() {
	for !p.isEOF() && !p.check(lexer.TokKwEnd) {
		current := p.peek().Kind
		next := p.peekNth(1).Kind

		if current == lexer.TokUppercaseIdent && next == lexer.TokColonColonEqual {
			return
		}
		if current == lexer.TokLowercaseIdent &&
			(next == lexer.TokUppercaseIdent || next == lexer.TokKwObject ||
				next.IsBuiltinType()) {
			return
		}

		p.advance()
	}
}
