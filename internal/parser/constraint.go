package parser

import (
	"fmt"

	"github.com/asn1go/asn1go/internal/ast"
	"github.com/asn1go/asn1go/internal/lexer"
	"github.com/asn1go/asn1go/internal/types"
)

// parseOptionalSizeConstraint parses `(SIZE (…))` when present.
func (p *Parser) parseOptionalSizeConstraint() (*ast.Constraint, *types.SpanDiagnostic) {
	if !p.check(lexer.TokLParen) {
		return nil, nil
	}
	constraint, err := p.parseConstraint()
	if err != nil {
		return nil, err
	}
	if constraint != nil && constraint.Kind != ast.ConstraintSize {
		diag := p.makeError("expected SIZE constraint")
		return nil, &diag
	}
	return constraint, nil
}

// parseConstraint parses a parenthesised subtype constraint:
//
//	( SIZE (lower..upper[, ...]) )
//	( lower..upper[, ...] )
//	( WITH COMPONENTS { … } )   -- parsed and discarded
//
// Returns nil (with no error) for a WITH COMPONENTS constraint.
func (p *Parser) parseConstraint() (*ast.Constraint, *types.SpanDiagnostic) {
	start := p.currentSpan().Start
	p.advance() // (

	if p.check(lexer.TokKwWith) {
		if err := p.skipWithComponents(); err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokRParen); err != nil {
			return nil, err
		}
		return nil, nil
	}

	kind := ast.ConstraintRange
	if p.check(lexer.TokKwSize) {
		p.advance()
		kind = ast.ConstraintSize
		if _, err := p.expect(lexer.TokLParen); err != nil {
			return nil, err
		}
	}

	constraint, err := p.parseRangeBody(kind, start)
	if err != nil {
		return nil, err
	}

	if kind == ast.ConstraintSize {
		if _, err := p.expect(lexer.TokRParen); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.TokRParen); err != nil {
		return nil, err
	}

	constraint.Span = types.NewSpan(start, p.currentSpan().Start)
	return constraint, nil
}

// parseRangeBody parses the interior of a range or size constraint:
// one or more `value[..value]` items separated by commas or pipes, with
// an optional trailing `...` extension marker. A union of ranges
// collapses to the overall lower and upper bound.
func (p *Parser) parseRangeBody(kind ast.ConstraintKind, start types.ByteOffset) (*ast.Constraint, *types.SpanDiagnostic) {
	constraint := &ast.Constraint{Kind: kind}
	first := true

	for {
		if p.check(lexer.TokEllipsis) {
			p.advance()
			constraint.Extensible = true
			if p.check(lexer.TokComma) || p.check(lexer.TokPipe) {
				p.advance()
				continue
			}
			break
		}

		lower, err := p.parseBound()
		if err != nil {
			return nil, err
		}
		upper := lower

		if p.check(lexer.TokDotDot) {
			p.advance()
			upper, err = p.parseBound()
			if err != nil {
				return nil, err
			}
		}

		if first {
			constraint.Lower = lower
			constraint.Upper = upper
			first = false
		} else {
			// union of ranges: keep the overall envelope
			constraint.Lower = minBound(constraint.Lower, lower)
			constraint.Upper = maxBound(constraint.Upper, upper)
		}

		if p.check(lexer.TokComma) || p.check(lexer.TokPipe) {
			p.advance()
			continue
		}
		break
	}

	if first {
		diag := p.makeError("empty constraint")
		return nil, &diag
	}

	return constraint, nil
}

// parseBound parses one end of a range: a literal, MIN, MAX, or a value
// reference.
func (p *Parser) parseBound() (ast.Bound, *types.SpanDiagnostic) {
	switch p.peek().Kind {
	case lexer.TokNumber, lexer.TokNegativeNumber:
		tok := p.advance()
		v, ok := p.parseI64(tok.Span, "constraint bound")
		if !ok {
			return ast.Bound{}, nil
		}
		return ast.LiteralBound(v, tok.Span), nil

	case lexer.TokKwMin:
		tok := p.advance()
		return ast.Bound{Kind: ast.BoundMin, Span: tok.Span}, nil

	case lexer.TokKwMax:
		tok := p.advance()
		return ast.Bound{Kind: ast.BoundMax, Span: tok.Span}, nil

	case lexer.TokLowercaseIdent:
		tok := p.advance()
		return ast.Bound{Kind: ast.BoundReference, Ref: p.makeIdent(tok), Span: tok.Span}, nil

	default:
		diag := p.makeError(fmt.Sprintf("expected constraint bound, found %s", p.peek().Kind.Name()))
		return ast.Bound{}, &diag
	}
}

// minBound and maxBound collapse range unions. MIN/MAX sentinels always
// dominate their side and two literals compare numerically; when either
// bound is symbolic no comparison is made, and minBound keeps the earlier
// bound while maxBound takes the later one.
func minBound(a, b ast.Bound) ast.Bound {
	if a.Kind == ast.BoundMin || b.Kind == ast.BoundMin {
		if a.Kind == ast.BoundMin {
			return a
		}
		return b
	}
	if a.Kind == ast.BoundLiteral && b.Kind == ast.BoundLiteral {
		if b.Literal < a.Literal {
			return b
		}
		return a
	}
	return a
}

func maxBound(a, b ast.Bound) ast.Bound {
	if a.Kind == ast.BoundMax || b.Kind == ast.BoundMax {
		if a.Kind == ast.BoundMax {
			return a
		}
		return b
	}
	if a.Kind == ast.BoundLiteral && b.Kind == ast.BoundLiteral {
		if b.Literal > a.Literal {
			return b
		}
		return a
	}
	return b
}

// skipWithComponents consumes `WITH COMPONENTS { … }` balancing braces.
// Nothing of the constraint is kept: neither a constraint nor its raw
// text reaches the AST.
func (p *Parser) skipWithComponents() *types.SpanDiagnostic {
	p.advance() // WITH
	if _, err := p.expect(lexer.TokKwComponents); err != nil {
		return err
	}
	if _, err := p.expect(lexer.TokLBrace); err != nil {
		return err
	}
	depth := 1
	for depth > 0 && !p.isEOF() {
		switch p.advance().Kind {
		case lexer.TokLBrace:
			depth++
		case lexer.TokRBrace:
			depth--
		}
	}
	if depth > 0 {
		diag := p.makeError("unterminated WITH COMPONENTS constraint")
		return &diag
	}
	return nil
}
