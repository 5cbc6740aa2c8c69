// Package parser provides ASN.1 module parsing into an AST.
//
// The parser is a recursive-descent parser over a 3-token lookahead
// buffer. Parse errors are collected as diagnostics rather than causing
// immediate failure; the parser attempts to recover at the next
// assignment and continue.
package parser

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/asn1go/asn1go/internal/ast"
	"github.com/asn1go/asn1go/internal/lexer"
	"github.com/asn1go/asn1go/internal/types"
)

// Parser converts a token stream into an AST module with diagnostics.
type Parser struct {
	source      []byte
	lex         *lexer.Lexer
	buf         [3]lexer.Token // lookahead buffer: buf[0]=current, buf[1]=peek(1), buf[2]=peek(2)
	diagnostics []types.SpanDiagnostic
	diagConfig  types.DiagnosticConfig
	eofToken    lexer.Token

	// pendingModuleOID carries the module header OID from
	// parseModuleHeader to ParseModule.
	pendingModuleOID []ast.OidComponent

	types.Logger
}

// New returns a Parser that lexes the source and prepares for parsing.
// Pass nil for logger to disable logging.
func New(source []byte, logger *slog.Logger, diagConfig types.DiagnosticConfig) *Parser {
	var lexLogger *slog.Logger
	if logger != nil {
		lexLogger = logger.With(slog.String("component", "lexer"))
	}
	lex := lexer.New(source, lexLogger)
	eofSpan := types.NewSpan(types.ByteOffset(len(source)), types.ByteOffset(len(source)))
	p := &Parser{
		source:     source,
		lex:        lex,
		diagConfig: diagConfig,
		eofToken:   lexer.NewToken(lexer.TokEOF, eofSpan),
		Logger:     types.Logger{L: logger},
	}
	p.buf[0] = lex.NextToken()
	p.buf[1] = lex.NextToken()
	p.buf[2] = lex.NextToken()
	p.Log(slog.LevelDebug, "parser initialized")
	return p
}

// ParseModule parses a complete module definition and returns its AST.
// Parse errors are collected in the module's diagnostics rather than
// causing immediate failure.
func (p *Parser) ParseModule() *ast.Module {
	start := p.currentSpan().Start

	name, tagDefault, err := p.parseModuleHeader()
	if err != nil {
		p.recordParseError(*err)
		p.Log(slog.LevelDebug, "failed to parse module header")
		span := types.NewSpan(start, p.currentSpan().End)
		m := ast.NewModule(ast.NewIdent("UNKNOWN", span), ast.TagDefaultExplicit, span)
		m.Diagnostics = append(p.lex.Diagnostics(), p.diagnostics...)
		return m
	}

	p.Log(slog.LevelDebug, "parsing module",
		slog.String("module", name.Name),
		slog.String("tags", tagDefault.String()))

	module := ast.NewModule(name, tagDefault, types.NewSpan(start, 0))
	module.OID = p.pendingModuleOID
	p.pendingModuleOID = nil

	if p.check(lexer.TokKwExports) {
		p.skipExports()
	}

	if p.check(lexer.TokKwImports) {
		imports, err := p.parseImports()
		if err != nil {
			p.recordParseError(*err)
		}
		module.Imports = imports
	}

	for !p.check(lexer.TokKwEnd) && !p.isEOF() {
		assignment, err := p.parseAssignment()
		if err != nil {
			p.recordParseError(*err)
			p.recoverToAssignment()
		} else {
			module.Assignments = append(module.Assignments, assignment)
		}
	}

	if p.check(lexer.TokKwEnd) {
		p.advance()
	} else {
		p.recordParseError(p.makeError("expected END"))
	}

	liftInlineTypes(module)

	module.Span = types.NewSpan(start, p.currentSpan().End)
	module.Diagnostics = append(p.lex.Diagnostics(), p.diagnostics...)

	p.Log(slog.LevelDebug, "parsing complete",
		slog.String("module", name.Name),
		slog.Int("assignments", len(module.Assignments)),
		slog.Int("diagnostics", len(module.Diagnostics)))

	return module
}

func (p *Parser) isEOF() bool {
	return p.peek().Kind == lexer.TokEOF
}

func (p *Parser) peek() lexer.Token {
	return p.buf[0]
}

func (p *Parser) peekNth(n int) lexer.Token {
	if n < len(p.buf) {
		return p.buf[n]
	}
	return p.eofToken
}

func (p *Parser) advance() lexer.Token {
	tok := p.buf[0]
	p.buf[0] = p.buf[1]
	p.buf[1] = p.buf[2]
	p.buf[2] = p.lex.NextToken()
	return tok
}

func (p *Parser) check(kind lexer.TokenKind) bool {
	return p.peek().Kind == kind
}

func (p *Parser) expect(kind lexer.TokenKind) (lexer.Token, *types.SpanDiagnostic) {
	if p.check(kind) {
		return p.advance(), nil
	}
	diag := p.makeError(fmt.Sprintf("expected %s, found %s", kind.Name(), p.peek().Kind.Name()))
	return lexer.Token{}, &diag
}

func (p *Parser) currentSpan() types.Span {
	return p.peek().Span
}

func (p *Parser) text(span types.Span) string {
	return string(p.source[span.Start:span.End])
}

func (p *Parser) makeIdent(token lexer.Token) ast.Ident {
	return ast.NewIdent(p.text(token.Span), token.Span)
}

// recordParseError appends a structural parse error unconditionally.
// Parse errors bypass Ignore filtering because they indicate a syntax
// problem that must be reported at any strictness level.
func (p *Parser) recordParseError(diag types.SpanDiagnostic) {
	p.diagnostics = append(p.diagnostics, diag)
}

func (p *Parser) makeError(message string) types.SpanDiagnostic {
	return types.SpanDiagnostic{
		Severity: types.SeverityError,
		Code:     types.DiagParseError,
		Span:     p.currentSpan(),
		Message:  message,
	}
}

func (p *Parser) parseI64(span types.Span, context string) (int64, bool) {
	text := p.text(span)
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		p.recordParseError(types.SpanDiagnostic{
			Severity: types.SeverityError,
			Code:     types.DiagInvalidInteger,
			Span:     span,
			Message:  fmt.Sprintf("invalid %s (not a valid 64-bit integer)", context),
		})
		return 0, false
	}
	return v, true
}

func (p *Parser) parseU32(span types.Span, context string) (uint32, bool) {
	text := p.text(span)
	v, err := strconv.ParseUint(text, 10, 32)
	if err != nil {
		p.recordParseError(types.SpanDiagnostic{
			Severity: types.SeverityError,
			Code:     types.DiagInvalidInteger,
			Span:     span,
			Message:  fmt.Sprintf("invalid %s (not a valid u32)", context),
		})
		return 0, false
	}
	return uint32(v), true
}
