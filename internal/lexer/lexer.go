package lexer

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/asn1go/asn1go/internal/types"
)

type lexerState int

const (
	stateNormal lexerState = iota
	stateInLineComment
	stateInBlockComment
)

// Lexer tokenizes ASN.1 module source text.
type Lexer struct {
	source      []byte
	pos         int
	state       lexerState
	commentLvl  int // block comment nesting depth
	diagnostics []types.SpanDiagnostic
	types.Logger
}

// New returns a Lexer that tokenizes the given source bytes.
func New(source []byte, logger *slog.Logger) *Lexer {
	l := &Lexer{
		source: source,
		state:  stateNormal,
		Logger: types.Logger{L: logger},
	}
	l.Log(slog.LevelDebug, "lexer initialized", slog.Int("bytes", len(source)))
	return l
}

// Diagnostics returns a copy of all collected diagnostics.
func (l *Lexer) Diagnostics() []types.SpanDiagnostic {
	return slices.Clone(l.diagnostics)
}

func (l *Lexer) traceToken(tok Token) {
	if l.TraceEnabled() {
		l.Trace("token",
			slog.Int("kind", int(tok.Kind)),
			slog.Int("start", int(tok.Span.Start)),
			slog.Int("end", int(tok.Span.End)))
	}
}

// Tokenize consumes all source text and returns the token stream
// along with any diagnostics generated during lexing.
func (l *Lexer) Tokenize() ([]Token, []types.SpanDiagnostic) {
	estimatedTokens := max(len(l.source)/6, 64)
	tokens := make([]Token, 0, estimatedTokens)
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Kind == TokEOF {
			break
		}
	}
	l.Log(slog.LevelDebug, "tokenization complete",
		slog.Int("tokens", len(tokens)),
		slog.Int("diagnostics", len(l.diagnostics)))
	return tokens, l.diagnostics
}

// NextToken advances the lexer and returns the next token.
// Returns TokEOF when all input is consumed.
func (l *Lexer) NextToken() Token {
	for {
		switch l.state {
		case stateInLineComment:
			l.consumeLineComment()
			continue
		case stateInBlockComment:
			l.consumeBlockComment()
			continue
		default:
			tok, retry := l.nextNormalToken()
			if retry {
				continue
			}
			return tok
		}
	}
}

func (l *Lexer) peek() (byte, bool) {
	if l.pos >= len(l.source) {
		return 0, false
	}
	return l.source[l.pos], true
}

func (l *Lexer) peekAt(offset int) (byte, bool) {
	idx := l.pos + offset
	if idx >= len(l.source) {
		return 0, false
	}
	return l.source[idx], true
}

func (l *Lexer) advance() (byte, bool) {
	if l.pos >= len(l.source) {
		return 0, false
	}
	b := l.source[l.pos]
	l.pos++
	return b, true
}

func (l *Lexer) skipWhitespace() {
	for {
		b, ok := l.peek()
		if !ok {
			return
		}
		if b == ' ' || b == '\t' || b == '\r' || b == '\n' {
			l.advance()
		} else {
			return
		}
	}
}

func (l *Lexer) error(span types.Span, code, message string) {
	l.diagnostics = append(l.diagnostics, types.SpanDiagnostic{
		Severity: types.SeverityError,
		Code:     code,
		Span:     span,
		Message:  message,
	})
}

func (l *Lexer) spanFrom(start int) types.Span {
	return types.Span{
		Start: types.ByteOffset(start),
		End:   types.ByteOffset(l.pos),
	}
}

func (l *Lexer) token(kind TokenKind, start int) Token {
	tok := Token{
		Kind: kind,
		Span: l.spanFrom(start),
	}
	l.traceToken(tok)
	return tok
}

// nextNormalToken scans the next token in normal state. Returns (token, retry)
// where retry=true means the caller should loop (e.g. after entering a
// comment state).
func (l *Lexer) nextNormalToken() (Token, bool) {
	l.skipWhitespace()

	start := l.pos

	b, ok := l.peek()
	if !ok {
		return l.token(TokEOF, start), false
	}

	if b == '-' {
		if next, ok := l.peekAt(1); ok && next == '-' {
			l.advance()
			l.advance()
			l.state = stateInLineComment
			return Token{}, true
		}
		if next, ok := l.peekAt(1); ok && isDigit(next) {
			return l.scanNegativeNumber(), false
		}
		l.advance()
		return l.token(TokMinus, start), false
	}

	if b == '/' {
		if next, ok := l.peekAt(1); ok && next == '*' {
			l.advance()
			l.advance()
			l.commentLvl = 1
			l.state = stateInBlockComment
			return Token{}, true
		}
	}

	switch b {
	case '[':
		l.advance()
		return l.token(TokLBracket, start), false
	case ']':
		l.advance()
		return l.token(TokRBracket, start), false
	case '{':
		l.advance()
		return l.token(TokLBrace, start), false
	case '}':
		l.advance()
		return l.token(TokRBrace, start), false
	case '(':
		l.advance()
		return l.token(TokLParen, start), false
	case ')':
		l.advance()
		return l.token(TokRParen, start), false
	case ';':
		l.advance()
		return l.token(TokSemicolon, start), false
	case ',':
		l.advance()
		return l.token(TokComma, start), false
	case '|':
		l.advance()
		return l.token(TokPipe, start), false
	case '<':
		l.advance()
		return l.token(TokLess, start), false
	case '>':
		l.advance()
		return l.token(TokGreater, start), false
	case '@':
		l.advance()
		return l.token(TokAt, start), false
	}

	if b == '.' {
		l.advance()
		if next, ok := l.peek(); ok && next == '.' {
			l.advance()
			if next, ok := l.peek(); ok && next == '.' {
				l.advance()
				return l.token(TokEllipsis, start), false
			}
			return l.token(TokDotDot, start), false
		}
		return l.token(TokDot, start), false
	}

	if b == ':' {
		l.advance()
		if next, ok := l.peek(); ok && next == ':' {
			if after, ok := l.peekAt(1); ok && after == '=' {
				l.advance()
				l.advance()
				return l.token(TokColonColonEqual, start), false
			}
		}
		return l.token(TokColon, start), false
	}

	if isDigit(b) {
		return l.scanNumber(), false
	}

	if b == '"' {
		return l.scanQuotedString(), false
	}

	if isAlpha(b) {
		return l.scanIdentifierOrKeyword(), false
	}

	l.advance()
	span := l.spanFrom(start)
	l.error(span, types.DiagUnexpectedCharacter,
		fmt.Sprintf("unexpected character: 0x%02x", b))
	return Token{}, true
}

// consumeLineComment skips to end of line and sets state back to normal.
func (l *Lexer) consumeLineComment() {
	for {
		b, ok := l.peek()
		if !ok || b == '\n' {
			l.advance()
			l.state = stateNormal
			return
		}
		l.advance()
	}
}

// consumeBlockComment skips nested /* */ comment text.
// An unterminated comment produces a diagnostic and ends lexing.
func (l *Lexer) consumeBlockComment() {
	start := l.pos
	for {
		b, ok := l.peek()
		if !ok {
			l.error(l.spanFrom(start), types.DiagUnterminatedComment,
				"unterminated block comment")
			l.state = stateNormal
			return
		}
		if b == '*' {
			if next, ok := l.peekAt(1); ok && next == '/' {
				l.advance()
				l.advance()
				l.commentLvl--
				if l.commentLvl == 0 {
					l.state = stateNormal
					return
				}
				continue
			}
		}
		if b == '/' {
			if next, ok := l.peekAt(1); ok && next == '*' {
				l.advance()
				l.advance()
				l.commentLvl++
				continue
			}
		}
		l.advance()
	}
}

func (l *Lexer) scanIdentifierOrKeyword() Token {
	start := l.pos
	firstChar, _ := l.advance()
	isUppercase := isUpperAlpha(firstChar)

	for {
		b, ok := l.peek()
		if !ok {
			break
		}
		if isAlphanumeric(b) {
			l.advance()
		} else if b == '-' {
			// a '--' inside an identifier starts a comment instead
			if next, ok := l.peekAt(1); ok && next == '-' {
				break
			}
			if next, ok := l.peekAt(1); !ok || !isAlphanumeric(next) {
				break
			}
			l.advance()
		} else {
			break
		}
	}

	text := string(l.source[start:l.pos])

	if kind, ok := LookupKeyword(text); ok {
		return l.token(kind, start)
	}

	kind := TokLowercaseIdent
	if isUppercase {
		kind = TokUppercaseIdent
	}
	return l.token(kind, start)
}

func (l *Lexer) scanNumber() Token {
	start := l.pos

	for {
		b, ok := l.peek()
		if !ok || !isDigit(b) {
			break
		}
		l.advance()
	}

	return l.token(TokNumber, start)
}

func (l *Lexer) scanNegativeNumber() Token {
	start := l.pos
	l.advance() // consume -

	for {
		b, ok := l.peek()
		if !ok || !isDigit(b) {
			break
		}
		l.advance()
	}

	return l.token(TokNegativeNumber, start)
}

func (l *Lexer) scanQuotedString() Token {
	start := l.pos
	l.advance() // consume opening quote

	for {
		b, ok := l.peek()
		if !ok {
			l.error(l.spanFrom(start), types.DiagUnterminatedString,
				"unterminated string literal")
			return l.token(TokQuotedString, start)
		}
		if b == '"' {
			l.advance()
			return l.token(TokQuotedString, start)
		}
		l.advance()
	}
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isUpperAlpha(b byte) bool {
	return b >= 'A' && b <= 'Z'
}

func isAlphanumeric(b byte) bool {
	return isAlpha(b) || isDigit(b)
}
