package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenize(t *testing.T, source string) []Token {
	t.Helper()
	tokens, diags := New([]byte(source), nil).Tokenize()
	require.Empty(t, diags)
	return tokens
}

func kinds(tokens []Token) []TokenKind {
	out := make([]TokenKind, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, tok.Kind)
	}
	return out
}

func TestTokenizeAssignment(t *testing.T) {
	tokens := tokenize(t, "Pizza ::= SEQUENCE { size INTEGER(1..4) }")

	assert.Equal(t, []TokenKind{
		TokUppercaseIdent, TokColonColonEqual, TokKwSequence, TokLBrace,
		TokLowercaseIdent, TokKwInteger, TokLParen, TokNumber, TokDotDot,
		TokNumber, TokRParen, TokRBrace, TokEOF,
	}, kinds(tokens))
}

func TestTokenizeModuleHeader(t *testing.T) {
	tokens := tokenize(t, "My-Module DEFINITIONS AUTOMATIC TAGS ::= BEGIN END")

	assert.Equal(t, []TokenKind{
		TokUppercaseIdent, TokKwDefinitions, TokKwAutomatic, TokKwTags,
		TokColonColonEqual, TokKwBegin, TokKwEnd, TokEOF,
	}, kinds(tokens))
}

func TestIdentifierCase(t *testing.T) {
	tokens := tokenize(t, "TypeName valueName")

	require.Len(t, tokens, 3)
	assert.Equal(t, TokUppercaseIdent, tokens[0].Kind)
	assert.Equal(t, TokLowercaseIdent, tokens[1].Kind)
}

func TestHyphenatedIdentifier(t *testing.T) {
	source := []byte("ITS-Container station-id")
	tokens, diags := New(source, nil).Tokenize()
	require.Empty(t, diags)

	require.Len(t, tokens, 3)
	first := tokens[0].Span
	assert.Equal(t, "ITS-Container", string(source[first.Start:first.End]))
	second := tokens[1].Span
	assert.Equal(t, "station-id", string(source[second.Start:second.End]))
}

func TestEllipsisAndDotDot(t *testing.T) {
	tokens := tokenize(t, "... .. .")

	assert.Equal(t, []TokenKind{TokEllipsis, TokDotDot, TokDot, TokEOF}, kinds(tokens))
}

func TestNegativeNumber(t *testing.T) {
	tokens := tokenize(t, "(-5..10)")

	assert.Equal(t, []TokenKind{
		TokLParen, TokNegativeNumber, TokDotDot, TokNumber, TokRParen, TokEOF,
	}, kinds(tokens))
}

func TestLineComment(t *testing.T) {
	tokens := tokenize(t, "BOOLEAN -- ignored to end of line ::=\nNULL")

	assert.Equal(t, []TokenKind{TokKwBoolean, TokKwNull, TokEOF}, kinds(tokens))
}

func TestBlockCommentNested(t *testing.T) {
	tokens := tokenize(t, "BOOLEAN /* outer /* inner */ still outer */ NULL")

	assert.Equal(t, []TokenKind{TokKwBoolean, TokKwNull, TokEOF}, kinds(tokens))
}

func TestUnterminatedBlockComment(t *testing.T) {
	tokens, diags := New([]byte("BOOLEAN /* never closed"), nil).Tokenize()

	assert.Equal(t, []TokenKind{TokKwBoolean, TokEOF}, kinds(tokens))
	require.Len(t, diags, 1)
	assert.Equal(t, "unterminated-comment", diags[0].Code)
}

func TestUnterminatedString(t *testing.T) {
	_, diags := New([]byte(`name UTF8String ::= "open`), nil).Tokenize()

	require.Len(t, diags, 1)
	assert.Equal(t, "unterminated-string", diags[0].Code)
}

func TestKeywordsAreCaseSensitive(t *testing.T) {
	tokens := tokenize(t, "INTEGER Integer")

	assert.Equal(t, TokKwInteger, tokens[0].Kind)
	assert.Equal(t, TokUppercaseIdent, tokens[1].Kind)
}

func TestStringTypeKeywords(t *testing.T) {
	tokens := tokenize(t, "UTF8String IA5String NumericString PrintableString VisibleString")

	assert.Equal(t, []TokenKind{
		TokKwUTF8String, TokKwIA5String, TokKwNumericString,
		TokKwPrintableString, TokKwVisibleString, TokEOF,
	}, kinds(tokens))
}

func TestKeywordTableSorted(t *testing.T) {
	for i := 1; i < len(keywords); i++ {
		assert.Less(t, keywords[i-1].text, keywords[i].text,
			"keyword table must stay sorted for binary search")
	}
}

func TestUnexpectedCharacter(t *testing.T) {
	tokens, diags := New([]byte("BOOLEAN # NULL"), nil).Tokenize()

	assert.Equal(t, []TokenKind{TokKwBoolean, TokKwNull, TokEOF}, kinds(tokens))
	require.Len(t, diags, 1)
	assert.Equal(t, "unexpected-character", diags[0].Code)
}
