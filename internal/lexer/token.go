// Package lexer provides tokenization for ASN.1 module source text.
package lexer

import (
	"github.com/asn1go/asn1go/internal/types"
)

// Token is a token with kind and source span.
type Token struct {
	Kind TokenKind
	Span types.Span
}

// NewToken creates a new token.
func NewToken(kind TokenKind, span types.Span) Token {
	return Token{Kind: kind, Span: span}
}

// TokenKind identifies a token type.
type TokenKind int

const (
	// === Special ===

	// TokError is a lexical error.
	TokError TokenKind = iota
	// TokEOF is end of input.
	TokEOF

	// === Identifiers ===

	// TokUppercaseIdent is an uppercase-starting identifier (module and type names).
	TokUppercaseIdent
	// TokLowercaseIdent is a lowercase-starting identifier (values, fields, variants).
	TokLowercaseIdent

	// === Literals ===

	// TokNumber is an unsigned decimal number.
	TokNumber
	// TokNegativeNumber is a signed decimal number (negative).
	TokNegativeNumber
	// TokQuotedString is a double-quoted string literal.
	TokQuotedString

	// === Single-character punctuation ===

	// TokLBracket is '['.
	TokLBracket
	// TokRBracket is ']'.
	TokRBracket
	// TokLBrace is '{'.
	TokLBrace
	// TokRBrace is '}'.
	TokRBrace
	// TokLParen is '('.
	TokLParen
	// TokRParen is ')'.
	TokRParen
	// TokColon is ':'.
	TokColon
	// TokSemicolon is ';'.
	TokSemicolon
	// TokComma is ','.
	TokComma
	// TokDot is '.'.
	TokDot
	// TokPipe is '|'.
	TokPipe
	// TokMinus is '-'.
	TokMinus
	// TokLess is '<'.
	TokLess
	// TokGreater is '>'.
	TokGreater
	// TokAt is '@'.
	TokAt

	// === Multi-character operators ===

	// TokDotDot is '..'.
	TokDotDot
	// TokEllipsis is '...'.
	TokEllipsis
	// TokColonColonEqual is '::='.
	TokColonColonEqual

	// === Structural keywords ===

	// TokKwDefinitions is 'DEFINITIONS'.
	TokKwDefinitions
	// TokKwBegin is 'BEGIN'.
	TokKwBegin
	// TokKwEnd is 'END'.
	TokKwEnd
	// TokKwImports is 'IMPORTS'.
	TokKwImports
	// TokKwExports is 'EXPORTS'.
	TokKwExports
	// TokKwFrom is 'FROM'.
	TokKwFrom
	// TokKwTags is 'TAGS'.
	TokKwTags
	// TokKwAutomatic is 'AUTOMATIC'.
	TokKwAutomatic
	// TokKwExplicit is 'EXPLICIT'.
	TokKwExplicit
	// TokKwImplicit is 'IMPLICIT'.
	TokKwImplicit
	// TokKwUniversal is 'UNIVERSAL'.
	TokKwUniversal
	// TokKwApplication is 'APPLICATION'.
	TokKwApplication
	// TokKwPrivate is 'PRIVATE'.
	TokKwPrivate

	// === Type keywords ===

	// TokKwBoolean is 'BOOLEAN'.
	TokKwBoolean
	// TokKwInteger is 'INTEGER'.
	TokKwInteger
	// TokKwEnumerated is 'ENUMERATED'.
	TokKwEnumerated
	// TokKwSequence is 'SEQUENCE'.
	TokKwSequence
	// TokKwSet is 'SET'.
	TokKwSet
	// TokKwOf is 'OF'.
	TokKwOf
	// TokKwChoice is 'CHOICE'.
	TokKwChoice
	// TokKwOctet is 'OCTET'.
	TokKwOctet
	// TokKwBit is 'BIT'.
	TokKwBit
	// TokKwString is 'STRING'.
	TokKwString
	// TokKwNull is 'NULL'.
	TokKwNull
	// TokKwObject is 'OBJECT'.
	TokKwObject
	// TokKwIdentifier is 'IDENTIFIER'.
	TokKwIdentifier
	// TokKwUTF8String is 'UTF8String'.
	TokKwUTF8String
	// TokKwIA5String is 'IA5String'.
	TokKwIA5String
	// TokKwNumericString is 'NumericString'.
	TokKwNumericString
	// TokKwPrintableString is 'PrintableString'.
	TokKwPrintableString
	// TokKwVisibleString is 'VisibleString'.
	TokKwVisibleString

	// === Constraint keywords ===

	// TokKwSize is 'SIZE'.
	TokKwSize
	// TokKwMin is 'MIN'.
	TokKwMin
	// TokKwMax is 'MAX'.
	TokKwMax
	// TokKwOptional is 'OPTIONAL'.
	TokKwOptional
	// TokKwDefault is 'DEFAULT'.
	TokKwDefault
	// TokKwWith is 'WITH'.
	TokKwWith
	// TokKwComponents is 'COMPONENTS'.
	TokKwComponents
	// TokKwPresent is 'PRESENT'.
	TokKwPresent
	// TokKwAbsent is 'ABSENT'.
	TokKwAbsent

	// === Value keywords ===

	// TokKwTrue is 'TRUE'.
	TokKwTrue
	// TokKwFalse is 'FALSE'.
	TokKwFalse
)

// IsBuiltinType reports whether the kind starts a built-in type notation.
func (k TokenKind) IsBuiltinType() bool {
	switch k {
	case TokKwBoolean, TokKwInteger, TokKwEnumerated, TokKwSequence, TokKwSet,
		TokKwChoice, TokKwOctet, TokKwBit, TokKwNull, TokKwUTF8String,
		TokKwIA5String, TokKwNumericString, TokKwPrintableString, TokKwVisibleString:
		return true
	}
	return false
}

// Name returns a human-readable name for the token kind, used in
// "expected X, found Y" parse errors.
func (k TokenKind) Name() string {
	if name, ok := tokenNames[k]; ok {
		return name
	}
	return "token"
}

var tokenNames = map[TokenKind]string{
	TokError:             "lexical error",
	TokEOF:               "end of input",
	TokUppercaseIdent:    "type reference",
	TokLowercaseIdent:    "identifier",
	TokNumber:            "number",
	TokNegativeNumber:    "number",
	TokQuotedString:      "string literal",
	TokLBracket:          "'['",
	TokRBracket:          "']'",
	TokLBrace:            "'{'",
	TokRBrace:            "'}'",
	TokLParen:            "'('",
	TokRParen:            "')'",
	TokColon:             "':'",
	TokSemicolon:         "';'",
	TokComma:             "','",
	TokDot:               "'.'",
	TokPipe:              "'|'",
	TokMinus:             "'-'",
	TokLess:              "'<'",
	TokGreater:           "'>'",
	TokAt:                "'@'",
	TokDotDot:            "'..'",
	TokEllipsis:          "'...'",
	TokColonColonEqual:   "'::='",
	TokKwDefinitions:     "DEFINITIONS",
	TokKwBegin:           "BEGIN",
	TokKwEnd:             "END",
	TokKwImports:         "IMPORTS",
	TokKwExports:         "EXPORTS",
	TokKwFrom:            "FROM",
	TokKwTags:            "TAGS",
	TokKwAutomatic:       "AUTOMATIC",
	TokKwExplicit:        "EXPLICIT",
	TokKwImplicit:        "IMPLICIT",
	TokKwUniversal:       "UNIVERSAL",
	TokKwApplication:     "APPLICATION",
	TokKwPrivate:         "PRIVATE",
	TokKwBoolean:         "BOOLEAN",
	TokKwInteger:         "INTEGER",
	TokKwEnumerated:      "ENUMERATED",
	TokKwSequence:        "SEQUENCE",
	TokKwSet:             "SET",
	TokKwOf:              "OF",
	TokKwChoice:          "CHOICE",
	TokKwOctet:           "OCTET",
	TokKwBit:             "BIT",
	TokKwString:          "STRING",
	TokKwNull:            "NULL",
	TokKwObject:          "OBJECT",
	TokKwIdentifier:      "IDENTIFIER",
	TokKwUTF8String:      "UTF8String",
	TokKwIA5String:       "IA5String",
	TokKwNumericString:   "NumericString",
	TokKwPrintableString: "PrintableString",
	TokKwVisibleString:   "VisibleString",
	TokKwSize:            "SIZE",
	TokKwMin:             "MIN",
	TokKwMax:             "MAX",
	TokKwOptional:        "OPTIONAL",
	TokKwDefault:         "DEFAULT",
	TokKwWith:            "WITH",
	TokKwComponents:      "COMPONENTS",
	TokKwPresent:         "PRESENT",
	TokKwAbsent:          "ABSENT",
	TokKwTrue:            "TRUE",
	TokKwFalse:           "FALSE",
}
