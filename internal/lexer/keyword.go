package lexer

import "sort"

// keywords is the sorted keyword table for binary search.
// IMPORTANT: This slice MUST remain sorted alphabetically by text.
// ASCII byte order: uppercase letters (A-Z: 65-90) come before
// lowercase letters (a-z: 97-122).
var keywords = []struct {
	text string
	kind TokenKind
}{
	{"ABSENT", TokKwAbsent},
	{"APPLICATION", TokKwApplication},
	{"AUTOMATIC", TokKwAutomatic},
	{"BEGIN", TokKwBegin},
	{"BIT", TokKwBit},
	{"BOOLEAN", TokKwBoolean},
	{"CHOICE", TokKwChoice},
	{"COMPONENTS", TokKwComponents},
	{"DEFAULT", TokKwDefault},
	{"DEFINITIONS", TokKwDefinitions},
	{"END", TokKwEnd},
	{"ENUMERATED", TokKwEnumerated},
	{"EXPLICIT", TokKwExplicit},
	{"EXPORTS", TokKwExports},
	{"FALSE", TokKwFalse},
	{"FROM", TokKwFrom},
	{"IA5String", TokKwIA5String},
	{"IDENTIFIER", TokKwIdentifier},
	{"IMPLICIT", TokKwImplicit},
	{"IMPORTS", TokKwImports},
	{"INTEGER", TokKwInteger},
	{"MAX", TokKwMax},
	{"MIN", TokKwMin},
	{"NULL", TokKwNull},
	{"NumericString", TokKwNumericString},
	{"OBJECT", TokKwObject},
	{"OCTET", TokKwOctet},
	{"OF", TokKwOf},
	{"OPTIONAL", TokKwOptional},
	{"PRESENT", TokKwPresent},
	{"PRIVATE", TokKwPrivate},
	{"PrintableString", TokKwPrintableString},
	{"SEQUENCE", TokKwSequence},
	{"SET", TokKwSet},
	{"SIZE", TokKwSize},
	{"STRING", TokKwString},
	{"TAGS", TokKwTags},
	{"TRUE", TokKwTrue},
	{"UNIVERSAL", TokKwUniversal},
	{"UTF8String", TokKwUTF8String},
	{"VisibleString", TokKwVisibleString},
	{"WITH", TokKwWith},
}

// LookupKeyword returns the token kind for a keyword, or false if the
// text is not a keyword. Case-sensitive per X.680.
func LookupKeyword(text string) (TokenKind, bool) {
	idx := sort.Search(len(keywords), func(i int) bool {
		return keywords[i].text >= text
	})
	if idx < len(keywords) && keywords[idx].text == text {
		return keywords[idx].kind, true
	}
	return TokError, false
}
