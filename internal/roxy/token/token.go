// Package token defines the lexical tokens produced by the scanner and
// consumed by the parser.
package token

import "fmt"

// Type identifies the lexical category of a Token.
type Type uint8

const (
	// Single-character tokens.
	LeftParen Type = iota
	RightParen
	LeftBrace
	RightBrace
	LeftBracket
	RightBracket
	Comma
	Dot
	Minus
	Plus
	Semicolon
	Slash
	Star
	Percent
	QuestionMark
	Colon
	Ampersand
	Bar
	Tilde
	Caret

	// One or two character tokens.
	Bang
	BangEqual
	Equal
	EqualEqual
	Greater
	GreaterEqual
	Less
	LessEqual

	// Two character tokens.
	AmpAmp
	BarBar

	// Literals.
	Identifier
	String
	NumberInt
	NumberFloat

	// Keywords.
	Struct
	Else
	False
	For
	Fun
	If
	Nil
	Native
	Return
	Super
	This
	True
	Var
	While
	Break
	Continue
	Import
	Pub

	Eof

	// Error sentinels. ErrorBit distinguishes error tokens from the rest
	// of the enumeration without needing a separate boolean field.
	ErrorBit                = 0b1000_0000
	ErrorUnexpectedCharacter Type = ErrorBit
	ErrorUnterminatedString  Type = ErrorBit + 1
)

var names = map[Type]string{
	LeftParen: "(", RightParen: ")", LeftBrace: "{", RightBrace: "}",
	LeftBracket: "[", RightBracket: "]", Comma: ",", Dot: ".",
	Minus: "-", Plus: "+", Semicolon: ";", Slash: "/", Star: "*",
	Percent: "%", QuestionMark: "?", Colon: ":", Ampersand: "&",
	Bar: "|", Tilde: "~", Caret: "^", Bang: "!", BangEqual: "!=",
	Equal: "=", EqualEqual: "==", Greater: ">", GreaterEqual: ">=",
	Less: "<", LessEqual: "<=", AmpAmp: "&&", BarBar: "||",
	Identifier: "identifier", String: "string", NumberInt: "int",
	NumberFloat: "float", Struct: "struct", Else: "else", False: "false",
	For: "for", Fun: "fun", If: "if", Nil: "nil", Native: "native",
	Return: "return", Super: "super", This: "this", True: "true",
	Var: "var", While: "while", Break: "break", Continue: "continue",
	Import: "import", Pub: "pub", Eof: "eof",
	ErrorUnexpectedCharacter: "unexpected character",
	ErrorUnterminatedString:  "unterminated string",
}

func (t Type) String() string {
	if s, ok := names[t]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", uint8(t))
}

// Keywords maps reserved identifier text to its keyword Type.
var Keywords = map[string]Type{
	"struct": Struct, "else": Else, "false": False, "for": For,
	"fun": Fun, "if": If, "nil": Nil, "native": Native,
	"return": Return, "super": Super, "this": This, "true": True,
	"var": Var, "while": While, "break": Break, "continue": Continue,
	"import": Import, "pub": Pub,
}

// SourceLocation identifies a byte range in a source buffer.
type SourceLocation struct {
	Offset uint32
	Length uint16
}

// FromStartEnd builds a SourceLocation from a half-open [start, end) range.
func FromStartEnd(start, end uint32) SourceLocation {
	return SourceLocation{Offset: start, Length: uint16(end - start)}
}

// Token is an immutable lexical unit: a span of source plus its kind.
type Token struct {
	Offset uint32
	Length uint16
	Type   Type
}

// New constructs a Token spanning [offset, offset+length).
func New(offset uint32, length uint16, typ Type) Token {
	return Token{Offset: offset, Length: length, Type: typ}
}

// NewError constructs a zero-length error Token at offset.
func NewError(offset uint32, typ Type) Token {
	return Token{Offset: offset, Length: 0, Type: typ}
}

// Loc returns the token's SourceLocation.
func (t Token) Loc() SourceLocation {
	return SourceLocation{Offset: t.Offset, Length: t.Length}
}

// IsError reports whether t is one of the error sentinel kinds.
func (t Token) IsError() bool {
	return uint8(t.Type)&ErrorBit != 0
}

// IsArithmetic reports whether t is one of + - * / %.
func (t Token) IsArithmetic() bool {
	switch t.Type {
	case Plus, Minus, Star, Slash, Percent:
		return true
	default:
		return false
	}
}

// Str returns the token's lexeme, a slice into source.
func (t Token) Str(source []byte) string {
	return string(source[t.Offset : t.Offset+uint32(t.Length)])
}
