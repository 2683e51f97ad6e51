// Package scanner turns a byte buffer into a lazy sequence of tokens.
//
// Grounded on original_source/src/roxy/scanner.cpp (single-pass char
// dispatch, binary-search line lookup) and flapc/lexer.go for the idiom
// of a single exported NextToken-style entry point over an internal
// peek/advance cursor pair.
package scanner

import "github.com/xyproto/roxy/internal/roxy/token"

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// Scanner produces Tokens from a source buffer on demand.
type Scanner struct {
	source    []byte
	start     uint32
	current   uint32
	lineStart []uint32
}

// New creates a Scanner over source.
func New(source []byte) *Scanner {
	return &Scanner{source: source, lineStart: []uint32{0}}
}

// Source returns the underlying buffer (used by downstream stages to
// render lexemes and error contexts).
func (s *Scanner) Source() []byte { return s.source }

// LineOf resolves a byte offset to a 1-indexed line number via binary
// search over the recorded line-start offsets (spec.md §4.3).
func (s *Scanner) LineOf(loc token.SourceLocation) uint32 {
	if len(s.lineStart) == 1 {
		return 1
	}
	return uint32(binarySearch(s.lineStart, loc.Offset)) + 1
}

// binarySearch returns the index of the last element <= target.
func binarySearch(sorted []uint32, target uint32) int {
	lo, hi := 0, len(sorted)-1
	result := 0
	for lo <= hi {
		mid := (lo + hi) / 2
		if sorted[mid] <= target {
			result = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return result
}

func (s *Scanner) isAtEnd() bool { return s.current >= uint32(len(s.source)) }

func (s *Scanner) peek() byte {
	if s.isAtEnd() {
		return 0
	}
	return s.source[s.current]
}

func (s *Scanner) peekNext() byte {
	if s.current+1 >= uint32(len(s.source)) {
		return 0
	}
	return s.source[s.current+1]
}

func (s *Scanner) advance() byte {
	c := s.source[s.current]
	s.current++
	return c
}

func (s *Scanner) match(expected byte) bool {
	if s.isAtEnd() || s.source[s.current] != expected {
		return false
	}
	s.current++
	return true
}

func (s *Scanner) newLine() {
	s.lineStart = append(s.lineStart, s.current+1)
}

func (s *Scanner) makeToken(typ token.Type) token.Token {
	return token.New(s.start, uint16(s.current-s.start), typ)
}

func (s *Scanner) makeErrorToken(typ token.Type) token.Token {
	return token.NewError(s.start, typ)
}

// NextToken scans and returns the next Token, skipping whitespace and
// `//` line comments first.
func (s *Scanner) NextToken() token.Token {
	s.skipWhitespace()
	s.start = s.current
	if s.isAtEnd() {
		return s.makeToken(token.Eof)
	}

	c := s.advance()
	if isAlpha(c) {
		return s.identifier()
	}
	if isDigit(c) {
		return s.number()
	}

	switch c {
	case '(':
		return s.makeToken(token.LeftParen)
	case ')':
		return s.makeToken(token.RightParen)
	case '{':
		return s.makeToken(token.LeftBrace)
	case '}':
		return s.makeToken(token.RightBrace)
	case '[':
		return s.makeToken(token.LeftBracket)
	case ']':
		return s.makeToken(token.RightBracket)
	case ';':
		return s.makeToken(token.Semicolon)
	case ',':
		return s.makeToken(token.Comma)
	case '.':
		return s.makeToken(token.Dot)
	case '-':
		return s.makeToken(token.Minus)
	case '+':
		return s.makeToken(token.Plus)
	case '/':
		return s.makeToken(token.Slash)
	case '*':
		return s.makeToken(token.Star)
	case '%':
		return s.makeToken(token.Percent)
	case '?':
		return s.makeToken(token.QuestionMark)
	case ':':
		return s.makeToken(token.Colon)
	case '~':
		return s.makeToken(token.Tilde)
	case '^':
		return s.makeToken(token.Caret)
	case '!':
		if s.match('=') {
			return s.makeToken(token.BangEqual)
		}
		return s.makeToken(token.Bang)
	case '=':
		if s.match('=') {
			return s.makeToken(token.EqualEqual)
		}
		return s.makeToken(token.Equal)
	case '<':
		if s.match('=') {
			return s.makeToken(token.LessEqual)
		}
		return s.makeToken(token.Less)
	case '>':
		if s.match('=') {
			return s.makeToken(token.GreaterEqual)
		}
		return s.makeToken(token.Greater)
	case '&':
		if s.match('&') {
			return s.makeToken(token.AmpAmp)
		}
		return s.makeToken(token.Ampersand)
	case '|':
		if s.match('|') {
			return s.makeToken(token.BarBar)
		}
		return s.makeToken(token.Bar)
	case '"':
		return s.string()
	}
	return s.makeErrorToken(token.ErrorUnexpectedCharacter)
}

func (s *Scanner) skipWhitespace() {
	for {
		c := s.peek()
		switch c {
		case ' ', '\r', '\t':
			s.advance()
		case '\n':
			s.newLine()
			s.advance()
		case '/':
			if s.peekNext() == '/' {
				for s.peek() != '\n' && !s.isAtEnd() {
					s.advance()
				}
			} else {
				return
			}
		default:
			return
		}
	}
}

func (s *Scanner) identifier() token.Token {
	for isAlpha(s.peek()) || isDigit(s.peek()) {
		s.advance()
	}
	text := string(s.source[s.start:s.current])
	if kw, ok := token.Keywords[text]; ok {
		return s.makeToken(kw)
	}
	return s.makeToken(token.Identifier)
}

func (s *Scanner) number() token.Token {
	for isDigit(s.peek()) {
		s.advance()
	}

	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.advance()
		for isDigit(s.peek()) {
			s.advance()
		}
		if c := s.peek(); c == 'f' || c == 'F' || c == 'd' || c == 'D' {
			s.advance()
		}
		return s.makeToken(token.NumberFloat)
	}

	if c := s.peek(); c == 'u' || c == 'U' {
		s.advance()
		if c := s.peek(); c == 'l' || c == 'L' {
			s.advance()
		}
	} else if c == 'i' || c == 'I' {
		s.advance()
		if c := s.peek(); c == 'l' || c == 'L' {
			s.advance()
		}
	} else if c == 'l' || c == 'L' {
		s.advance()
	}
	return s.makeToken(token.NumberInt)
}

func (s *Scanner) string() token.Token {
	for s.peek() != '"' && !s.isAtEnd() {
		if s.peek() == '\n' {
			s.newLine()
		}
		s.advance()
	}
	if s.isAtEnd() {
		return s.makeErrorToken(token.ErrorUnterminatedString)
	}
	s.advance()
	return s.makeToken(token.String)
}
