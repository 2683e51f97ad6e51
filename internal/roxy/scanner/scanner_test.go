package scanner

import (
	"testing"

	"github.com/xyproto/roxy/internal/roxy/token"
)

func allTokens(t *testing.T, src string) []token.Token {
	t.Helper()
	s := New([]byte(src))
	var toks []token.Token
	for {
		tok := s.NextToken()
		toks = append(toks, tok)
		if tok.Type == token.Eof {
			break
		}
	}
	return toks
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	cases := []struct {
		src  string
		want token.Type
	}{
		{"var", token.Var}, {"while", token.While}, {"fun", token.Fun},
		{"native", token.Native}, {"struct", token.Struct}, {"return", token.Return},
		{"break", token.Break}, {"continue", token.Continue}, {"import", token.Import},
		{"pub", token.Pub}, {"if", token.If}, {"else", token.Else},
		{"true", token.True}, {"false", token.False}, {"nil", token.Nil},
		{"hello", token.Identifier}, {"i32", token.Identifier}, {"string", token.Identifier},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			toks := allTokens(t, c.src)
			if toks[0].Type != c.want {
				t.Errorf("NextToken(%q) = %v, want %v", c.src, toks[0].Type, c.want)
			}
		})
	}
}

func TestOperators(t *testing.T) {
	toks := allTokens(t, "&& || == != <= >= -> ? :")
	want := []token.Type{
		token.AmpAmp, token.BarBar, token.EqualEqual, token.BangEqual,
		token.LessEqual, token.GreaterEqual, token.Minus, token.Greater,
		token.QuestionMark, token.Colon, token.Eof,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token[%d] = %v, want %v", i, toks[i].Type, w)
		}
	}
}

func TestNumberSuffixes(t *testing.T) {
	for _, src := range []string{"123", "123u", "123UL", "123i", "123IL", "123L"} {
		toks := allTokens(t, src)
		if toks[0].Type != token.NumberInt {
			t.Errorf("NextToken(%q) = %v, want NumberInt", src, toks[0].Type)
		}
	}
	for _, src := range []string{"1.5", "1.5f", "1.5F", "1.5d", "1.5D"} {
		toks := allTokens(t, src)
		if toks[0].Type != token.NumberFloat {
			t.Errorf("NextToken(%q) = %v, want NumberFloat", src, toks[0].Type)
		}
	}
}

func TestStringLiteral(t *testing.T) {
	src := `"foo bar"`
	toks := allTokens(t, src)
	if toks[0].Type != token.String {
		t.Fatalf("got %v, want String", toks[0].Type)
	}
	if got := toks[0].Str([]byte(src)); got != `"foo bar"` {
		t.Errorf("lexeme = %q", got)
	}
}

func TestUnterminatedString(t *testing.T) {
	toks := allTokens(t, `"unterminated`)
	if !toks[0].IsError() || toks[0].Type != token.ErrorUnterminatedString {
		t.Errorf("got %v, want ErrorUnterminatedString", toks[0].Type)
	}
}

func TestUnexpectedCharacter(t *testing.T) {
	toks := allTokens(t, "@")
	if !toks[0].IsError() || toks[0].Type != token.ErrorUnexpectedCharacter {
		t.Errorf("got %v, want ErrorUnexpectedCharacter", toks[0].Type)
	}
}

func TestLineComment(t *testing.T) {
	toks := allTokens(t, "var x; // comment\nvar y;")
	// var x ; var y ; Eof -- comment produces no tokens
	if len(toks) != 7 {
		t.Fatalf("got %d tokens, want 7: %v", len(toks), toks)
	}
}

func TestLineOf(t *testing.T) {
	src := "var a;\nvar b;\nvar c;"
	s := New([]byte(src))
	var last token.Token
	for {
		tok := s.NextToken()
		if tok.Type == token.Eof {
			break
		}
		last = tok
	}
	// last meaningful token is the final ';' on line 3
	if line := s.LineOf(last.Loc()); line != 3 {
		t.Errorf("LineOf(last) = %d, want 3", line)
	}
}

// TestRoundTrip asserts every token's offset/length round-trips to the
// original lexeme bytes -- spec.md testable property 1.
func TestRoundTrip(t *testing.T) {
	src := "var total: i32 = 2 + 3 * 4;"
	s := New([]byte(src))
	for {
		tok := s.NextToken()
		if tok.Type == token.Eof {
			break
		}
		lexeme := tok.Str([]byte(src))
		if uint32(len(lexeme)) != uint32(tok.Length) {
			t.Errorf("token %v length mismatch: lexeme %q", tok.Type, lexeme)
		}
	}
}
