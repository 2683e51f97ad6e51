package token

import "testing"

func TestStrSlicesSourceByOffsetAndLength(t *testing.T) {
	src := []byte("var distinctiveName: i32 = 1;")
	tok := New(4, 15, Identifier)
	if got, want := tok.Str(src), "distinctiveName"; got != want {
		t.Errorf("Str() = %q, want %q", got, want)
	}
}

func TestFromStartEnd(t *testing.T) {
	loc := FromStartEnd(10, 14)
	if loc.Offset != 10 || loc.Length != 4 {
		t.Errorf("FromStartEnd(10, 14) = %+v, want {Offset:10 Length:4}", loc)
	}
}

func TestIsError(t *testing.T) {
	if !NewError(0, ErrorUnexpectedCharacter).IsError() {
		t.Error("IsError() = false for an error sentinel token, want true")
	}
	if New(0, 1, Plus).IsError() {
		t.Error("IsError() = true for a plain '+' token, want false")
	}
}

func TestIsArithmetic(t *testing.T) {
	for _, typ := range []Type{Plus, Minus, Star, Slash, Percent} {
		if !(Token{Type: typ}).IsArithmetic() {
			t.Errorf("IsArithmetic() = false for %s, want true", typ)
		}
	}
	for _, typ := range []Type{Equal, Bang, Identifier} {
		if (Token{Type: typ}).IsArithmetic() {
			t.Errorf("IsArithmetic() = true for %s, want false", typ)
		}
	}
}

func TestKeywordsRoundTrip(t *testing.T) {
	for word, typ := range Keywords {
		if got := typ.String(); got != word {
			t.Errorf("Type(%v).String() = %q, want keyword text %q", typ, got, word)
		}
	}
}

func TestTypeStringUnknownFallsBackToNumeric(t *testing.T) {
	var unknown Type = 250
	if got, want := unknown.String(), "token(250)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
