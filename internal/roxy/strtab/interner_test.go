package strtab

import "testing"

func TestInternDedupsByContent(t *testing.T) {
	in := New()
	a := in.Intern("hello")
	b := in.Intern("hello")
	if a != b {
		t.Error("Intern(\"hello\") twice returned distinct objects, want the same pointer")
	}
	if a.RefCount != 2 {
		t.Errorf("RefCount = %d, want 2 (one per Intern call)", a.RefCount)
	}
}

func TestInternDistinctStrings(t *testing.T) {
	in := New()
	a := in.Intern("foo")
	b := in.Intern("bar")
	if a == b {
		t.Error("distinct strings interned to the same object")
	}
	if in.Len() != 2 {
		t.Errorf("Len() = %d, want 2", in.Len())
	}
}

func TestLookupWithoutCreating(t *testing.T) {
	in := New()
	if _, ok := in.Lookup("never-interned"); ok {
		t.Error("Lookup found an object that was never Interned")
	}
	in.Intern("seen")
	obj, ok := in.Lookup("seen")
	if !ok {
		t.Fatal("Lookup did not find a previously Interned string")
	}
	if obj.Chars != "seen" {
		t.Errorf("Chars = %q, want %q", obj.Chars, "seen")
	}
	if in.Len() != 1 {
		t.Errorf("Lookup must not have created a new entry; Len() = %d, want 1", in.Len())
	}
}

func TestConcatProducesUninternedResult(t *testing.T) {
	in := New()
	a := in.Intern("foo")
	b := in.Intern("bar")
	result := Concat(a, b)
	if result.Chars != "foobar" {
		t.Errorf("Chars = %q, want %q", result.Chars, "foobar")
	}
	if result.RefCount != 1 {
		t.Errorf("RefCount = %d, want 1 (a fresh, uninterned object)", result.RefCount)
	}
	if _, ok := in.Lookup("foobar"); ok {
		t.Error("Concat's result must not be interned")
	}
}

func TestIncrefDecref(t *testing.T) {
	o := Obj{RefCount: 1}
	o.Incref()
	if o.RefCount != 2 {
		t.Fatalf("RefCount after Incref = %d, want 2", o.RefCount)
	}
	if o.Decref() {
		t.Error("Decref reported zero while RefCount should still be 1")
	}
	if o.RefCount != 1 {
		t.Fatalf("RefCount after first Decref = %d, want 1", o.RefCount)
	}
	if !o.Decref() {
		t.Error("Decref should report true when RefCount reaches 0")
	}
}
