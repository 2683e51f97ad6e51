package arena

import "testing"

func TestAllocAndGet(t *testing.T) {
	a := New[int]()
	r1 := a.Alloc(10)
	r2 := a.Alloc(20)

	if got := *a.Get(r1); got != 10 {
		t.Errorf("Get(r1) = %d, want 10", got)
	}
	if got := *a.Get(r2); got != 20 {
		t.Errorf("Get(r2) = %d, want 20", got)
	}
}

func TestNilRefDereferencesToNil(t *testing.T) {
	a := New[int]()
	if got := a.Get(Nil); got != nil {
		t.Errorf("Get(Nil) = %v, want nil", got)
	}
}

func TestRefStableAcrossGrowth(t *testing.T) {
	a := New[int]()
	first := a.Alloc(1)
	for i := 0; i < DefaultInitialCapacity*2; i++ {
		a.Alloc(i)
	}
	if got := *a.Get(first); got != 1 {
		t.Errorf("Get(first) after growth = %d, want 1 (a Ref must survive reallocation)", got)
	}
}

func TestAllocBytesAndSlice(t *testing.T) {
	a := New[byte]()
	ref := a.AllocBytes([]byte("hello"))
	got := a.Slice(ref, 5)
	if string(got) != "hello" {
		t.Errorf("Slice = %q, want %q", got, "hello")
	}
}

func TestAllocBytesAppendsSequentially(t *testing.T) {
	a := New[byte]()
	r1 := a.AllocBytes([]byte("foo"))
	r2 := a.AllocBytes([]byte("bar"))

	if got := string(a.Slice(r1, 3)); got != "foo" {
		t.Errorf("first AllocBytes slice = %q, want %q", got, "foo")
	}
	if got := string(a.Slice(r2, 3)); got != "bar" {
		t.Errorf("second AllocBytes slice = %q, want %q", got, "bar")
	}
}

func TestGrowthReportNonEmpty(t *testing.T) {
	a := New[int]()
	a.Alloc(1)
	a.Alloc(2)
	if a.GrowthReport() == "" {
		t.Error("GrowthReport() returned an empty string")
	}
}

func TestSetVerboseCallsOnGrowth(t *testing.T) {
	a := New[int]()
	called := false
	a.SetVerbose(func(oldCap, newCap int) {
		called = true
		if newCap <= oldCap {
			t.Errorf("newCap = %d, want > oldCap = %d", newCap, oldCap)
		}
	})
	for i := 0; i < DefaultInitialCapacity+1; i++ {
		a.Alloc(i)
	}
	if !called {
		t.Error("onGrowth was never invoked despite exceeding initial capacity")
	}
}
