// Package strtab implements Roxy's interned, reference-counted string
// objects: the runtime Object header plus the table that canonicalizes
// literal and computed strings by content hash.
//
// Grounded on original_source/include/roxy/string.hpp (ObjString's
// {Obj obj; u64 hash; u32 length; char chars[]} layout) and
// string_interner.cpp (hash-then-lookup-before-allocate contract).
package strtab

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// ObjType tags the runtime object kind. Roxy's core only ever produces
// Value and String objects; spec.md explicitly scopes the reference-
// counted object registry to the string object used at runtime.
type ObjType uint8

const (
	ObjTypeValue ObjType = iota
	ObjTypeString
)

// Obj is the 16-byte runtime object header: a 5-bit type tag, a 59-bit
// uid, and a u64 refcount, exactly as spec.md §3/§6 describes. Go does
// not need bitpacking for memory-density reasons the way the C++
// original does, but the header's three logical fields are kept
// explicit so RefCount semantics match the spec one-for-one.
type Obj struct {
	Type     ObjType
	UID      uint64 // low 59 bits significant, per spec's bit layout
	RefCount uint64
}

// Incref increments the object's reference count, used whenever a
// reference value is duplicated on the operand stack (spec.md §4.9
// reference lifecycle rule).
func (o *Obj) Incref() { o.RefCount++ }

// Decref decrements the reference count and reports whether it reached
// zero (the object should be freed / evicted from the interner).
func (o *Obj) Decref() bool {
	if o.RefCount == 0 {
		return true
	}
	o.RefCount--
	return o.RefCount == 0
}

// ObjString is a runtime string object: header plus hash, length, and
// bytes, mirroring ObjString's flexible-array-member layout in the
// original (here, Go's string/byte-slice types replace the C flexible
// array member).
type ObjString struct {
	Obj
	Hash  uint64
	Chars string
}

func (s *ObjString) Len() int { return len(s.Chars) }

// Concat builds a new, uninterned ObjString holding a+b's bytes, exactly
// as ObjString::concat does in the original runtime (the native
// `concat` trampoline calls this, then the VM pushes the result with an
// initial refcount of 1 -- concatenation results are not interned,
// since interning requires a stable hash-set membership check that
// string.cpp's concat intentionally bypasses for speed).
func Concat(a, b *ObjString) *ObjString {
	return &ObjString{
		Obj:   Obj{Type: ObjTypeString, RefCount: 1},
		Chars: a.Chars + b.Chars,
		Hash:  xxhash.Sum64String(a.Chars + b.Chars),
	}
}

// uidState is the process-wide uid generator. The spec calls for a
// thread-local xoshiro256** state; Go's goroutines have no stable
// thread affinity, so Roxy keeps one mutex-guarded generator instead
// (see SPEC_FULL.md §9 resolution of this design note) -- correctness
// under the single-threaded-per-run concurrency model of spec.md §5 is
// unaffected, and the mutex only matters if a host embeds multiple
// concurrent Library/VM runs.
var uidState = newXoshiro256(0xC0FFEE1234567)
var uidMu sync.Mutex

func nextUID() uint64 {
	uidMu.Lock()
	defer uidMu.Unlock()
	return uidState.next() & ((1 << 59) - 1)
}

// xoshiro256ss is a small, fast, non-cryptographic PRNG; Roxy ports the
// xoshiro256** generator named in spec.md §3 for object uid assignment.
type xoshiro256ss struct {
	s [4]uint64
}

func newXoshiro256(seed uint64) *xoshiro256ss {
	// SplitMix64 seeds the four words, the standard way to initialize
	// xoshiro state from a single 64-bit seed.
	sm := seed
	next := func() uint64 {
		sm += 0x9E3779B97F4A7C15
		z := sm
		z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
		z = (z ^ (z >> 27)) * 0x94D049BB133111EB
		return z ^ (z >> 31)
	}
	g := &xoshiro256ss{}
	for i := range g.s {
		g.s[i] = next()
	}
	return g
}

func rotl(x uint64, k uint) uint64 { return (x << k) | (x >> (64 - k)) }

func (g *xoshiro256ss) next() uint64 {
	result := rotl(g.s[1]*5, 7) * 9
	t := g.s[1] << 17

	g.s[2] ^= g.s[0]
	g.s[3] ^= g.s[1]
	g.s[1] ^= g.s[2]
	g.s[0] ^= g.s[3]
	g.s[2] ^= t
	g.s[3] = rotl(g.s[3], 45)

	return result
}
