// Package arena implements a generic bump allocator, and
// the relative-offset handles that let the arena's backing storage grow
// (and relocate) without invalidating references already handed out.
//
// This plays the same role flapc's arena.go plays for generated machine
// code (a cursor that bumps through a byte buffer, doubling capacity on
// overflow) but backs compile-time Go values instead of emitted
// instructions, and nodes are addressed by index rather than raw
// pointer so the backing slice can grow with append/copy semantics.
package arena

import "github.com/dustin/go-humanize"

// DefaultInitialCapacity is the number of nodes the arena preallocates
// before its first growth, mirroring flapc's DefaultGlobalArenaSize
// role of picking a generous starting point for a single compilation.
const DefaultInitialCapacity = 256

// GrowthFactor is the capacity scale the growth notification uses to
// estimate the grown size it reports, matching the 1.3x growth factor
// flapc's codegen arena uses for native code buffers.
const GrowthFactor = 1.3

// Ref is a self-relative handle into an Arena's backing storage: an
// index, not a pointer, so growth (which may reallocate the backing
// slice) never invalidates a Ref held by another node in the same
// arena. A zero Ref means "absent" (the arena never hands out index 0
// as a valid first allocation's Ref -- see New).
type Ref int32

// Nil is the absent-reference sentinel; Arena indices are 1-based so
// the zero value of Ref can mean "no node" without an extra bool.
const Nil Ref = 0

// BumpAllocator is a generic bump allocator over a single element type
// T. Roxy uses one, a BumpAllocator[byte] owned by the Library, for the
// source text of every module; AST and type nodes are ordinary Go heap
// values and are not arena-allocated.
type BumpAllocator[T any] struct {
	items    []T
	verbose  bool
	onGrowth func(oldCap, newCap int)
}

// New creates a BumpAllocator with DefaultInitialCapacity reserved.
func New[T any]() *BumpAllocator[T] {
	a := &BumpAllocator[T]{}
	a.items = make([]T, 1, DefaultInitialCapacity) // index 0 reserved for Nil
	return a
}

// SetVerbose installs fn as the growth hook, called with the old and
// estimated new capacity in bytes whenever an allocation must grow the
// backing slice. No caller in this repository installs one.
func (a *BumpAllocator[T]) SetVerbose(fn func(oldCap, newCap int)) {
	a.onGrowth = fn
}

// Alloc appends value and returns a Ref to its stored copy. The backing
// slice grows by Go's append; if it is full and onGrowth is set,
// onGrowth is first notified with the current byte size and a
// GrowthFactor-scaled estimate of the new one, as raw byte counts.
func (a *BumpAllocator[T]) Alloc(value T) Ref {
	if len(a.items) == cap(a.items) && a.onGrowth != nil {
		var zero T
		elemSize := int(sizeofApprox(zero))
		oldBytes := cap(a.items) * elemSize
		newCap := int(float64(cap(a.items))*GrowthFactor) + 1
		newBytes := newCap * elemSize
		a.onGrowth(oldBytes, newBytes)
	}
	a.items = append(a.items, value)
	return Ref(len(a.items) - 1)
}

// Get dereferences a Ref into a pointer at its current backing-slice
// position. The pointer is only valid until the next Alloc call that
// triggers growth -- callers that need a stable handle across
// allocations must keep the Ref, not the pointer, exactly as the
// rel_ptr design note requires (arena-internal handles are offsets,
// not addresses).
func (a *BumpAllocator[T]) Get(ref Ref) *T {
	if ref == Nil {
		return nil
	}
	return &a.items[ref]
}

// Len reports how many nodes have been allocated (including the
// reserved Nil slot).
func (a *BumpAllocator[T]) Len() int {
	return len(a.items)
}

// AllocBytes copies data in as one contiguous run and returns the Ref
// of its first element; the run occupies len(data) consecutive slots
// from there. This is the bulk counterpart to Alloc, for a caller that
// already has a whole buffer rather than one element at a time -- the
// Library's use of a BumpAllocator[byte] to own every module's source
// text plays the role read_file_to_buf's m_source_allocator argument
// plays in the original library.hpp.
func (a *BumpAllocator[T]) AllocBytes(data []T) Ref {
	needed := len(a.items) + len(data)
	if needed > cap(a.items) && a.onGrowth != nil {
		var zero T
		elemSize := int(sizeofApprox(zero))
		oldBytes := cap(a.items) * elemSize
		newCap := cap(a.items)
		for newCap < needed {
			newCap = int(float64(newCap)*GrowthFactor) + 1
		}
		a.onGrowth(oldBytes, newCap*elemSize)
	}
	start := Ref(len(a.items))
	a.items = append(a.items, data...)
	return start
}

// Slice returns the stored run of length n starting at ref, the bulk
// counterpart to Get. Valid only until the next Alloc/AllocBytes call
// that triggers growth.
func (a *BumpAllocator[T]) Slice(ref Ref, n int) []T {
	return a.items[ref : int(ref)+n]
}

// GrowthReport renders the arena's current footprint (allocated
// elements, including the reserved Nil slot) as a humanized byte size,
// e.g. "1.2 kB".
func (a *BumpAllocator[T]) GrowthReport() string {
	var zero T
	elemSize := int(sizeofApprox(zero))
	return humanize.Bytes(uint64(len(a.items) * elemSize))
}

// sizeofApprox gives a rough per-element byte count for diagnostics
// only; it does not need to be exact since it never affects allocation
// behavior, only the text printed for -v.
func sizeofApprox(v any) uintptr {
	switch v.(type) {
	case int8, uint8, bool:
		return 1
	case int16, uint16:
		return 2
	case int32, uint32, float32:
		return 4
	default:
		return 8
	}
}
