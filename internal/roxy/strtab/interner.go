package strtab

import "github.com/cespare/xxhash/v2"

// key is the interner's lookup key: (hash, length, bytes) as spec.md
// §4.2 specifies, so that two distinct byte sequences which happen to
// collide on hash never alias. Go map keys compare by value, so using
// the string itself (which already carries its own length) as the
// final discriminant gives us the full (hash, length, bytes) contract
// for free -- the explicit Hash field still exists on ObjString because
// the VM and constant table need it without rehashing.
type key struct {
	hash uint64
	text string
}

// Interner canonicalizes strings by content: equal byte sequences
// always return the same *ObjString pointer. It owns every ObjString it
// creates and is torn down with the compilation that created it (the
// arena/interner pairing spec.md's lifecycle section describes).
type Interner struct {
	table map[key]*ObjString
}

// New creates an empty Interner.
func New() *Interner {
	return &Interner{table: make(map[key]*ObjString)}
}

// Intern returns the canonical *ObjString for s, creating and storing
// one on first sight. The returned object's refcount is incremented on
// every call, matching the spec's contract that the interner's own
// reference counts against interned strings.
func (in *Interner) Intern(s string) *ObjString {
	h := xxhash.Sum64String(s)
	k := key{hash: h, text: s}
	if obj, ok := in.table[k]; ok {
		obj.Incref()
		return obj
	}
	obj := &ObjString{
		Obj:   Obj{Type: ObjTypeString, UID: nextUID(), RefCount: 1},
		Hash:  h,
		Chars: s,
	}
	in.table[k] = obj
	return obj
}

// Lookup reports the canonical object for s without creating one,
// mirroring StringInterner's allocation-free lookup path used when the
// caller already knows the string might not need to be created (e.g.
// checking whether a symbol name was ever interned).
func (in *Interner) Lookup(s string) (*ObjString, bool) {
	h := xxhash.Sum64String(s)
	obj, ok := in.table[key{hash: h, text: s}]
	return obj, ok
}

// Len reports how many distinct strings are currently interned.
func (in *Interner) Len() int { return len(in.table) }
