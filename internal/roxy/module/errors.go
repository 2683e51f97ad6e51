package module

import "fmt"

// LinkErrorKind discriminates the link step's failure modes (spec.md
// §4.8): a duplicate module name seen while collecting sources, an
// import naming a module that was never added, and a symbol (function
// or native function) that could not be resolved at its defining
// module -- covering the spec's four named failure scenarios (duplicate
// module name, missing import symbol, unresolved native function,
// unresolved cross-module chunk) under three kinds, since the latter
// two are both "the symbol wasn't where its CallTarget said it would be".
type LinkErrorKind uint8

const (
	MissingSymbol LinkErrorKind = iota
	MissingModule
	DuplicateModule
)

func (k LinkErrorKind) String() string {
	switch k {
	case MissingModule:
		return "MissingModule"
	case DuplicateModule:
		return "DuplicateModule"
	default:
		return "MissingSymbol"
	}
}

// LinkError is one link-time diagnostic, carrying enough context to
// report "missing symbol 'X' in module 'Y'" without the caller needing
// to re-derive it.
type LinkError struct {
	Kind   LinkErrorKind
	Module string
	Symbol string
}

func (e LinkError) Error() string {
	switch e.Kind {
	case MissingModule:
		return fmt.Sprintf("cannot find module '%s'", e.Module)
	case DuplicateModule:
		return fmt.Sprintf("duplicate module name '%s'", e.Module)
	default:
		return fmt.Sprintf("cannot find symbol '%s' in module '%s'", e.Symbol, e.Module)
	}
}
