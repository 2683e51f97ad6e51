package vm

import (
	"fmt"
	"io"
	"time"

	"github.com/xyproto/roxy/internal/roxy/bytecode"
	"github.com/xyproto/roxy/internal/roxy/strtab"
)

// Builtins returns the native function table every module imports
// automatically (spec.md §6): the per-width print trampolines, the
// generic string print, string concatenation, and a wall-clock reader.
// Grounded on module.cpp's ADD_NATIVE_PRINT_FUN macro, which registers
// one native per primitive width rather than a single variadic
// formatter.
func Builtins(out io.Writer, interner *strtab.Interner) map[string]bytecode.NativeFunc {
	return map[string]bytecode.NativeFunc{
		"print_i32": func(a bytecode.ArgStackView) { fmt.Fprintln(out, a.PopI32()) },
		"print_i64": func(a bytecode.ArgStackView) { fmt.Fprintln(out, a.PopI64()) },
		"print_u32": func(a bytecode.ArgStackView) { fmt.Fprintln(out, a.PopU32()) },
		"print_u64": func(a bytecode.ArgStackView) { fmt.Fprintln(out, a.PopU64()) },
		"print_f32": func(a bytecode.ArgStackView) { fmt.Fprintln(out, a.PopF32()) },
		"print_f64": func(a bytecode.ArgStackView) { fmt.Fprintln(out, a.PopF64()) },
		"print": func(a bytecode.ArgStackView) {
			s := a.PopRef()
			fmt.Fprintln(out, s.Chars)
			s.Decref()
		},
		"concat": func(a bytecode.ArgStackView) {
			b := a.PopRef()
			x := a.PopRef()
			result := strtab.Concat(x, b)
			x.Decref()
			b.Decref()
			a.PushRef(result)
		},
		"clock": func(a bytecode.ArgStackView) {
			a.PushF64(float64(time.Now().UnixNano()) / 1e9)
		},
	}
}
