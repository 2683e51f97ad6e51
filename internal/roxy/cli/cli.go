// Package cli implements the roxy command-line frontend: source
// discovery (single file or directory), module-name derivation,
// diagnostic rendering, and driving module.Library through Compile
// and Run. Grounded on flapc's cli.go subcommand dispatch and main.go's
// flag wiring, adapted from "compile a .c67 file to a binary" to
// "compile and run a .roxy program in-process".
package cli

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	env "github.com/xyproto/env/v2"
	"github.com/xyproto/roxy/internal/roxy/module"
)

// Config holds one run's parsed flags.
type Config struct {
	Verbose bool
	Quiet   bool
	Dump    bool
	Entry   string // -m: which module's entry chunk to run/dump, required in directory mode
}

var (
	errColor = color.New(color.FgRed, color.Bold)
	runColor = color.New(color.FgGreen)
)

// Run is the CLI's entry point. path names either a single .roxy file
// or a directory tree of them; stdout receives the program's own
// print_* output, stderr receives diagnostics.
func Run(path string, cfg Config, stdout, stderr io.Writer) error {
	if env.Bool("ROXY_VERBOSE", false) {
		cfg.Verbose = true
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot read '%s': %w", path, err)
	}

	lib := module.NewLibrary(stdout)
	if cfg.Verbose {
		if n := env.Int("ROXY_ARENA_SIZE", 0); n > 0 {
			fmt.Fprintf(stderr, "requested source arena size: %d bytes (informational; arena grows on demand)\n", n)
		}
		lib.SetASTLog(stderr)
	}

	entry := cfg.Entry
	if info.IsDir() {
		if err := addDir(lib, path); err != nil {
			return err
		}
		if entry == "" {
			return fmt.Errorf("-m <module> is required when compiling a directory")
		}
	} else {
		name := module.DeriveModuleName(filepath.Base(path))
		source, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := lib.AddSource(name, source); err != nil {
			return err
		}
		entry = name
	}

	if cfg.Verbose {
		fmt.Fprintf(stderr, "compiling %s (entry module '%s')\n", path, entry)
	}

	if err := lib.Compile(); err != nil {
		errColor.Fprintf(stderr, "error: %s\n", err)
		return err
	}

	if cfg.Dump {
		m, ok := lib.Module(entry)
		if !ok {
			return fmt.Errorf("no such module '%s'", entry)
		}
		dumpModule(stdout, m)
		return nil
	}

	if cfg.Verbose && !cfg.Quiet {
		runColor.Fprintf(stderr, "running %s\n", entry)
	}

	if _, err := lib.Run(entry); err != nil {
		errColor.Fprintf(stderr, "runtime error: %s\n", err)
		return err
	}
	return nil
}

// addDir registers every .roxy file under root, deriving each one's
// module name from its path relative to root (spec.md §6: subdirectory
// separators become '.', extension stripped).
func addDir(lib *module.Library, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".roxy") {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		source, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		return lib.AddSource(module.DeriveModuleName(rel), source)
	})
}

// dumpModule renders every chunk a module compiled (its entry plus
// every top-level function) via bytecode.Chunk.Disassemble.
func dumpModule(w io.Writer, m *module.Module) {
	for name, chunk := range m.Functions {
		fmt.Fprintf(w, "-- %s --\n", name)
		chunk.Disassemble(w)
	}
	fmt.Fprintf(w, "-- %s.$main --\n", m.Name)
	m.Entry.Disassemble(w)
}
