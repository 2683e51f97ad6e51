// Command roxy compiles and runs Roxy source files.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/xyproto/roxy/internal/roxy/cli"
)

const versionString = "roxy 0.1.0"

func main() {
	var (
		verbose     = flag.Bool("v", false, "verbose mode")
		verboseLong = flag.Bool("verbose", false, "verbose mode")
		quiet       = flag.Bool("q", false, "quiet mode")
		dump        = flag.Bool("dump", false, "disassemble the entry module instead of running it")
		entryModule = flag.String("m", "", "entry module name (required when compiling a directory)")
		versionFlag = flag.Bool("version", false, "print version information and exit")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Println(versionString)
		os.Exit(0)
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: roxy [-v] [-q] [-dump] [-m module] <file.roxy|directory>")
		os.Exit(2)
	}

	cfg := cli.Config{
		Verbose: *verbose || *verboseLong,
		Quiet:   *quiet,
		Dump:    *dump,
		Entry:   *entryModule,
	}

	if err := cli.Run(flag.Arg(0), cfg, os.Stdout, os.Stderr); err != nil {
		log.Fatalf("roxy: %v", err)
	}
}
