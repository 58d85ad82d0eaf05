// stdlibgen emits the Python standard library preload script that the
// packaged application imports at startup, so bundlers scanning for
// import statements keep the whole standard library.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/learningequality/kolibri-desktop/internal/packaging"
	"github.com/learningequality/kolibri-desktop/internal/version"
)

func main() {
	stdlibDir := flag.String("stdlib", "", "Python standard library directory (default: ask python3 on PATH)")
	out := flag.String("o", "stdlib_imports.py", "Output file")
	showVersion := flag.Bool("version", false, "Show version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("stdlibgen", version.Full())
		os.Exit(0)
	}

	dir := *stdlibDir
	if dir == "" {
		detected, err := packaging.DetectStdlib()
		if err != nil {
			fmt.Fprintf(os.Stderr, "stdlibgen: locate Python standard library: %v (pass -stdlib explicitly)\n", err)
			os.Exit(1)
		}
		dir = detected
	}

	count, err := packaging.GenerateFile(dir, *out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stdlibgen: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d standard library imports from %s to %s\n", count, dir, *out)
}
