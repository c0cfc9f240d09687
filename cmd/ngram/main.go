// Command ngram tokenizes, segments and highlights text from the command line.
package main

import (
	"os"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
