// Command docsage answers questions about a local document collection using
// retrieval-augmented generation against a local Ollama server.
package main

import (
	"fmt"
	"os"

	"github.com/docsage/docsage/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
