// Command silverdict runs the dictionary lookup engine: it ingests MDX,
// StarDict, and DSL dictionaries into a shared index and serves
// suggestions, lookups, and full-text search over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/silverdict-go/silverdict/cmd/silverdict/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
