// Command tally is a terminal to-do list. The same entry point lives in
// cmd/tally; this one lets `go install` work from the module root.
package main

import (
	"os"

	"tally/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
