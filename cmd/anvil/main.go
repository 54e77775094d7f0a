// Command anvil is the CLI entry point for the content-addressed
// version control core in internal/repo.
package main

import (
	"fmt"
	"os"

	"github.com/mhalvorsen/anvilvcs/internal/cliapp"
)

func main() {
	if err := cliapp.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
