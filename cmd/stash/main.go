// Command stash is the CLI for the prismkit local database.
package main

import (
	"fmt"
	"os"

	"github.com/prismkit/stash/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
