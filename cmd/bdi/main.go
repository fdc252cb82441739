// Command bdi builds, runs, disassembles, and folds BDI graphs.
package main

import (
	"fmt"
	"os"

	"github.com/dd0wney/bdi/internal/cli"
)

func main() {
	root := cli.NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
