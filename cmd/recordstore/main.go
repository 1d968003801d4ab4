// Command recordstore drives the process-wide record store from scenario
// files and an interactive shell.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/recordstore/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
