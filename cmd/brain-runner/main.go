// Command brain-runner is the agent-launching counterpart to braind:
// a cobra CLI wrapping the Scheduler Loop, grounded on
// jra3-linear-fuse's cmd root+subcommand-per-file cobra layout.
package main

import (
	"fmt"
	"os"

	"github.com/brainforge/braind/cmd/brain-runner/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(commands.ExitCodeFor(err))
	}
}
