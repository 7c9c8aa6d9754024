// Command tessera queries a datom store with Datalog.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/tessera/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) || !exitErr.Reported {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
