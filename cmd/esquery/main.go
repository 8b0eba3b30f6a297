// Command esquery compiles declarative filter documents into Elasticsearch
// query DSL and runs them.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/roach88/esquery/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		// Commands report their own errors; anything else is a usage error
		// raised by cobra before a command ran.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(cli.ExitCommandError)
		}
		os.Exit(exitErr.Code)
	}
}
