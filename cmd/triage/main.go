package main

import (
	"fmt"
	"os"

	"github.com/sprite-ai/triage/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "triage:", err)
		os.Exit(cli.ExitCode(err))
	}
}
