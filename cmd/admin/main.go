package main

import (
	"fmt"
	"os"

	"eduscan/internal/cli"
)

func main() {
	if err := cli.NewRootCommand(&cli.RootOptions{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cli.ExitCode(err))
	}
}
