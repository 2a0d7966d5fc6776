package main

import (
	"fmt"
	"os"

	"fruitbid/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fruitbid: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
