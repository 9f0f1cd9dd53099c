package main

import (
	"fmt"
	"os"

	"github.com/futureCreator/exbuild/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "exbuild: %s\n", cli.Diagnostic(err))
		os.Exit(1)
	}
}
