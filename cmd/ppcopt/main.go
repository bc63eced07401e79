package main

import (
	"os"

	"github.com/ignite/ppc-optimizer/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
