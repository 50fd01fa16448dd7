package main

import (
	"os"

	"github.com/tatianab/kitchen-wars/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
