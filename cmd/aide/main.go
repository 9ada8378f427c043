package main

import (
	"os"

	"github.com/aide-oss/aide/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
