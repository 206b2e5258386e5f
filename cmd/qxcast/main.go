package main

import (
	"os"

	"github.com/katalvlaran/qxcast/cmd/qxcast/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
