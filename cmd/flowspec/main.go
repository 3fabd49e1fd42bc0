package main

import (
	"os"

	"github.com/mur-run/flowspec/cmd/flowspec/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
