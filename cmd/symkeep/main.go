package main

import (
	"os"

	"github.com/symkeep/symkeep/cmd/symkeep/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
