package main

import (
	"os"

	"github.com/cvforge/cvforge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
