package main

import (
	"os"

	"github.com/unisupport/unisupport/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
