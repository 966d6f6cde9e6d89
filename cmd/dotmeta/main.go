package main

import (
	"os"

	"github.com/dotmeta-dev/dotmeta/internal/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
