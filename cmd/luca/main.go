package main

import (
	"os"

	"github.com/luca-finance/luca/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
