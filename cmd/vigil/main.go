package main

import (
	"os"

	"github.com/autosentience/vigil/cmd/vigil/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
