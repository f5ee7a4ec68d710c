package main

import (
	"os"

	"gotr/cmd/gotr-sim/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
