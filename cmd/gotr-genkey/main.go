package main

import (
	"os"

	"gotr/cmd/gotr-genkey/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
