// Package main is the entry point for the ossuary CLI.
package main

import (
	"os"

	"github.com/anicka-net/ossuary/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
