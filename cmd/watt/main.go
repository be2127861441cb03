// Package main is the entry point for the watt CLI.
package main

import (
	"os"

	"github.com/wattwdl/watt/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
