// Package main is the entry point for the moneywallet CLI.
package main

import (
	"os"

	"github.com/AndreAle94/moneywallet-sub006/cmd/moneywallet/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
