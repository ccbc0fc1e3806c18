// Package main is the entry point for the txn CLI binary.
package main

import (
	"os"

	cli "txn-api/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
