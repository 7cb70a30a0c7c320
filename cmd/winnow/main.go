// Package main is the entry point for winnow. All behavior lives in the
// cli package so the exit code can be tested without os.Exit.
package main

import (
	"os"

	"github.com/quelsh/winnow/internal/cli"
)

func main() {
	os.Exit(cli.Main())
}
