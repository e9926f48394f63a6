// Package main is the entry point for the ebaybuy CLI.
package main

import (
	"github.com/donaldgifford/ebaybuy/cmd/ebaybuy/cmd"
)

func main() {
	cmd.Execute()
}
