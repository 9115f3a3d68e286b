// Package main provides the servicewatch CLI entrypoint.
package main

import (
	"os"

	"servicewatch/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
