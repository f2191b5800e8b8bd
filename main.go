// main package for sanmat command-line tool
// Package main is the entry point for the sanmat CLI.
package main

import "sanmat.dev/pkg/sanmat/cmd"

func main() {
	cmd.Execute()
}
