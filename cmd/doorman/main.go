package main

import "github.com/jlowell/doorman/cmd/doorman/cmd"

func main() {
	cmd.Execute()
}
