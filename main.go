// The main package for the newsbot executable.
package main

import (
	"newsbot/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
