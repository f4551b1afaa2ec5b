package main

import (
	"fmt"
	"os"

	"github.com/tyemirov/tasker/cmd/cli"
)

const (
	exitErrorTemplateConstant = "%v\n"
	exitFailureCodeConstant   = 1
)

// main executes the tasker command-line application.
func main() {
	if executionError := cli.Execute(); executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(exitFailureCodeConstant)
	}
}
