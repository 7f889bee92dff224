// Package main is the entry point for the docvalidate CLI.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/thoreinstein/docvalidate/cmd/docvalidate/commands"
	"github.com/thoreinstein/docvalidate/internal/errors"
)

func main() {
	os.Exit(exitCode(os.Stderr, commands.Execute()))
}

// exitCode prints err (unless it was already reported) and maps it to a
// process exit code.
func exitCode(w io.Writer, err error) int {
	if err == nil {
		return errors.ExitSuccess
	}

	var exitErr *errors.ExitError
	if errors.As(err, &exitErr) {
		if !exitErr.Reported {
			printError(w, exitErr.Err, exitErr.Suggestion)
		}
		return exitErr.Code
	}

	printError(w, err, "")
	return errors.ExitUser
}

func printError(w io.Writer, err error, suggestion string) {
	if err != nil {
		fmt.Fprintf(w, "%s %v\n", color.RedString("Error:"), err)
	}
	if suggestion != "" {
		fmt.Fprintf(w, "%s %s\n", color.YellowString("Hint:"), suggestion)
	}
}
