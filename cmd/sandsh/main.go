// Package main provides the entry point for the sandsh CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/telnet2/go-practice/go-sandsh/cmd/sandsh/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		var exitErr *commands.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
