package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/ajitpratap0/mongoextract/pkg/errors"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorText(err))
		os.Exit(1)
	}
}

// errorText returns the operator message of user errors verbatim
func errorText(err error) string {
	if msg, ok := errors.UserMessage(err); ok {
		return msg
	}
	return err.Error()
}
