package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	err := newRootCommand().Execute()
	switch {
	case err == nil:
	case errors.Is(err, errCancelled):
		os.Exit(130)
	case errors.Is(err, errPartialFailure):
		os.Exit(1)
	default:
		fmt.Fprintln(os.Stderr, "transfercode:", err)
		os.Exit(1)
	}
}
