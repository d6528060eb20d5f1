package main

import (
	"errors"
	"fmt"
	"os"

	"yashubustudio/issuematch/matcher"
)

// Exit statuses of the issuematch binary.
const (
	exitOK      = 0
	exitOther   = 1
	exitConfig  = 2
	exitEmbed   = 3
	exitPersist = 4
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "issuematch:", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, matcher.ErrConfigLoad), errors.Is(err, matcher.ErrScopeNotFound):
		return exitConfig
	case errors.Is(err, matcher.ErrEmbedding):
		return exitEmbed
	case errors.Is(err, matcher.ErrResultPersist):
		return exitPersist
	default:
		return exitOther
	}
}
