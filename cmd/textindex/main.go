// Package main provides the entry point for the textindex CLI.
package main

import (
	"os"

	"github.com/Adithya-Monish-Kumar-K/text-file-indexer/cmd/textindex/cmd"
	apperrors "github.com/Adithya-Monish-Kumar-K/text-file-indexer/pkg/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(apperrors.ExitCode(err))
	}
}
