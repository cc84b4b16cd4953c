// Package main provides the routekpi command line tool.
package main

import (
	"errors"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	err := newApp(os.Stdout, os.Stderr).Run(os.Args)
	if err == nil {
		return
	}

	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		log.Error().Err(err).Send()
		os.Exit(exitErr.ExitCode())
	}
	log.Fatal().Err(err).Send()
}
