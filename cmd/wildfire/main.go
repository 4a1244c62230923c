package main

import (
	"os"

	"github.com/YuminosukeSato/wildfire/internal/cli"
	"github.com/YuminosukeSato/wildfire/pkg/log"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
