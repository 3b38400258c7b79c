// Package main imports transcript CSV exports into the play store.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/probenraum/souffleur/internal/platform/config"
	scriptimporter "github.com/probenraum/souffleur/internal/tools/importer"
)

func main() {
	cfg, err := scriptimporter.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	if err := scriptimporter.Run(context.Background(), cfg, os.Stdout); err != nil {
		config.Exitf("Error: %v", err)
	}
}
