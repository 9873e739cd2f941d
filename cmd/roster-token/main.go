package main

import (
	"flag"
	"os"

	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/platform/config"
	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/tools/rostertoken"
)

func main() {
	cfg, err := rostertoken.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if err := rostertoken.Run(cfg, os.Stdout); err != nil {
		config.Exitf("mint token: %v", err)
	}
}
