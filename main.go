package main

import (
	"os"

	"github.com/mrlokans/deardayone/internal/cli"
	"github.com/mrlokans/deardayone/internal/config"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	config.LoadDotEnv(config.DotEnvPaths()...)
	cfg := config.NewConfig()

	cmd := cli.NewRootCommand(cfg)
	cmd.Version = Version + " (" + Commit + ")"

	if err := cli.Execute(cmd); err != nil {
		os.Exit(1)
	}
}
