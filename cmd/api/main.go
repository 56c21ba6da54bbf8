package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/bibliotheca/bibliotheca/internal/config"
	"github.com/bibliotheca/bibliotheca/internal/httpapi"
	"github.com/bibliotheca/bibliotheca/internal/logger"
)

// Global carries state shared by every command.
type Global struct {
	Config config.Config
	Logger *slog.Logger
}

// CLI is the bibliotheca command line.
type CLI struct {
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve ServeCmd `cmd:"" default:"1" help:"Run the HTTP API (default)"`
	Token TokenCmd `cmd:"" help:"Print a signed access token"`
	Seed  SeedCmd  `cmd:"" help:"Load a sample catalog into the configured backend"`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("bibliotheca"),
		kong.Description("Library catalog and circulation API."),
		kong.UsageOnError(),
		kong.Vars{"version": httpapi.Version},
	)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	logr := logger.New(cfg.Env, cfg.LogLevel)
	slog.SetDefault(logr)

	kctx.FatalIfErrorf(kctx.Run(&Global{Config: cfg, Logger: logr}))
}
