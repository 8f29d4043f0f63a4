package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/acrophile/portify/internal/services"
	"github.com/acrophile/portify/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	config := shared.DefaultConfig()
	configPath := os.Getenv("PORTIFY_CONFIG")
	if configPath == "" {
		configPath = "config.toml"
	}
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		}
	}

	logger := shared.NewLogger(nil)
	if config.Logging.File != "" {
		logger = shared.NewFileLogger(config.Logging)
	}

	var source services.SourceService
	var target services.TargetService

	if config.Credentials.Spotify.AccessToken != "" {
		if svc, err := services.NewSpotifyService(config.Credentials.Spotify); err == nil {
			source = svc
		} else {
			logger.Warn("spotify unavailable", "err", err)
		}
	}
	if config.Credentials.Tidal.AccessToken != "" {
		if svc, err := services.NewTidalService(config.Credentials.Tidal); err == nil {
			target = svc
		} else {
			logger.Warn("tidal unavailable", "err", err)
		}
	}

	runner := NewRunner(RunnerOpts{
		Config: config,
		Source: source,
		Target: target,
		Logger: logger,
	})

	app := &cli.Command{
		Name:     "portify",
		Usage:    "Migrate playlists between Spotify & TIDAL",
		Version:  "0.3.0",
		Commands: runner.register(),
		// bare invocation runs the transfer, resuming any checkpoint
		Action: runner.TransferRun,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		if exitErr, ok := err.(cli.ExitCoder); ok {
			logger.Error(exitErr.Error())
			os.Exit(exitErr.ExitCode())
		}
		if errors.Is(err, context.Canceled) {
			logger.Warn("interrupted; progress saved to checkpoint")
			os.Exit(130)
		}
		logger.Fatalf("application error: %v", err)
	}
}
