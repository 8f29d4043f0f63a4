package main

import (
	"context"
	"errors"
	"os"

	"github.com/acrophile/portify/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes a starter config file and initializes the run history
// database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := shared.CreateConfigFile(configPath); err != nil {
			return err
		}
		r.writePlain("Created %s; fill in your credentials.\n", configPath)
	} else {
		r.writePlain("Config file %s already exists, leaving it alone.\n", configPath)
	}

	if _, err := r.runRepository(); err != nil {
		return err
	}

	r.logger.Info("setup complete", "config", configPath, "database", r.config.Storage.DatabasePath)
	return r.writePlain("Database ready at %s\n", r.config.Storage.DatabasePath)
}
