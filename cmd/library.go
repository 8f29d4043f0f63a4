package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

// LibraryStats prints aggregate library counts for the target platform.
func (r *Runner) LibraryStats(ctx context.Context, cmd *cli.Command) error {
	platform := r.platform()

	if cmd.Bool("json") {
		return r.writeJSON(r.library.Stats("", platform), true)
	}

	return r.writePlain("%s\n", r.library.Summary(platform))
}

// LibraryExport writes the unavailable-tracks report for manual follow-up.
func (r *Runner) LibraryExport(ctx context.Context, cmd *cli.Command) error {
	out := cmd.String("output")

	n, err := r.library.ExportUnavailable(r.platform(), out)
	if err != nil {
		return err
	}

	r.logger.Info("exported unavailable tracks", "count", n, "path", out)
	return r.writePlain("Exported %d unavailable tracks to %s\n", n, out)
}
