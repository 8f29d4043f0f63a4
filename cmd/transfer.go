package main

import (
	"context"
	"fmt"
	"time"

	"github.com/acrophile/portify/internal/formatter"
	"github.com/acrophile/portify/internal/models"
	"github.com/acrophile/portify/internal/shared"
	"github.com/acrophile/portify/internal/tasks"
	"github.com/urfave/cli/v3"
)

// TransferRun performs a full source → target migration, resuming from a
// checkpoint unless --fresh is given.
func (r *Runner) TransferRun(ctx context.Context, cmd *cli.Command) error {
	if r.source == nil || r.target == nil {
		return fmt.Errorf("%w: add source and target credentials to config.toml", shared.ErrMissingCredentials)
	}

	opts := tasks.RunOptions{
		Fresh:   cmd.Bool("fresh"),
		Recheck: cmd.Bool("recheck"),
	}

	r.logger.Info("starting transfer", "fresh", opts.Fresh, "recheck", opts.Recheck)
	r.writePlain("Starting playlist transfer: %s → %s\n\n", r.source.Name(), r.target.Name())

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchPlaylists, tasks.FetchTracks, tasks.Resume:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.ResolveTarget, tasks.WriteBatch:
				r.writePlain("📝 %s\n", update.Message)
			case tasks.SearchTracks:
				r.writePlain("   %s\n", update.Message)
			case tasks.PlaylistDone:
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	started := time.Now()
	result, err := r.engine.Run(ctx, opts, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n%s", formatter.RunSummary(result))
	r.recordRun("transfer", started, result.Stats())

	if _, failed := result.Counts(); failed > 0 {
		return cli.Exit(fmt.Sprintf("%d playlists failed; run again to retry", failed), 1)
	}

	return nil
}

// TransferSync reconciles all playlists incrementally, only touching the
// target service where the library says work remains.
func (r *Runner) TransferSync(ctx context.Context, cmd *cli.Command) error {
	if r.source == nil || r.target == nil {
		return fmt.Errorf("%w: add source and target credentials to config.toml", shared.ErrMissingCredentials)
	}

	opts := tasks.SyncOptions{
		Recheck:   cmd.Bool("recheck"),
		Playlists: cmd.Args().Slice(),
	}

	r.logger.Info("starting sync", "recheck", opts.Recheck, "playlists", len(opts.Playlists))
	r.writePlain("Syncing playlists: %s → %s\n\n", r.source.Name(), r.target.Name())

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.SearchTracks:
				r.writePlain("   %s\n", update.Message)
			default:
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	started := time.Now()
	result, err := r.engine.Sync(ctx, opts, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n%s", formatter.SyncSummary(result))
	r.recordRun("sync", started, result.Stats())

	if _, failed := result.Counts(); failed > 0 {
		return cli.Exit(fmt.Sprintf("%d playlists failed; run again to retry", failed), 1)
	}

	return nil
}

// TransferStatus reports checkpoint progress and library counts.
func (r *Runner) TransferStatus(ctx context.Context, cmd *cli.Command) error {
	state := r.checkpoints.Load()
	stats := r.library.Stats("", r.platform())

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"checkpoint": state,
			"library":    stats,
		}, true)
	}

	return r.writePlain("%s", formatter.StatusSummary(state, stats, r.platform()))
}

// TransferReset discards any in-flight checkpoint.
func (r *Runner) TransferReset(ctx context.Context, cmd *cli.Command) error {
	if !r.checkpoints.Exists() {
		return r.writePlain("No checkpoint to reset.\n")
	}

	if err := r.checkpoints.Clear(); err != nil {
		return err
	}

	r.logger.Info("checkpoint reset")
	return r.writePlain("Checkpoint cleared. The next run starts fresh.\n")
}

// recordRun appends the run to history; failures are logged, not fatal.
func (r *Runner) recordRun(mode string, started time.Time, stats models.RunStats) {
	repo, err := r.runRepository()
	if err != nil {
		r.logger.Warn("run history unavailable", "err", err)
		return
	}

	run := models.NewRun(0, mode, started, time.Now(), stats)
	if err := repo.Create(run); err != nil {
		r.logger.Warn("failed to record run", "err", err)
	}
}
