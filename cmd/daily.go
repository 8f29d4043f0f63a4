package main

import (
	"context"
	"fmt"
	"time"

	"github.com/acrophile/portify/internal/formatter"
	"github.com/acrophile/portify/internal/shared"
	"github.com/acrophile/portify/internal/tasks"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v3"
)

// Daily runs the incremental sync and records a Markdown note of the result.
// With --once it runs a single pass; otherwise it stays resident and fires on
// the cron schedule until interrupted.
func (r *Runner) Daily(ctx context.Context, cmd *cli.Command) error {
	if r.source == nil || r.target == nil {
		return fmt.Errorf("%w: add source and target credentials to config.toml", shared.ErrMissingCredentials)
	}

	notesDir := cmd.String("notes-dir")
	if notesDir == "" {
		notesDir = r.config.Daily.NotesDir
	}

	if cmd.Bool("once") {
		return r.dailySync(ctx, notesDir)
	}

	schedule := cmd.String("schedule")
	if schedule == "" {
		schedule = r.config.Daily.Schedule
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if err := r.dailySync(ctx, notesDir); err != nil {
			r.logger.Error("scheduled sync failed", "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("%w: invalid schedule '%s': %v", shared.ErrInvalidConfig, schedule, err)
	}

	r.logger.Info("daily sync scheduled", "schedule", schedule, "notes_dir", notesDir)
	r.writePlain("Daily sync scheduled (%s). Press Ctrl+C to stop.\n", schedule)

	c.Start()
	<-ctx.Done()

	stopCtx := c.Stop()
	<-stopCtx.Done()
	return nil
}

func (r *Runner) dailySync(ctx context.Context, notesDir string) error {
	started := time.Now()
	r.logger.Info("daily sync starting")

	result, err := r.engine.Sync(ctx, tasks.SyncOptions{}, nil)
	if err != nil {
		return err
	}

	r.recordRun("sync", started, result.Stats())
	r.writePlain("%s", formatter.SyncSummary(result))

	if notesDir != "" {
		entry := formatter.DailyNote(result, started)
		path, err := formatter.AppendDailyNote(notesDir, entry, started)
		if err != nil {
			r.logger.Warn("failed to write daily note", "err", err)
		} else {
			r.logger.Info("daily note written", "path", path)
		}
	}

	return nil
}
