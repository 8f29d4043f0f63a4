package main

import (
	"context"

	"github.com/acrophile/portify/internal/formatter"
	"github.com/urfave/cli/v3"
)

// History lists past transfer and sync runs, most recent first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.runRepository()
	if err != nil {
		return err
	}

	criteria := map[string]any{
		"limit": int(cmd.Int("limit")),
		"mode":  cmd.String("mode"),
	}

	runs, err := repo.List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		rows := make([]map[string]any, 0, len(runs))
		for _, run := range runs {
			rows = append(rows, map[string]any{
				"sequence":    run.Sequence(),
				"mode":        run.Mode(),
				"started_at":  run.StartedAt(),
				"finished_at": run.FinishedAt(),
				"stats":       run.Stats(),
			})
		}
		return r.writeJSON(rows, true)
	}

	return r.writePlain("%s", formatter.HistoryTable(runs))
}
