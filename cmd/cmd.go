// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// runCommand performs the full transfer, resuming from a checkpoint when one exists
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Transfer all playlists, resuming any interrupted run",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "fresh",
				Usage: "Discard any existing checkpoint and start over",
			},
			&cli.BoolFlag{
				Name:  "recheck",
				Usage: "Re-search tracks previously confirmed unavailable",
			},
		},
		Action: r.TransferRun,
	}
}

// syncCommand reconciles playlists incrementally
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "sync",
		Usage:     "Incrementally sync new tracks, skipping synced playlists",
		ArgsUsage: "[playlist name ...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "recheck",
				Usage: "Re-search tracks previously confirmed unavailable",
			},
		},
		Action: r.TransferSync,
	}
}

// statusCommand reports checkpoint and library state
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show transfer progress and library counts",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output JSON",
			},
		},
		Action: r.TransferStatus,
	}
}

// libraryCommand groups track library operations
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Track library operations",
		Commands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Show library match counts",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output JSON",
					},
				},
				Action: r.LibraryStats,
			},
			{
				Name:  "export",
				Usage: "Export unavailable tracks to CSV",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
						Value:   "unavailable_tracks.csv",
					},
				},
				Action: r.LibraryExport,
			},
		},
	}
}

// resetCommand clears the transfer checkpoint
func resetCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "reset",
		Usage:  "Discard the in-flight transfer checkpoint",
		Action: r.TransferReset,
	}
}

// historyCommand lists past runs
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List past transfer and sync runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to show",
				Value: 20,
			},
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Filter by run mode (transfer or sync)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output JSON",
			},
		},
		Action: r.History,
	}
}

// dailyCommand runs the scheduled sync wrapper
func dailyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "daily",
		Usage: "Run the sync on a schedule and journal the results",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "once",
				Usage: "Run a single sync pass and exit",
			},
			&cli.StringFlag{
				Name:  "schedule",
				Usage: "Cron schedule (defaults to config)",
			},
			&cli.StringFlag{
				Name:  "notes-dir",
				Usage: "Directory for Markdown notes (defaults to config)",
			},
		},
		Action: r.Daily,
	}
}

// setupCommand initializes config and the run history database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create a starter config file and initialize the database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		runCommand, syncCommand, statusCommand, libraryCommand, resetCommand, historyCommand, dailyCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}
