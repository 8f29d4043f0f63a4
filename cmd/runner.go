package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/acrophile/portify/internal/checkpoint"
	"github.com/acrophile/portify/internal/library"
	"github.com/acrophile/portify/internal/repositories"
	"github.com/acrophile/portify/internal/services"
	"github.com/acrophile/portify/internal/shared"
	"github.com/acrophile/portify/internal/tasks"
	"github.com/charmbracelet/log"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	source      services.SourceService
	target      services.TargetService
	library     *library.Library
	checkpoints *checkpoint.Store
	engine      *tasks.Engine
	logger      *log.Logger
	output      io.Writer

	db   *sql.DB
	runs *repositories.RunRepository
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	Source      services.SourceService
	Target      services.TargetService
	Library     *library.Library
	Checkpoints *checkpoint.Store
	DB          *sql.DB
	Logger      *log.Logger
	Output      io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Library == nil {
		opts.Library, _ = library.Open(opts.Config.Storage.LibraryPath, opts.Logger)
	}
	if opts.Checkpoints == nil {
		opts.Checkpoints = checkpoint.NewStore(opts.Config.Storage.CheckpointPath, opts.Logger)
	}

	engine := tasks.NewEngine(opts.Source, opts.Target, opts.Library, opts.Checkpoints,
		opts.Config.Transfer, opts.Logger)

	r := &Runner{
		config:      opts.Config,
		source:      opts.Source,
		target:      opts.Target,
		library:     opts.Library,
		checkpoints: opts.Checkpoints,
		engine:      engine,
		logger:      opts.Logger,
		output:      opts.Output,
		db:          opts.DB,
	}
	if r.db != nil {
		r.runs = repositories.NewRunRepository(r.db)
	}
	return r
}

// runRepository lazily opens the run history database, applying migrations on
// first use.
func (r *Runner) runRepository() (*repositories.RunRepository, error) {
	if r.runs != nil {
		return r.runs, nil
	}

	db, err := shared.NewDatabase(r.config.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening run history database: %w", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating run history database: %w", err)
	}

	r.db = db
	r.runs = repositories.NewRunRepository(db)
	return r.runs, nil
}

// platform is the library column key for the target service.
func (r *Runner) platform() string {
	if r.target == nil {
		return "tidal"
	}
	return strings.ToLower(r.target.Name())
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
