package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/acrophile/portify/internal/models"
	"github.com/acrophile/portify/internal/shared"
)

// RunRepository persists run history rows, one per completed transfer or
// sync invocation. Rows are append-only; a run is recorded once after it
// finishes and never modified.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new [models.Run] into the database with generated ID and sequence
func (r *RunRepository) Create(run *models.Run) error {
	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	now := time.Now()
	run.SetID(id)
	run.SetSequence(sequence)
	run.SetCreatedAt(now)
	run.SetUpdatedAt(now)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	stats := run.Stats()
	query := `
		INSERT INTO runs (id, sequence, mode, started_at, finished_at,
			playlists_total, playlists_completed, playlists_failed, playlists_skipped,
			tracks_matched, tracks_unavailable, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		run.Mode(),
		run.StartedAt(),
		run.FinishedAt(),
		stats.PlaylistsTotal,
		stats.PlaylistsCompleted,
		stats.PlaylistsFailed,
		stats.PlaylistsSkipped,
		stats.TracksMatched,
		stats.TracksUnavailable,
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID
func (r *RunRepository) Get(id string) (*models.Run, error) {
	query := `
		SELECT id, sequence, mode, started_at, finished_at,
			playlists_total, playlists_completed, playlists_failed, playlists_skipped,
			tracks_matched, tracks_unavailable, created_at, updated_at
		FROM runs
		WHERE id = ?
	`

	run, err := scanRun(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: run %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	return run, nil
}

// Update is not supported: run history rows are immutable once recorded.
func (r *RunRepository) Update(run *models.Run) error {
	return fmt.Errorf("%w: run history is append-only", shared.ErrNotImplemented)
}

// Delete is not supported: run history rows are immutable once recorded.
func (r *RunRepository) Delete(id string) error {
	return fmt.Errorf("%w: run history is append-only", shared.ErrNotImplemented)
}

// List retrieves runs matching the given criteria, most recent first.
// Supported criteria: "mode" (string) and "limit" (int).
func (r *RunRepository) List(criteria map[string]any) ([]*models.Run, error) {
	query := `
		SELECT id, sequence, mode, started_at, finished_at,
			playlists_total, playlists_completed, playlists_failed, playlists_skipped,
			tracks_matched, tracks_unavailable, created_at, updated_at
		FROM runs
	`

	args := []any{}

	if mode, ok := criteria["mode"].(string); ok && mode != "" {
		query += " WHERE mode = ?"
		args = append(args, mode)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*models.Run, error) {
	var (
		id, mode              string
		sequence              int
		startedAt, finishedAt time.Time
		createdAt, updatedAt  time.Time
		stats                 models.RunStats
	)

	err := row.Scan(&id, &sequence, &mode, &startedAt, &finishedAt,
		&stats.PlaylistsTotal, &stats.PlaylistsCompleted, &stats.PlaylistsFailed, &stats.PlaylistsSkipped,
		&stats.TracksMatched, &stats.TracksUnavailable, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	run := models.NewRun(sequence, mode, startedAt, finishedAt, stats)
	run.SetID(id)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	return run, nil
}
