package models

import (
	"fmt"
	"time"
)

// RunStats holds the aggregate counters for one transfer or sync run.
type RunStats struct {
	PlaylistsTotal     int
	PlaylistsCompleted int
	PlaylistsFailed    int
	PlaylistsSkipped   int
	TracksMatched      int
	TracksUnavailable  int
}

// Run is the persisted record of a single transfer or sync run.
type Run struct {
	id         string
	sequence   int
	mode       string
	startedAt  time.Time
	finishedAt time.Time
	stats      RunStats
	createdAt  time.Time
	updatedAt  time.Time
}

// NewRun creates a Run record for a finished run. Mode is "transfer" or "sync".
func NewRun(sequence int, mode string, startedAt, finishedAt time.Time, stats RunStats) *Run {
	now := time.Now()
	return &Run{
		sequence:   sequence,
		mode:       mode,
		startedAt:  startedAt,
		finishedAt: finishedAt,
		stats:      stats,
		createdAt:  now,
		updatedAt:  now,
	}
}

func (r *Run) ID() string            { return r.id }
func (r *Run) Sequence() int         { return r.sequence }
func (r *Run) Mode() string          { return r.mode }
func (r *Run) StartedAt() time.Time  { return r.startedAt }
func (r *Run) FinishedAt() time.Time { return r.finishedAt }
func (r *Run) Stats() RunStats       { return r.stats }
func (r *Run) CreatedAt() time.Time  { return r.createdAt }
func (r *Run) UpdatedAt() time.Time  { return r.updatedAt }

func (r *Run) SetID(id string)          { r.id = id }
func (r *Run) SetSequence(seq int)      { r.sequence = seq }
func (r *Run) SetCreatedAt(t time.Time) { r.createdAt = t }
func (r *Run) SetUpdatedAt(t time.Time) { r.updatedAt = t }

// Validate checks if the run's data is valid.
func (r *Run) Validate() error {
	if r.mode != "transfer" && r.mode != "sync" {
		return fmt.Errorf("invalid run mode: %q", r.mode)
	}
	if r.startedAt.IsZero() {
		return fmt.Errorf("run started_at is required")
	}
	if r.finishedAt.Before(r.startedAt) {
		return fmt.Errorf("run finished before it started")
	}
	return nil
}
