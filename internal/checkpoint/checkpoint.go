// package checkpoint persists transfer progress so an interrupted run can
// resume mid-playlist instead of starting over.
//
// The checkpoint is a single JSON document rewritten atomically after every
// unit of progress. A checkpoint that cannot be read is treated as absent: a
// fresh run beats refusing to start, and the library already protects
// completed work from being redone.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/acrophile/portify/internal/shared"
	"github.com/charmbracelet/log"
)

// Version is the checkpoint schema version. A version mismatch on load is
// treated as a corrupt checkpoint.
const Version = "1.0"

// Status is the lifecycle state of one playlist inside a run.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// PlaylistProgress tracks one source playlist through a run. ProcessedTracks
// only advances after the corresponding target writes succeed, so resuming at
// that offset never skips unwritten tracks.
type PlaylistProgress struct {
	SourcePlaylistID string `json:"source_playlist_id"`
	Name             string `json:"name"`
	TargetPlaylistID string `json:"target_playlist_id,omitempty"`
	TotalTracks      int    `json:"total_tracks"`
	ProcessedTracks  int    `json:"processed_tracks"`
	Found            int    `json:"found"`
	NotFound         int    `json:"not_found"`
	Status           Status `json:"status"`
}

// State is the full checkpoint document. Playlists keeps the source listing
// order so resumed runs process playlists in the same sequence.
type State struct {
	Version      string              `json:"version"`
	SourceUserID string              `json:"source_user_id"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	Playlists    []*PlaylistProgress `json:"playlists"`
}

// Progress returns the progress entry for a source playlist id.
func (s *State) Progress(sourcePlaylistID string) (*PlaylistProgress, bool) {
	for _, p := range s.Playlists {
		if p.SourcePlaylistID == sourcePlaylistID {
			return p, true
		}
	}
	return nil, false
}

// Completed reports whether every playlist in the run reached a terminal
// state with no failures.
func (s *State) Completed() bool {
	for _, p := range s.Playlists {
		if p.Status != StatusCompleted {
			return false
		}
	}
	return true
}

// Counts returns the number of playlists in each terminal bucket.
func (s *State) Counts() (completed, failed, remaining int) {
	for _, p := range s.Playlists {
		switch p.Status {
		case StatusCompleted:
			completed++
		case StatusFailed:
			failed++
		default:
			remaining++
		}
	}
	return completed, failed, remaining
}

// Store reads and writes checkpoint state at a fixed path.
type Store struct {
	path   string
	logger *log.Logger
}

// NewStore returns a checkpoint store rooted at path.
func NewStore(path string, logger *log.Logger) *Store {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Store{path: path, logger: logger}
}

// Load returns the persisted state, or nil when no usable checkpoint exists.
// Corrupt or version-mismatched checkpoints are logged and discarded rather
// than aborting the run.
func (s *Store) Load() *State {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		s.logger.Warn("failed to read checkpoint, starting fresh", "path", s.path, "err", err)
		return nil
	}

	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		s.logger.Warn("corrupt checkpoint, starting fresh", "path", s.path, "err", err)
		return nil
	}

	if state.Version != Version {
		s.logger.Warn("checkpoint version mismatch, starting fresh",
			"path", s.path, "found", state.Version, "want", Version)
		return nil
	}

	return &state
}

// Init creates a fresh state covering the given playlists, bound to the
// source account that owns them.
func (s *Store) Init(sourceUserID string, playlists []*PlaylistProgress) *State {
	now := time.Now()
	return &State{
		Version:      Version,
		SourceUserID: sourceUserID,
		CreatedAt:    now,
		UpdatedAt:    now,
		Playlists:    playlists,
	}
}

// Save atomically rewrites the checkpoint via temp-file-then-rename. Safe to
// call after every unit of progress.
func (s *Store) Save(state *State) error {
	state.UpdatedAt = time.Now()

	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding checkpoint: %v", shared.ErrPersistence, err)
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: creating checkpoint directory: %v", shared.ErrPersistence, err)
		}
	}

	tmp, err := os.CreateTemp(dir, ".checkpoint-*.json")
	if err != nil {
		return fmt.Errorf("%w: creating temp checkpoint: %v", shared.ErrPersistence, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: writing checkpoint: %v", shared.ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: closing temp checkpoint: %v", shared.ErrPersistence, err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: replacing checkpoint: %v", shared.ErrPersistence, err)
	}

	return nil
}

// Clear archives the checkpoint alongside the original file and removes it.
// Clearing a missing checkpoint is a no-op.
func (s *Store) Clear() error {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil
	}

	archive := fmt.Sprintf("%s.%s.done", s.path, time.Now().Format("20060102-150405"))
	if err := os.Rename(s.path, archive); err != nil {
		return fmt.Errorf("%w: archiving checkpoint: %v", shared.ErrPersistence, err)
	}

	s.logger.Debug("archived checkpoint", "path", archive)
	return nil
}

// Exists reports whether a checkpoint file is present, readable or not.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}
