package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchPlaylists Phase = iota
	FetchTracks
	ResolveTarget
	SearchTracks
	WriteBatch
	PlaylistDone
	Resume
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylists:
		return "fetch_playlists"
	case FetchTracks:
		return "fetch_tracks"
	case ResolveTarget:
		return "resolve_target"
	case SearchTracks:
		return "search_tracks"
	case WriteBatch:
		return "write_batch"
	case PlaylistDone:
		return "playlist_done"
	case Resume:
		return "resume"
	default:
		return ""
	}
}

func fetchPlaylistsUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching playlists from %s...", name),
	}
}

func resumeUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Resume,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Resuming '%s' at track %d", name, step),
	}
}

func fetchTracksUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching tracks: %s...", step, total, name),
	}
}

func resolveTargetUpdate(name, service string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveTarget,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Resolving '%s' on %s...", name, service),
	}
}

func searchTrackUpdate(step, total int, artist, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, artist, title),
	}
}

func writeBatchUpdate(step, total, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteBatch,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Adding %d tracks to target playlist...", count),
	}
}

func playlistDoneUpdate(step, total int, name string, found, notFound int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PlaylistDone,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d matched, %d unavailable)", step, total, name, found, notFound),
	}
}

func playlistFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PlaylistDone,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}

func playlistSkippedUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PlaylistDone,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s already synced, skipping", step, total, name),
	}
}
