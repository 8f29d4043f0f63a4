// package formatter renders run results as plain text summaries and Markdown
// daily notes
package formatter

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/acrophile/portify/internal/checkpoint"
	"github.com/acrophile/portify/internal/library"
	"github.com/acrophile/portify/internal/models"
	"github.com/acrophile/portify/internal/tasks"
)

// RunSummary renders a transfer run as a plain text report.
func RunSummary(result *tasks.RunResult) string {
	var buf bytes.Buffer

	completed, failed := result.Counts()
	if result.Resumed {
		buf.WriteString("Resumed transfer")
	} else {
		buf.WriteString("Transfer")
	}
	buf.WriteString(fmt.Sprintf(": %d playlists, %d completed, %d failed\n", len(result.Playlists), completed, failed))

	stats := result.Stats()
	buf.WriteString(fmt.Sprintf("Tracks: %d matched, %d unavailable\n", stats.TracksMatched, stats.TracksUnavailable))

	for _, p := range result.Playlists {
		if p.Err != nil {
			buf.WriteString(fmt.Sprintf("  ✗ %s: %v\n", p.Name, p.Err))
		} else {
			buf.WriteString(fmt.Sprintf("  ✓ %s (%d matched, %d unavailable)\n", p.Name, p.Found, p.NotFound))
		}
	}

	return buf.String()
}

// SyncSummary renders an incremental sync as a plain text report.
func SyncSummary(result *tasks.SyncResult) string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Sync: %d playlists checked, %d already synced, %d updated\n",
		result.Checked, result.Skipped, result.Updated))

	stats := result.Stats()
	buf.WriteString(fmt.Sprintf("Tracks: %d matched, %d unavailable\n", stats.TracksMatched, stats.TracksUnavailable))

	for _, p := range result.Playlists {
		if p.Err != nil {
			buf.WriteString(fmt.Sprintf("  ✗ %s: %v\n", p.Name, p.Err))
		} else if p.Added > 0 {
			buf.WriteString(fmt.Sprintf("  ✓ %s (+%d tracks)\n", p.Name, p.Added))
		} else {
			buf.WriteString(fmt.Sprintf("  ✓ %s (up to date)\n", p.Name))
		}
	}

	return buf.String()
}

// StatusSummary renders checkpoint progress and library counts as plain text.
// State may be nil when no transfer is in flight.
func StatusSummary(state *checkpoint.State, stats library.Stats, platform string) string {
	var buf bytes.Buffer

	if state == nil {
		buf.WriteString("No transfer in progress.\n")
	} else {
		completed, failed, remaining := state.Counts()
		buf.WriteString(fmt.Sprintf("Transfer in progress (started %s):\n",
			state.CreatedAt.Format("2006-01-02 15:04")))
		buf.WriteString(fmt.Sprintf("  %d completed, %d failed, %d remaining of %d playlists\n",
			completed, failed, remaining, len(state.Playlists)))

		for _, p := range state.Playlists {
			marker := " "
			switch p.Status {
			case checkpoint.StatusCompleted:
				marker = "✓"
			case checkpoint.StatusFailed:
				marker = "✗"
			case checkpoint.StatusInProgress:
				marker = "→"
			}
			buf.WriteString(fmt.Sprintf("  %s %s (%d/%d tracks)\n", marker, p.Name, p.ProcessedTracks, p.TotalTracks))
		}
	}

	buf.WriteString(fmt.Sprintf("Library: %d tracks, %d matched on %s, %d unavailable, %d pending\n",
		stats.Total, stats.Matched, platform, stats.Unavailable, stats.Pending))

	return buf.String()
}

// HistoryTable renders run history rows as aligned plain text.
func HistoryTable(runs []*models.Run) string {
	var buf bytes.Buffer

	if len(runs) == 0 {
		return "No runs recorded.\n"
	}

	buf.WriteString(fmt.Sprintf("%-5s %-10s %-17s %-10s %-10s %s\n",
		"#", "MODE", "FINISHED", "PLAYLISTS", "MATCHED", "UNAVAILABLE"))

	for _, run := range runs {
		stats := run.Stats()
		buf.WriteString(fmt.Sprintf("%-5d %-10s %-17s %-10s %-10d %d\n",
			run.Sequence(),
			run.Mode(),
			run.FinishedAt().Format("2006-01-02 15:04"),
			fmt.Sprintf("%d/%d", stats.PlaylistsCompleted, stats.PlaylistsTotal),
			stats.TracksMatched,
			stats.TracksUnavailable))
	}

	return buf.String()
}

// DailyNote renders a sync result as a Markdown journal entry.
func DailyNote(result *tasks.SyncResult, when time.Time) string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("## Playlist Sync — %s\n\n", when.Format("15:04")))
	buf.WriteString(fmt.Sprintf("- Playlists checked: %d\n", result.Checked))
	buf.WriteString(fmt.Sprintf("- Already synced: %d\n", result.Skipped))
	buf.WriteString(fmt.Sprintf("- Updated: %d\n", result.Updated))

	stats := result.Stats()
	buf.WriteString(fmt.Sprintf("- Tracks matched: %d\n", stats.TracksMatched))
	buf.WriteString(fmt.Sprintf("- Tracks unavailable: %d\n", stats.TracksUnavailable))

	var failed []string
	for _, p := range result.Playlists {
		if p.Err != nil {
			failed = append(failed, p.Name)
		}
	}
	if len(failed) > 0 {
		buf.WriteString("\n### Failures\n\n")
		for _, name := range failed {
			buf.WriteString(fmt.Sprintf("- %s\n", name))
		}
	}

	buf.WriteString("\n")
	return buf.String()
}

// AppendDailyNote appends a Markdown entry to the day's note file under
// <dir>/YYYY/MM/YYYY-MM-DD.md, creating directories and the file's date
// heading as needed.
func AppendDailyNote(dir string, entry string, when time.Time) (string, error) {
	noteDir := filepath.Join(dir, when.Format("2006"), when.Format("01"))
	if err := os.MkdirAll(noteDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create notes directory: %w", err)
	}

	path := filepath.Join(noteDir, when.Format("2006-01-02")+".md")

	_, statErr := os.Stat(path)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to open daily note: %w", err)
	}
	defer f.Close()

	if os.IsNotExist(statErr) {
		if _, err := fmt.Fprintf(f, "# %s\n\n", when.Format("2006-01-02")); err != nil {
			return "", fmt.Errorf("failed to write note heading: %w", err)
		}
	}

	if _, err := f.WriteString(entry); err != nil {
		return "", fmt.Errorf("failed to append daily note: %w", err)
	}

	return path, nil
}
