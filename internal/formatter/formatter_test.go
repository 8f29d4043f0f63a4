package formatter

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/acrophile/portify/internal/checkpoint"
	"github.com/acrophile/portify/internal/library"
	"github.com/acrophile/portify/internal/models"
	"github.com/acrophile/portify/internal/tasks"
)

func TestRunSummary(t *testing.T) {
	result := &tasks.RunResult{
		Playlists: []tasks.PlaylistResult{
			{Name: "Roadtrip", Status: checkpoint.StatusCompleted, Found: 10, NotFound: 2},
			{Name: "Broken", Status: checkpoint.StatusFailed, Err: errors.New("boom")},
		},
	}

	out := RunSummary(result)
	for _, want := range []string{"1 completed", "1 failed", "10 matched", "Roadtrip", "Broken: boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected summary to contain %q:\n%s", want, out)
		}
	}

	t.Run("resumed runs are labeled", func(t *testing.T) {
		result.Resumed = true
		if !strings.Contains(RunSummary(result), "Resumed transfer") {
			t.Error("expected resumed label")
		}
	})
}

func TestSyncSummary(t *testing.T) {
	result := &tasks.SyncResult{
		Checked: 3,
		Skipped: 2,
		Updated: 1,
		Playlists: []tasks.PlaylistResult{
			{Name: "Roadtrip", Status: checkpoint.StatusCompleted, Found: 1, Added: 1},
		},
	}

	out := SyncSummary(result)
	for _, want := range []string{"3 playlists checked", "2 already synced", "1 updated", "Roadtrip (+1 tracks)"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected summary to contain %q:\n%s", want, out)
		}
	}
}

func TestStatusSummary(t *testing.T) {
	stats := library.Stats{Total: 10, Matched: 7, Unavailable: 1, Pending: 2}

	t.Run("no checkpoint", func(t *testing.T) {
		out := StatusSummary(nil, stats, "tidal")
		if !strings.Contains(out, "No transfer in progress") {
			t.Errorf("expected idle message:\n%s", out)
		}
		if !strings.Contains(out, "7 matched on tidal") {
			t.Errorf("expected library stats:\n%s", out)
		}
	})

	t.Run("with checkpoint", func(t *testing.T) {
		state := &checkpoint.State{
			CreatedAt: time.Now(),
			Playlists: []*checkpoint.PlaylistProgress{
				{Name: "Roadtrip", Status: checkpoint.StatusCompleted, TotalTracks: 5, ProcessedTracks: 5},
				{Name: "Focus", Status: checkpoint.StatusInProgress, TotalTracks: 8, ProcessedTracks: 3},
			},
		}

		out := StatusSummary(state, stats, "tidal")
		for _, want := range []string{"Transfer in progress", "1 completed", "1 remaining", "Focus (3/8 tracks)"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected status to contain %q:\n%s", want, out)
			}
		}
	})
}

func TestHistoryTable(t *testing.T) {
	t.Run("empty history", func(t *testing.T) {
		if !strings.Contains(HistoryTable(nil), "No runs recorded") {
			t.Error("expected empty history message")
		}
	})

	t.Run("rows contain sequence and counts", func(t *testing.T) {
		run := models.NewRun(7, "sync", time.Now().Add(-time.Minute), time.Now(), models.RunStats{
			PlaylistsTotal:     4,
			PlaylistsCompleted: 3,
			TracksMatched:      12,
		})

		out := HistoryTable([]*models.Run{run})
		for _, want := range []string{"7", "sync", "3/4", "12"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected table to contain %q:\n%s", want, out)
			}
		}
	})
}

func TestDailyNote(t *testing.T) {
	result := &tasks.SyncResult{
		Checked: 2,
		Skipped: 1,
		Updated: 1,
		Playlists: []tasks.PlaylistResult{
			{Name: "Broken", Status: checkpoint.StatusFailed, Err: errors.New("boom")},
		},
	}
	when := time.Date(2026, 8, 30, 9, 15, 0, 0, time.UTC)

	entry := DailyNote(result, when)
	for _, want := range []string{"## Playlist Sync — 09:15", "Playlists checked: 2", "### Failures", "- Broken"} {
		if !strings.Contains(entry, want) {
			t.Errorf("expected note to contain %q:\n%s", want, entry)
		}
	}

	t.Run("append creates dated file with heading", func(t *testing.T) {
		dir := t.TempDir()

		path, err := AppendDailyNote(dir, entry, when)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := filepath.Join(dir, "2026", "08", "2026-08-30.md")
		if path != want {
			t.Errorf("expected note at %s, got %s", want, path)
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.HasPrefix(string(raw), "# 2026-08-30\n") {
			t.Error("expected date heading at top of a new note")
		}

		t.Run("second append does not repeat the heading", func(t *testing.T) {
			if _, err := AppendDailyNote(dir, entry, when); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			raw, _ := os.ReadFile(path)
			if strings.Count(string(raw), "# 2026-08-30\n") != 1 {
				t.Error("expected a single date heading")
			}
			if strings.Count(string(raw), "## Playlist Sync") != 2 {
				t.Error("expected both entries appended")
			}
		})
	})
}
