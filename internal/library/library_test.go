package library

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/acrophile/portify/internal/services"
	"github.com/acrophile/portify/internal/shared"
)

func testTrack(id, title, artist string) services.Track {
	return services.Track{ID: id, Title: title, Artist: artist, Album: "Album"}
}

func TestLibrary(t *testing.T) {
	t.Run("open missing file yields empty library", func(t *testing.T) {
		l, err := Open(filepath.Join(t.TempDir(), "library.csv"), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if l.Len() != 0 {
			t.Errorf("expected empty library, got %d tracks", l.Len())
		}
	})

	t.Run("record track", func(t *testing.T) {
		l, _ := Open(filepath.Join(t.TempDir(), "library.csv"), nil)

		rec := l.RecordTrack(testTrack("sp1", "Song", "Artist"), "pl1")
		if rec.SpotifyID != "sp1" {
			t.Errorf("expected spotify id sp1, got %s", rec.SpotifyID)
		}

		if !rec.InPlaylist("pl1") {
			t.Error("expected track to belong to pl1")
		}

		if rec.Link("tidal").Available != nil {
			t.Error("expected tidal availability to start unknown")
		}

		t.Run("re-recording unions playlist membership", func(t *testing.T) {
			again := l.RecordTrack(testTrack("sp1", "Song", "Artist"), "pl2")
			if again != rec {
				t.Error("expected re-record to return the existing record")
			}

			if !rec.InPlaylist("pl1") || !rec.InPlaylist("pl2") {
				t.Error("expected membership in both playlists")
			}

			if l.Len() != 1 {
				t.Errorf("expected 1 track, got %d", l.Len())
			}
		})
	})

	t.Run("set match", func(t *testing.T) {
		l, _ := Open(filepath.Join(t.TempDir(), "library.csv"), nil)
		l.RecordTrack(testTrack("sp1", "Song", "Artist"), "pl1")

		t.Run("found track becomes available", func(t *testing.T) {
			if err := l.SetMatch("tidal", "sp1", "t1", true); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			rec, _ := l.Track("sp1")
			link := rec.Link("tidal")
			if link.ID != "t1" || link.Available == nil || !*link.Available {
				t.Errorf("expected available match t1, got %+v", link)
			}

			if rec.LastSynced.IsZero() {
				t.Error("expected last synced to be set")
			}
		})

		t.Run("non-empty id implies available", func(t *testing.T) {
			if err := l.SetMatch("tidal", "sp1", "t1", false); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			rec, _ := l.Track("sp1")
			if avail := rec.Link("tidal").Available; avail == nil || !*avail {
				t.Error("expected id-bearing match to be available")
			}
		})

		t.Run("unrecorded track returns not found", func(t *testing.T) {
			err := l.SetMatch("tidal", "missing", "t2", true)
			if !errors.Is(err, shared.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	})

	t.Run("unsynced tracks", func(t *testing.T) {
		l, _ := Open(filepath.Join(t.TempDir(), "library.csv"), nil)
		l.RecordTrack(testTrack("sp-pending", "Pending", "A"), "pl1")
		l.RecordTrack(testTrack("sp-matched", "Matched", "A"), "pl1")
		l.RecordTrack(testTrack("sp-absent", "Absent", "A"), "pl1")
		l.RecordTrack(testTrack("sp-other", "Other", "A"), "pl2")

		l.SetMatch("tidal", "sp-matched", "t1", true)
		l.SetMatch("tidal", "sp-absent", "", false)

		t.Run("without recheck skips confirmed absent", func(t *testing.T) {
			got := l.UnsyncedTracks("pl1", "tidal", false)
			if len(got) != 1 || got[0].SpotifyID != "sp-pending" {
				t.Errorf("expected only sp-pending, got %d records", len(got))
			}
		})

		t.Run("with recheck includes confirmed absent", func(t *testing.T) {
			got := l.UnsyncedTracks("pl1", "tidal", true)
			if len(got) != 2 {
				t.Fatalf("expected 2 records, got %d", len(got))
			}

			if got[0].SpotifyID != "sp-absent" || got[1].SpotifyID != "sp-pending" {
				t.Errorf("unexpected order: %s, %s", got[0].SpotifyID, got[1].SpotifyID)
			}
		})

		t.Run("playlist synced once pending is resolved", func(t *testing.T) {
			if l.IsPlaylistSynced("pl1", "tidal") {
				t.Error("expected pl1 unsynced while sp-pending is unresolved")
			}

			l.SetMatch("tidal", "sp-pending", "t2", true)
			if !l.IsPlaylistSynced("pl1", "tidal") {
				t.Error("expected pl1 synced: confirmed-absent tracks do not block")
			}
		})
	})

	t.Run("stats", func(t *testing.T) {
		l, _ := Open(filepath.Join(t.TempDir(), "library.csv"), nil)
		l.RecordTrack(testTrack("sp1", "One", "A"), "pl1")
		l.RecordTrack(testTrack("sp2", "Two", "A"), "pl1")
		l.RecordTrack(testTrack("sp3", "Three", "A"), "pl2")

		l.SetMatch("tidal", "sp1", "t1", true)
		l.SetMatch("tidal", "sp2", "", false)

		stats := l.Stats("", "tidal")
		want := Stats{Total: 3, Matched: 1, Unavailable: 1, Pending: 1}
		if stats != want {
			t.Errorf("expected %+v, got %+v", want, stats)
		}

		scoped := l.Stats("pl1", "tidal")
		if scoped.Total != 2 || scoped.Pending != 0 {
			t.Errorf("unexpected playlist stats: %+v", scoped)
		}
	})

	t.Run("persist and reload round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "library.csv")

		l, _ := Open(path, nil)
		l.RecordTrack(testTrack("sp1", "Song", "Artist"), "pl1")
		l.RecordTrack(testTrack("sp2", "Lost", "Artist"), "pl1")
		l.SetMatch("tidal", "sp1", "t1", true)
		l.SetMatch("tidal", "sp2", "", false)

		if err := l.Persist(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		reloaded, err := Open(path, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if reloaded.Len() != 2 {
			t.Fatalf("expected 2 tracks after reload, got %d", reloaded.Len())
		}

		rec, ok := reloaded.Track("sp1")
		if !ok {
			t.Fatal("expected sp1 to survive reload")
		}

		if link := rec.Link("tidal"); link.ID != "t1" || link.Available == nil || !*link.Available {
			t.Errorf("expected tidal match to survive reload, got %+v", link)
		}

		if rec.LastSynced.IsZero() {
			t.Error("expected last synced to survive reload")
		}

		absent, _ := reloaded.Track("sp2")
		if avail := absent.Link("tidal").Available; avail == nil || *avail {
			t.Error("expected confirmed-absent state to survive reload")
		}

		t.Run("file carries the full header", func(t *testing.T) {
			raw, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			header := strings.SplitN(string(raw), "\n", 2)[0]
			want := "spotify_id,tidal_id,soundcloud_id,track_name,artist_name,album_name," +
				"playlist_ids,spotify_available,tidal_available,soundcloud_available,last_synced,notes"
			if header != want {
				t.Errorf("unexpected header: %s", header)
			}
		})

		t.Run("no temp files left behind", func(t *testing.T) {
			entries, err := os.ReadDir(filepath.Dir(path))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(entries) != 1 {
				t.Errorf("expected only the library file, found %d entries", len(entries))
			}
		})
	})

	t.Run("corrupt file starts empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "library.csv")
		if err := os.WriteFile(path, []byte("\"unterminated"), 0644); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		l, err := Open(path, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if l.Len() != 0 {
			t.Errorf("expected empty library, got %d tracks", l.Len())
		}
	})

	t.Run("export unavailable", func(t *testing.T) {
		dir := t.TempDir()
		l, _ := Open(filepath.Join(dir, "library.csv"), nil)
		l.RecordTrack(testTrack("sp1", "Found", "A"), "pl1")
		l.RecordTrack(testTrack("sp2", "Lost", "B"), "pl1")
		l.SetMatch("tidal", "sp1", "t1", true)
		l.SetMatch("tidal", "sp2", "", false)

		out := filepath.Join(dir, "unavailable.csv")
		n, err := l.ExportUnavailable("tidal", out)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if n != 1 {
			t.Errorf("expected 1 exported row, got %d", n)
		}

		f, err := os.Open(out)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer f.Close()

		rows, err := csv.NewReader(f).ReadAll()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(rows) != 2 {
			t.Fatalf("expected header plus 1 row, got %d", len(rows))
		}

		if rows[1][0] != "B" || rows[1][1] != "Lost" || rows[1][3] != "sp2" {
			t.Errorf("unexpected export row: %v", rows[1])
		}
	})
}
