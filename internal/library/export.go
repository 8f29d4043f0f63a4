package library

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/acrophile/portify/internal/shared"
)

// ExportUnavailable writes a CSV report of every track confirmed absent on
// the platform, for manual follow-up. Returns the number of rows written.
func (l *Library) ExportUnavailable(platform, outPath string) (int, error) {
	recs := l.UnavailableTracks(platform)

	dir := filepath.Dir(outPath)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("%w: creating export directory: %v", shared.ErrPersistence, err)
		}
	}

	f, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("%w: creating export file: %v", shared.ErrPersistence, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"artist_name", "track_name", "album_name", "spotify_id", "notes"}); err != nil {
		return 0, fmt.Errorf("%w: writing export header: %v", shared.ErrPersistence, err)
	}

	for _, rec := range recs {
		row := []string{rec.ArtistName, rec.TrackName, rec.AlbumName, rec.SpotifyID, rec.Notes}
		if err := w.Write(row); err != nil {
			return 0, fmt.Errorf("%w: writing export row: %v", shared.ErrPersistence, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("%w: flushing export: %v", shared.ErrPersistence, err)
	}

	return len(recs), nil
}

// Summary renders a one-paragraph overview of the library for a platform.
func (l *Library) Summary(platform string) string {
	stats := l.Stats("", platform)
	return fmt.Sprintf("%d tracks in library: %d matched on %s, %d unavailable, %d pending",
		stats.Total, stats.Matched, platform, stats.Unavailable, stats.Pending)
}
