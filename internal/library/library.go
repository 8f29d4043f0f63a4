// package library implements the cross-platform track library: a durable
// mapping from a Spotify track to its known identities and availability on
// every target platform.
//
// The library is the single source of truth for "is this track already
// matched, and where". It is an append/update-only ledger persisted as a CSV
// table with an in-memory index keyed by Spotify id; rows are never deleted.
package library

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/acrophile/portify/internal/services"
	"github.com/acrophile/portify/internal/shared"
	"github.com/charmbracelet/log"
)

// DefaultPlatforms are the target platform columns carried by the library
// file. Adding a platform here adds its id/availability column pair.
var DefaultPlatforms = []string{"tidal", "soundcloud"}

// PlatformLink records a track's identity on one target platform.
//
// Available is tri-state: nil means the platform was never searched, false
// with a non-zero LastSynced on the record means searched and confirmed
// absent. Confirmed-absent tracks are never re-searched unless the caller
// explicitly asks for a recheck.
type PlatformLink struct {
	ID        string
	Available *bool
}

// TrackRecord is one row of the library: a Spotify track and everything known
// about it across platforms.
type TrackRecord struct {
	SpotifyID        string
	TrackName        string
	ArtistName       string
	AlbumName        string
	PlaylistIDs      map[string]struct{}
	SpotifyAvailable bool
	Platforms        map[string]*PlatformLink
	LastSynced       time.Time
	Notes            string
}

// Link returns the record's link for a platform, creating an empty one if the
// record predates the platform column.
func (t *TrackRecord) Link(platform string) *PlatformLink {
	link, ok := t.Platforms[platform]
	if !ok {
		link = &PlatformLink{}
		t.Platforms[platform] = link
	}
	return link
}

// InPlaylist reports whether the track belongs to the given source playlist.
func (t *TrackRecord) InPlaylist(playlistID string) bool {
	_, ok := t.PlaylistIDs[playlistID]
	return ok
}

// Stats are aggregate sync counts for a playlist or the whole library.
type Stats struct {
	Total       int // tracks in scope
	Matched     int // searched and found on the platform
	Unavailable int // searched and confirmed absent
	Pending     int // never searched
}

// Library is the table-backed keyed store over TrackRecords. All lookups go
// through the in-memory index; Persist rewrites the full table atomically.
type Library struct {
	path      string
	platforms []string
	tracks    map[string]*TrackRecord
	logger    *log.Logger
}

// Open loads the library file at path if it exists. A missing file yields an
// empty library; a malformed file is logged and skipped rather than aborting,
// matching the ledger's best-effort load semantics.
func Open(path string, logger *log.Logger) (*Library, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	l := &Library{
		path:      path,
		platforms: DefaultPlatforms,
		tracks:    make(map[string]*TrackRecord),
		logger:    logger,
	}

	if err := l.load(); err != nil {
		l.logger.Warn("failed to load library, starting empty", "path", path, "err", err)
	}

	return l, nil
}

// Len returns the number of tracks in the library.
func (l *Library) Len() int {
	return len(l.tracks)
}

// Track returns the record for a Spotify id.
func (l *Library) Track(spotifyID string) (*TrackRecord, bool) {
	rec, ok := l.tracks[spotifyID]
	return rec, ok
}

// RecordTrack inserts a track on first encounter, otherwise unions the
// playlist membership into the existing record and refreshes metadata.
// Membership only ever grows.
func (l *Library) RecordTrack(track services.Track, playlistID string) *TrackRecord {
	rec, ok := l.tracks[track.ID]
	if !ok {
		rec = &TrackRecord{
			SpotifyID:        track.ID,
			PlaylistIDs:      make(map[string]struct{}),
			SpotifyAvailable: true,
			Platforms:        make(map[string]*PlatformLink),
		}
		for _, p := range l.platforms {
			rec.Platforms[p] = &PlatformLink{}
		}
		l.tracks[track.ID] = rec
	}

	rec.TrackName = track.Title
	rec.ArtistName = track.Artist
	if track.Album != "" {
		rec.AlbumName = track.Album
	}
	if playlistID != "" {
		rec.PlaylistIDs[playlistID] = struct{}{}
	}

	return rec
}

// SetMatch records a search outcome for a track on a platform. A non-empty
// platform id implies available; found=false marks the track confirmed absent
// so it is not re-searched. Returns shared.ErrNotFound if the track was never
// recorded: callers must RecordTrack first.
func (l *Library) SetMatch(platform, spotifyID, platformID string, found bool) error {
	rec, ok := l.tracks[spotifyID]
	if !ok {
		return fmt.Errorf("%w: track %s is not in the library", shared.ErrNotFound, spotifyID)
	}

	link := rec.Link(platform)
	link.ID = platformID
	available := found || platformID != ""
	link.Available = &available
	rec.LastSynced = time.Now()

	return nil
}

// TracksForPlaylist returns all records belonging to a source playlist,
// ordered by Spotify id.
func (l *Library) TracksForPlaylist(playlistID string) []*TrackRecord {
	var out []*TrackRecord
	for _, rec := range l.tracks {
		if rec.InPlaylist(playlistID) {
			out = append(out, rec)
		}
	}
	sortRecords(out)
	return out
}

// UnsyncedTracks returns the playlist's records that still need a platform
// search: never-searched tracks, tracks marked available without an id yet,
// and (only when recheck is set) tracks previously confirmed absent.
func (l *Library) UnsyncedTracks(playlistID, platform string, recheck bool) []*TrackRecord {
	var out []*TrackRecord
	for _, rec := range l.tracks {
		if !rec.InPlaylist(playlistID) {
			continue
		}

		link := rec.Link(platform)
		switch {
		case link.Available == nil:
			out = append(out, rec)
		case *link.Available && link.ID == "":
			out = append(out, rec)
		case !*link.Available && recheck:
			out = append(out, rec)
		}
	}
	sortRecords(out)
	return out
}

// IsPlaylistSynced reports whether a playlist needs no further platform
// searches. Defined as UnsyncedTracks being empty, so the two query paths can
// never disagree; a confirmed-absent track does not hold a playlist unsynced.
func (l *Library) IsPlaylistSynced(playlistID, platform string) bool {
	return len(l.UnsyncedTracks(playlistID, platform, false)) == 0
}

// Stats returns aggregate counts for a playlist, or for the whole library
// when playlistID is empty.
func (l *Library) Stats(playlistID, platform string) Stats {
	var stats Stats
	for _, rec := range l.tracks {
		if playlistID != "" && !rec.InPlaylist(playlistID) {
			continue
		}

		stats.Total++
		link := rec.Link(platform)
		switch {
		case link.Available == nil:
			stats.Pending++
		case *link.Available:
			stats.Matched++
		default:
			stats.Unavailable++
		}
	}
	return stats
}

// UnavailableTracks returns all records confirmed absent on a platform.
func (l *Library) UnavailableTracks(platform string) []*TrackRecord {
	var out []*TrackRecord
	for _, rec := range l.tracks {
		link := rec.Link(platform)
		if link.Available != nil && !*link.Available {
			out = append(out, rec)
		}
	}
	sortRecords(out)
	return out
}

// Persist atomically rewrites the library file using a temp-file-then-rename,
// so a concurrent reader never observes a partially written table. A persist
// failure is fatal for the run.
func (l *Library) Persist() error {
	dir := filepath.Dir(l.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: creating library directory: %v", shared.ErrPersistence, err)
		}
	}

	tmp, err := os.CreateTemp(dir, ".library-*.csv")
	if err != nil {
		return fmt.Errorf("%w: creating temp library file: %v", shared.ErrPersistence, err)
	}
	tmpPath := tmp.Name()

	w := csv.NewWriter(tmp)
	if err := w.Write(l.header()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: writing library header: %v", shared.ErrPersistence, err)
	}

	ids := make([]string, 0, len(l.tracks))
	for id := range l.tracks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if err := w.Write(l.row(l.tracks[id])); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("%w: writing library row: %v", shared.ErrPersistence, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: flushing library: %v", shared.ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: closing temp library file: %v", shared.ErrPersistence, err)
	}

	if err := os.Rename(tmpPath, l.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: replacing library file: %v", shared.ErrPersistence, err)
	}

	return nil
}

func (l *Library) header() []string {
	header := []string{"spotify_id"}
	for _, p := range l.platforms {
		header = append(header, p+"_id")
	}
	header = append(header, "track_name", "artist_name", "album_name", "playlist_ids", "spotify_available")
	for _, p := range l.platforms {
		header = append(header, p+"_available")
	}
	return append(header, "last_synced", "notes")
}

func (l *Library) row(rec *TrackRecord) []string {
	row := []string{rec.SpotifyID}
	for _, p := range l.platforms {
		row = append(row, rec.Link(p).ID)
	}

	playlists := make([]string, 0, len(rec.PlaylistIDs))
	for id := range rec.PlaylistIDs {
		playlists = append(playlists, id)
	}
	sort.Strings(playlists)

	lastSynced := ""
	if !rec.LastSynced.IsZero() {
		lastSynced = rec.LastSynced.Format(time.RFC3339)
	}

	row = append(row, rec.TrackName, rec.ArtistName, rec.AlbumName,
		strings.Join(playlists, ","), formatBool(&rec.SpotifyAvailable))
	for _, p := range l.platforms {
		row = append(row, formatBool(rec.Link(p).Available))
	}
	return append(row, lastSynced, rec.Notes)
}

func (l *Library) load() error {
	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("parsing library csv: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	cols := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		cols[name] = i
	}

	field := func(row []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	for _, row := range rows[1:] {
		spotifyID := field(row, "spotify_id")
		if spotifyID == "" {
			continue
		}

		spotifyAvailable := parseBool(field(row, "spotify_available"))
		rec := &TrackRecord{
			SpotifyID:        spotifyID,
			TrackName:        field(row, "track_name"),
			ArtistName:       field(row, "artist_name"),
			AlbumName:        field(row, "album_name"),
			PlaylistIDs:      make(map[string]struct{}),
			SpotifyAvailable: spotifyAvailable == nil || *spotifyAvailable,
			Platforms:        make(map[string]*PlatformLink),
			Notes:            field(row, "notes"),
		}

		for _, id := range strings.Split(field(row, "playlist_ids"), ",") {
			if id != "" {
				rec.PlaylistIDs[id] = struct{}{}
			}
		}

		for _, p := range l.platforms {
			rec.Platforms[p] = &PlatformLink{
				ID:        field(row, p+"_id"),
				Available: parseBool(field(row, p+"_available")),
			}
		}

		if raw := field(row, "last_synced"); raw != "" {
			if ts, err := time.Parse(time.RFC3339, raw); err == nil {
				rec.LastSynced = ts
			}
		}

		l.tracks[spotifyID] = rec
	}

	return nil
}

// parseBool parses the tri-state True/False/null CSV field.
func parseBool(raw string) *bool {
	switch strings.ToLower(raw) {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	default:
		return nil
	}
}

func formatBool(v *bool) string {
	if v == nil {
		return "null"
	}
	if *v {
		return "True"
	}
	return "False"
}

func sortRecords(recs []*TrackRecord) {
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].SpotifyID < recs[j].SpotifyID
	})
}
