// package services defines the platform client interfaces for the source and
// target music services.
//
// Spotify (source), TIDAL (target)
package services

import (
	"context"
)

// SourceService is the platform playlists are read from. Assumed reliable;
// transient errors bubble up wrapped in shared.ErrTransient.
type SourceService interface {
	// Name returns the name of the service (e.g., "Spotify")
	Name() string

	// CurrentUserID returns the authenticated user's id, used to filter
	// owned playlists and to bind checkpoints to one account.
	CurrentUserID(ctx context.Context) (string, error)

	// ListOwnedPlaylists retrieves all playlists owned by the authenticated user.
	ListOwnedPlaylists(ctx context.Context) ([]Playlist, error)

	// ListPlaylistTracks retrieves every track in a playlist, following pagination.
	ListPlaylistTracks(ctx context.Context, playlistID string) ([]Track, error)
}

// TargetService is the platform playlists are written to. The session is
// pre-established and opaque to callers.
type TargetService interface {
	// Name returns the name of the service (e.g., "TIDAL")
	Name() string

	// ListPlaylists retrieves all playlists owned by the authenticated user.
	ListPlaylists(ctx context.Context) ([]Playlist, error)

	// ListPlaylistTracks retrieves every track currently in a playlist.
	ListPlaylistTracks(ctx context.Context, playlistID string) ([]Track, error)

	// CreatePlaylist creates a new playlist and returns its id.
	CreatePlaylist(ctx context.Context, name, description string) (string, error)

	// SearchTrack searches for a track by title and artist. A miss is not an
	// error: the result is nil with a nil error.
	SearchTrack(ctx context.Context, title, artist string) (*Track, error)

	// AddTracks appends tracks to a playlist in one call.
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) error
}

// Playlist represents a music playlist from either service
type Playlist struct {
	ID          string
	Name        string
	Description string
	TrackCount  int
	Public      bool
}

// Track represents a music track from either service
type Track struct {
	ID     string
	Title  string
	Artist string
	Album  string
	ISRC   string // International Standard Recording Code for matching
}
