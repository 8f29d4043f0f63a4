// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"

	"github.com/acrophile/portify/internal/services"
)

// MockSource is a scriptable test double for [services.SourceService].
type MockSource struct {
	UserID       string
	UserIDErr    error
	Playlists    []services.Playlist
	PlaylistsErr error
	Tracks       map[string][]services.Track
	TracksErr    map[string]error

	ListTrackCalls []string
}

func (m *MockSource) Name() string { return "MockSource" }

func (m *MockSource) CurrentUserID(ctx context.Context) (string, error) {
	if m.UserIDErr != nil {
		return "", m.UserIDErr
	}
	if m.UserID == "" {
		return "mock-user", nil
	}
	return m.UserID, nil
}

func (m *MockSource) ListOwnedPlaylists(ctx context.Context) ([]services.Playlist, error) {
	return m.Playlists, m.PlaylistsErr
}

func (m *MockSource) ListPlaylistTracks(ctx context.Context, playlistID string) ([]services.Track, error) {
	m.ListTrackCalls = append(m.ListTrackCalls, playlistID)
	if err, ok := m.TracksErr[playlistID]; ok {
		return nil, err
	}
	return m.Tracks[playlistID], nil
}

// MockTarget is a scriptable test double for [services.TargetService].
// Searches resolve through the Matches map keyed by "artist - title"; absent
// keys are misses. Created playlists get ids "created-1", "created-2", ...
type MockTarget struct {
	Playlists     []services.Playlist
	PlaylistsErr  error
	PlaylistItems map[string][]services.Track
	Matches       map[string]services.Track
	SearchErr     error
	CreateErr     error
	AddErr        error
	AddErrCount   int // fail this many AddTracks calls before succeeding

	ListCalls   int
	SearchCalls int
	CreateCalls int
	AddCalls    [][]string
	Added       map[string][]string
}

func (m *MockTarget) Name() string { return "MockTarget" }

func (m *MockTarget) ListPlaylists(ctx context.Context) ([]services.Playlist, error) {
	m.ListCalls++
	return m.Playlists, m.PlaylistsErr
}

func (m *MockTarget) ListPlaylistTracks(ctx context.Context, playlistID string) ([]services.Track, error) {
	return m.PlaylistItems[playlistID], nil
}

func (m *MockTarget) CreatePlaylist(ctx context.Context, name, description string) (string, error) {
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	m.CreateCalls++
	id := "created-" + string(rune('0'+m.CreateCalls))
	m.Playlists = append(m.Playlists, services.Playlist{ID: id, Name: name, Description: description})
	return id, nil
}

func (m *MockTarget) SearchTrack(ctx context.Context, title, artist string) (*services.Track, error) {
	m.SearchCalls++
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	if tr, ok := m.Matches[artist+" - "+title]; ok {
		return &tr, nil
	}
	return nil, nil
}

// AddTracks fails while AddErrCount is positive, consuming one failure per
// call. With AddErrCount zero and AddErr set, every call fails.
func (m *MockTarget) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	m.AddCalls = append(m.AddCalls, append([]string(nil), trackIDs...))

	if m.AddErrCount > 0 {
		m.AddErrCount--
		err := m.AddErr
		if err == nil {
			err = errors.New("add failed")
		}
		if m.AddErrCount == 0 {
			m.AddErr = nil
		}
		return err
	}
	if m.AddErr != nil {
		return m.AddErr
	}

	if m.Added == nil {
		m.Added = make(map[string][]string)
	}
	m.Added[playlistID] = append(m.Added[playlistID], trackIDs...)
	return nil
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// MustReadFile reads a file or fails the test.
func MustReadFile(t *testing.T, path string) []byte {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return raw
}
