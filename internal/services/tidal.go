// TIDAL API implementation of [TargetService]
//
// Uses a pre-established OAuth session; device-code login is out of scope.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/acrophile/portify/internal/shared"
	"golang.org/x/oauth2"
)

const (
	tidalBaseURL  = "https://api.tidal.com/v1"
	tidalTokenURL = "https://auth.tidal.com/v1/oauth2/token"
)

// TidalArtist represents an artist in TIDAL responses.
type TidalArtist struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type tidalAlbum struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// TidalTrack represents a track in TIDAL responses.
type TidalTrack struct {
	ID      int           `json:"id"`
	Title   string        `json:"title"`
	Artists []TidalArtist `json:"artists"`
	Album   *tidalAlbum   `json:"album"`
	ISRC    string        `json:"isrc,omitempty"`
}

// TidalPlaylist represents a playlist in TIDAL responses.
type TidalPlaylist struct {
	UUID           string `json:"uuid"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	NumberOfTracks int    `json:"numberOfTracks"`
	PublicPlaylist bool   `json:"publicPlaylist"`
}

type tidalPage[T any] struct {
	Items              []T `json:"items"`
	Limit              int `json:"limit"`
	Offset             int `json:"offset"`
	TotalNumberOfItems int `json:"totalNumberOfItems"`
}

// TidalService implements [TargetService] for TIDAL API interactions.
type TidalService struct {
	httpClient  *http.Client
	userID      string
	countryCode string
}

// NewTidalService creates a new TIDAL service from config credentials.
func NewTidalService(creds shared.TidalConfig) (*TidalService, error) {
	if creds.AccessToken == "" && creds.RefreshToken == "" {
		return nil, fmt.Errorf("%w: tidal access_token or refresh_token is required", shared.ErrMissingCredentials)
	}
	if creds.UserID == "" {
		return nil, fmt.Errorf("%w: tidal user_id is required", shared.ErrMissingCredentials)
	}

	country := creds.CountryCode
	if country == "" {
		country = "US"
	}

	config := &oauth2.Config{
		ClientID: creds.ClientID,
		Endpoint: oauth2.Endpoint{TokenURL: tidalTokenURL},
	}
	token := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
	}

	return &TidalService{
		httpClient:  config.Client(context.Background(), token),
		userID:      creds.UserID,
		countryCode: country,
	}, nil
}

func (t *TidalService) Name() string {
	return "TIDAL"
}

// doRequest performs an authenticated request against the TIDAL API. A form
// body is sent urlencoded; the JSON response is decoded into result.
func (t *TidalService) doRequest(ctx context.Context, method, endpoint string, form url.Values, result any) error {
	apiURL := tidalBaseURL + endpoint
	if strings.Contains(apiURL, "?") {
		apiURL += "&countryCode=" + t.countryCode
	} else {
		apiURL += "?countryCode=" + t.countryCode
	}

	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: tidal request failed: %v", shared.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return fmt.Errorf("%w: tidal API status %d", shared.ErrTransient, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			UserMessage string `json:"userMessage"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.UserMessage != "" {
			return fmt.Errorf("tidal API error (status %d): %s", resp.StatusCode, errResp.UserMessage)
		}
		return fmt.Errorf("tidal API error: status %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// ListPlaylists retrieves all playlists owned by the authenticated user.
func (t *TidalService) ListPlaylists(ctx context.Context) ([]Playlist, error) {
	var playlists []Playlist
	limit := 50
	offset := 0

	for {
		endpoint := fmt.Sprintf("/users/%s/playlists?limit=%d&offset=%d", t.userID, limit, offset)

		var page tidalPage[TidalPlaylist]
		if err := t.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, tp := range page.Items {
			playlists = append(playlists, Playlist{
				ID:          tp.UUID,
				Name:        tp.Title,
				Description: tp.Description,
				TrackCount:  tp.NumberOfTracks,
				Public:      tp.PublicPlaylist,
			})
		}

		offset += limit
		if offset >= page.TotalNumberOfItems || len(page.Items) == 0 {
			break
		}
	}

	return playlists, nil
}

// ListPlaylistTracks retrieves every track currently in a playlist.
func (t *TidalService) ListPlaylistTracks(ctx context.Context, playlistID string) ([]Track, error) {
	var tracks []Track
	limit := 100
	offset := 0

	for {
		endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", playlistID, limit, offset)

		var page tidalPage[TidalTrack]
		if err := t.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, tt := range page.Items {
			tracks = append(tracks, trackFromTidal(tt))
		}

		offset += limit
		if offset >= page.TotalNumberOfItems || len(page.Items) == 0 {
			break
		}
	}

	return tracks, nil
}

// CreatePlaylist creates a new playlist and returns its id.
func (t *TidalService) CreatePlaylist(ctx context.Context, name, description string) (string, error) {
	endpoint := fmt.Sprintf("/users/%s/playlists", t.userID)
	form := url.Values{
		"title":       {name},
		"description": {description},
	}

	var created TidalPlaylist
	if err := t.doRequest(ctx, http.MethodPost, endpoint, form, &created); err != nil {
		return "", fmt.Errorf("failed to create playlist %q: %w", name, err)
	}

	return created.UUID, nil
}

// SearchTrack searches for a track by title and artist. Returns the first
// result, or nil without an error when nothing matches.
func (t *TidalService) SearchTrack(ctx context.Context, title, artist string) (*Track, error) {
	query := fmt.Sprintf("%s %s", artist, title)
	endpoint := fmt.Sprintf("/search/tracks?query=%s&limit=1", url.QueryEscape(query))

	var page tidalPage[TidalTrack]
	if err := t.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
		return nil, err
	}

	if len(page.Items) == 0 {
		return nil, nil
	}

	track := trackFromTidal(page.Items[0])
	return &track, nil
}

// AddTracks appends tracks to a playlist in one call.
func (t *TidalService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return nil
	}

	endpoint := fmt.Sprintf("/playlists/%s/items", playlistID)
	form := url.Values{
		"trackIds":           {strings.Join(trackIDs, ",")},
		"onArtifactNotFound": {"SKIP"},
		"onDupes":            {"SKIP"},
	}

	if err := t.doRequest(ctx, http.MethodPost, endpoint, form, nil); err != nil {
		return fmt.Errorf("failed to add %d tracks: %w", len(trackIDs), err)
	}

	return nil
}

func trackFromTidal(tt TidalTrack) Track {
	track := Track{
		ID:    fmt.Sprintf("%d", tt.ID),
		Title: tt.Title,
		ISRC:  tt.ISRC,
	}
	if len(tt.Artists) > 0 {
		track.Artist = tt.Artists[0].Name
	}
	if tt.Album != nil {
		track.Album = tt.Album.Title
	}
	return track
}
