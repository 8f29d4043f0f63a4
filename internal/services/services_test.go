package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/acrophile/portify/internal/shared"
)

// routeTripper routes requests by URL path to canned handlers, counting calls.
type routeTripper struct {
	routes map[string]func(*http.Request) *http.Response
	calls  map[string]int
}

func newRouteTripper() *routeTripper {
	return &routeTripper{
		routes: make(map[string]func(*http.Request) *http.Response),
		calls:  make(map[string]int),
	}
}

func (rt *routeTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	rt.calls[req.URL.Path]++
	if fn, ok := rt.routes[req.URL.Path]; ok {
		return fn(req), nil
	}
	return jsonResponse(http.StatusNotFound, `{}`), nil
}

func (rt *routeTripper) client() *http.Client {
	return &http.Client{Transport: rt}
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func jsonHandler(body string) func(*http.Request) *http.Response {
	return func(*http.Request) *http.Response {
		return jsonResponse(http.StatusOK, body)
	}
}

func testSpotify(rt *routeTripper) *SpotifyService {
	return &SpotifyService{httpClient: rt.client()}
}

func testTidal(rt *routeTripper) *TidalService {
	return &TidalService{httpClient: rt.client(), userID: "42", countryCode: "US"}
}

func TestNewSpotifyService(t *testing.T) {
	t.Run("requires client credentials", func(t *testing.T) {
		_, err := NewSpotifyService(shared.SpotifyConfig{AccessToken: "tok"})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("requires a token", func(t *testing.T) {
		_, err := NewSpotifyService(shared.SpotifyConfig{ClientID: "id", ClientSecret: "secret"})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("accepts full credentials", func(t *testing.T) {
		svc, err := NewSpotifyService(shared.SpotifyConfig{
			ClientID: "id", ClientSecret: "secret", AccessToken: "tok",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if svc.Name() != "Spotify" {
			t.Errorf("unexpected service name %s", svc.Name())
		}
	})
}

func TestSpotifyService(t *testing.T) {
	t.Run("CurrentUserID is cached", func(t *testing.T) {
		rt := newRouteTripper()
		rt.routes["/v1/me"] = jsonHandler(`{"id":"user-1","display_name":"User"}`)
		svc := testSpotify(rt)

		for i := 0; i < 2; i++ {
			id, err := svc.CurrentUserID(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id != "user-1" {
				t.Errorf("expected user-1, got %s", id)
			}
		}

		if rt.calls["/v1/me"] != 1 {
			t.Errorf("expected 1 profile call, got %d", rt.calls["/v1/me"])
		}
	})

	t.Run("ListOwnedPlaylists filters followed playlists", func(t *testing.T) {
		rt := newRouteTripper()
		rt.routes["/v1/me"] = jsonHandler(`{"id":"user-1"}`)
		rt.routes["/v1/me/playlists"] = jsonHandler(`{
			"items": [
				{"id":"pl1","name":"Mine","owner":{"id":"user-1"},"tracks":{"total":3}},
				{"id":"pl2","name":"Followed","owner":{"id":"someone-else"},"tracks":{"total":9}}
			],
			"next": null
		}`)
		svc := testSpotify(rt)

		playlists, err := svc.ListOwnedPlaylists(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(playlists) != 1 || playlists[0].ID != "pl1" || playlists[0].TrackCount != 3 {
			t.Errorf("unexpected playlists: %+v", playlists)
		}
	})

	t.Run("ListPlaylistTracks skips local-only entries", func(t *testing.T) {
		rt := newRouteTripper()
		rt.routes["/v1/playlists/pl1/tracks"] = jsonHandler(`{
			"items": [
				{"track":{"id":"sp1","name":"Song","artists":[{"id":"a1","name":"Artist"}],"album":{"id":"al1","name":"Album"}}},
				{"track":null},
				{"track":{"id":"","name":"Local File"}}
			],
			"next": null
		}`)
		svc := testSpotify(rt)

		tracks, err := svc.ListPlaylistTracks(context.Background(), "pl1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(tracks) != 1 {
			t.Fatalf("expected 1 track, got %d", len(tracks))
		}
		if tracks[0].ID != "sp1" || tracks[0].Artist != "Artist" || tracks[0].Album != "Album" {
			t.Errorf("unexpected track: %+v", tracks[0])
		}
	})

	t.Run("ListPlaylistTracks follows pagination", func(t *testing.T) {
		rt := newRouteTripper()
		rt.routes["/v1/playlists/pl1/tracks"] = func(req *http.Request) *http.Response {
			if req.URL.Query().Get("offset") == "0" {
				return jsonResponse(http.StatusOK, `{
					"items":[{"track":{"id":"sp1","name":"One"}}],
					"next":"https://api.spotify.com/v1/playlists/pl1/tracks?offset=100"
				}`)
			}
			return jsonResponse(http.StatusOK, `{"items":[{"track":{"id":"sp2","name":"Two"}}],"next":null}`)
		}
		svc := testSpotify(rt)

		tracks, err := svc.ListPlaylistTracks(context.Background(), "pl1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(tracks) != 2 || tracks[1].ID != "sp2" {
			t.Errorf("unexpected tracks: %+v", tracks)
		}
		if rt.calls["/v1/playlists/pl1/tracks"] != 2 {
			t.Errorf("expected 2 page fetches, got %d", rt.calls["/v1/playlists/pl1/tracks"])
		}
	})

	t.Run("rate limit and server errors are transient", func(t *testing.T) {
		for _, status := range []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway} {
			rt := newRouteTripper()
			rt.routes["/v1/me"] = func(*http.Request) *http.Response {
				return jsonResponse(status, `{}`)
			}

			_, err := testSpotify(rt).CurrentUserID(context.Background())
			if !shared.IsTransient(err) {
				t.Errorf("expected status %d to be transient, got %v", status, err)
			}
		}
	})

	t.Run("client errors are not transient", func(t *testing.T) {
		rt := newRouteTripper()
		rt.routes["/v1/me"] = func(*http.Request) *http.Response {
			return jsonResponse(http.StatusForbidden, `{}`)
		}

		_, err := testSpotify(rt).CurrentUserID(context.Background())
		if err == nil || shared.IsTransient(err) {
			t.Errorf("expected permanent error, got %v", err)
		}
	})
}

func TestNewTidalService(t *testing.T) {
	t.Run("requires a token", func(t *testing.T) {
		_, err := NewTidalService(shared.TidalConfig{UserID: "42"})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("requires a user id", func(t *testing.T) {
		_, err := NewTidalService(shared.TidalConfig{AccessToken: "tok"})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("defaults the country code", func(t *testing.T) {
		svc, err := NewTidalService(shared.TidalConfig{AccessToken: "tok", UserID: "42"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if svc.countryCode != "US" {
			t.Errorf("expected default country US, got %s", svc.countryCode)
		}
	})
}

func TestTidalService(t *testing.T) {
	t.Run("SearchTrack returns the first hit", func(t *testing.T) {
		rt := newRouteTripper()
		rt.routes["/v1/search/tracks"] = jsonHandler(`{
			"items":[{"id":1234,"title":"Song","artists":[{"id":1,"name":"Artist"}],"album":{"id":2,"title":"Album"}}],
			"totalNumberOfItems":1
		}`)
		svc := testTidal(rt)

		track, err := svc.SearchTrack(context.Background(), "Song", "Artist")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if track == nil || track.ID != "1234" || track.Album != "Album" {
			t.Errorf("unexpected track: %+v", track)
		}
	})

	t.Run("SearchTrack miss is nil without error", func(t *testing.T) {
		rt := newRouteTripper()
		rt.routes["/v1/search/tracks"] = jsonHandler(`{"items":[],"totalNumberOfItems":0}`)
		svc := testTidal(rt)

		track, err := svc.SearchTrack(context.Background(), "Nothing", "Nobody")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if track != nil {
			t.Errorf("expected nil for a miss, got %+v", track)
		}
	})

	t.Run("CreatePlaylist posts the title and returns the uuid", func(t *testing.T) {
		rt := newRouteTripper()
		var form string
		rt.routes["/v1/users/42/playlists"] = func(req *http.Request) *http.Response {
			raw, _ := io.ReadAll(req.Body)
			form = string(raw)
			return jsonResponse(http.StatusCreated, `{"uuid":"new-uuid","title":"Roadtrip"}`)
		}
		svc := testTidal(rt)

		id, err := svc.CreatePlaylist(context.Background(), "Roadtrip", "desc")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if id != "new-uuid" {
			t.Errorf("expected new-uuid, got %s", id)
		}
		if !strings.Contains(form, "title=Roadtrip") {
			t.Errorf("expected title in form body, got %s", form)
		}
	})

	t.Run("AddTracks joins ids and skips duplicates remotely", func(t *testing.T) {
		rt := newRouteTripper()
		var form string
		rt.routes["/v1/playlists/tgt1/items"] = func(req *http.Request) *http.Response {
			raw, _ := io.ReadAll(req.Body)
			form = string(raw)
			return jsonResponse(http.StatusOK, `{}`)
		}
		svc := testTidal(rt)

		if err := svc.AddTracks(context.Background(), "tgt1", []string{"1", "2"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, want := range []string{"trackIds=1%2C2", "onDupes=SKIP"} {
			if !strings.Contains(form, want) {
				t.Errorf("expected form to contain %s, got %s", want, form)
			}
		}

		t.Run("empty batch is a no-op", func(t *testing.T) {
			calls := rt.calls["/v1/playlists/tgt1/items"]
			if err := svc.AddTracks(context.Background(), "tgt1", nil); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rt.calls["/v1/playlists/tgt1/items"] != calls {
				t.Error("expected no request for an empty batch")
			}
		})
	})

	t.Run("ListPlaylistTracks pages by total count", func(t *testing.T) {
		rt := newRouteTripper()
		rt.routes["/v1/playlists/tgt1/tracks"] = func(req *http.Request) *http.Response {
			offset := req.URL.Query().Get("offset")
			if offset == "0" {
				items := make([]string, 100)
				for i := range items {
					items[i] = `{"id":` + strconv.Itoa(i) + `,"title":"Track"}`
				}
				return jsonResponse(http.StatusOK,
					`{"items":[`+strings.Join(items, ",")+`],"totalNumberOfItems":101}`)
			}
			return jsonResponse(http.StatusOK, `{"items":[{"id":100,"title":"Last"}],"totalNumberOfItems":101}`)
		}
		svc := testTidal(rt)

		tracks, err := svc.ListPlaylistTracks(context.Background(), "tgt1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(tracks) != 101 || tracks[100].ID != "100" {
			t.Errorf("expected 101 tracks ending in id 100, got %d", len(tracks))
		}
	})

	t.Run("error responses surface the user message", func(t *testing.T) {
		rt := newRouteTripper()
		rt.routes["/v1/search/tracks"] = func(*http.Request) *http.Response {
			return jsonResponse(http.StatusUnauthorized, `{"userMessage":"token expired"}`)
		}
		svc := testTidal(rt)

		_, err := svc.SearchTrack(context.Background(), "Song", "Artist")
		if err == nil || !strings.Contains(err.Error(), "token expired") {
			t.Errorf("expected user message in error, got %v", err)
		}
	})
}
