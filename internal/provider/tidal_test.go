package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTidalTestClient(t *testing.T, mux *http.ServeMux) *TidalClient {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return NewTidalClient(TidalConfig{
		ClientID:     "tidal-id",
		ClientSecret: "tidal-secret",
		RedirectURI:  "http://localhost:8080/callback",
		Timeout:      time.Second,
		AuthURL:      srv.URL + "/authorize",
		TokenURL:     srv.URL + "/v1/oauth2/token",
		APIBaseURL:   srv.URL + "/v1/",
	})
}

func TestTidalAuthURL(t *testing.T) {
	c := NewTidalClient(TidalConfig{ClientID: "tidal-id", RedirectURI: "http://localhost:8080/callback"})

	u, err := url.Parse(c.AuthURL("nonce"))
	require.NoError(t, err)

	assert.Equal(t, "login.tidal.com", u.Host)
	assert.Equal(t, "tidal-id", u.Query().Get("client_id"))
	assert.Equal(t, "nonce", u.Query().Get("state"))
	assert.Equal(t, "r_usr w_usr r_sub w_sub", u.Query().Get("scope"))
}

func TestTidalExchange(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "tidal-id", r.PostForm.Get("client_id"))
		assert.Equal(t, "code-1", r.PostForm.Get("code"))
		writeJSONResponse(w, http.StatusOK, map[string]any{
			"access_token": "tidal-access",
			"token_type":   "Bearer",
			"expires_in":   86400,
		})
	})
	c := newTidalTestClient(t, mux)

	token, err := c.Exchange(context.Background(), "code-1")
	require.NoError(t, err)
	assert.Equal(t, "tidal-access", token.AccessToken)
}

func TestTidalCurrentUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/users/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tidal-access", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 184467440737, "username": "vinylfan"}`))
	})
	c := newTidalTestClient(t, mux)

	user, err := c.CurrentUser(context.Background(), "tidal-access")
	require.NoError(t, err)
	assert.Equal(t, "184467440737", user.ID)
	assert.Equal(t, "vinylfan", user.DisplayName)
}

func TestTidalSearchTracks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/search/tracks", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "massive attack", r.URL.Query().Get("query"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items": [{"id": 1234, "title": "Teardrop", "duration": 330,
			"artists": [{"name": "Massive Attack"}],
			"album": {"cover": "aa-bb-cc"}}], "totalNumberOfItems": 1}`))
	})
	c := newTidalTestClient(t, mux)

	result, err := c.SearchTracks(context.Background(), "tidal-access", "massive attack", 100)
	require.NoError(t, err)
	require.Len(t, result.Tracks, 1)

	track := result.Tracks[0]
	assert.Equal(t, "1234", track.ID)
	assert.Equal(t, "Teardrop", track.Name)
	assert.Equal(t, []string{"Massive Attack"}, track.Artists)
	assert.Equal(t, 330000, track.DurationMS)
	assert.Equal(t, "https://resources.tidal.com/images/aa/bb/cc/320x320.jpg", track.AlbumArtURL)
	assert.IsType(t, json.RawMessage{}, result.Raw)
}

func TestTidalPlaylistAssembly(t *testing.T) {
	t.Run("creates playlist and adds items", func(t *testing.T) {
		var createBody, addBody map[string]any

		mux := http.NewServeMux()
		mux.HandleFunc("/v1/users/42/playlists", func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&createBody))
			writeJSONResponse(w, http.StatusCreated, map[string]string{"uuid": "uuid-1"})
		})
		mux.HandleFunc("/v1/playlists/uuid-1/items", func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&addBody))
			w.WriteHeader(http.StatusOK)
		})
		c := newTidalTestClient(t, mux)

		playlist, err := c.CreatePlaylist(context.Background(), "tidal-access", "42", "Mix", false)
		require.NoError(t, err)
		assert.Equal(t, "uuid-1", playlist.ID)
		assert.Equal(t, "https://listen.tidal.com/playlist/uuid-1", playlist.URL)
		assert.Equal(t, "PRIVATE", createBody["visibility"])
		assert.Equal(t, "Mix", createBody["title"])

		require.NoError(t, c.AddTracks(context.Background(), "tidal-access", "uuid-1", []string{"1", "2"}))
		assert.Equal(t, []any{"1", "2"}, addBody["trackIds"])
		assert.Equal(t, "SKIP", addBody["onDupes"])
	})

	t.Run("track uris are sent as bare ids", func(t *testing.T) {
		var addBody map[string]any

		mux := http.NewServeMux()
		mux.HandleFunc("/v1/playlists/uuid-1/items", func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&addBody))
			w.WriteHeader(http.StatusOK)
		})
		c := newTidalTestClient(t, mux)

		track := normalizeTidalTrack(tidalTrack{ID: json.Number("123")})
		require.Equal(t, "tidal:track:123", track.URI)

		require.NoError(t, c.AddTracks(context.Background(), "tidal-access", "uuid-1", []string{track.URI, "456"}))
		assert.Equal(t, []any{"123", "456"}, addBody["trackIds"])
	})

	t.Run("empty track reference is rejected before the request", func(t *testing.T) {
		called := false
		mux := http.NewServeMux()
		mux.HandleFunc("/v1/playlists/uuid-1/items", func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		})
		c := newTidalTestClient(t, mux)

		for _, ref := range []string{"", "tidal:track:"} {
			err := c.AddTracks(context.Background(), "tidal-access", "uuid-1", []string{"1", ref})
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "ref %q", ref)
			assert.Equal(t, "add tracks", apiErr.Op)
		}
		assert.False(t, called)
	})

	t.Run("non-2xx add is an api error", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/v1/playlists/uuid-1/items", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusPreconditionFailed)
		})
		c := newTidalTestClient(t, mux)

		err := c.AddTracks(context.Background(), "tidal-access", "uuid-1", []string{"1"})
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusPreconditionFailed, apiErr.Status)
	})
}
