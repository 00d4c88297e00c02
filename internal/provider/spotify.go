package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/virtualvinyl/vinyl-server-go/internal/model"
)

const (
	SpotifyAPIBaseURL = "https://api.spotify.com/v1/"
	spotifyTrackURI   = "spotify:track:"
)

var spotifyScopes = []string{
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopeUserReadEmail,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
	spotifyauth.ScopeUserLibraryRead,
	spotifyauth.ScopeUserTopRead,
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Timeout      time.Duration

	// Endpoint overrides, empty means the public Spotify endpoints.
	AuthURL    string
	TokenURL   string
	APIBaseURL string
	HTTPClient *http.Client
}

type SpotifyClient struct {
	oauth      *oauth2.Config
	apiBaseURL string
	httpClient *http.Client
}

func NewSpotifyClient(cfg SpotifyConfig) *SpotifyClient {
	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = spotifyauth.AuthURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyauth.TokenURL
	}
	apiBaseURL := cfg.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = SpotifyAPIBaseURL
	}
	if !strings.HasSuffix(apiBaseURL, "/") {
		apiBaseURL += "/"
	}

	return &SpotifyClient{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       spotifyScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		apiBaseURL: apiBaseURL,
		httpClient: newHTTPClient(cfg.HTTPClient, cfg.Timeout),
	}
}

func (c *SpotifyClient) Name() model.Provider {
	return model.ProviderSpotify
}

func (c *SpotifyClient) AuthURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

func (c *SpotifyClient) Exchange(ctx context.Context, code string) (*model.OAuthToken, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			log.Error().Int("status", retrieveErr.Response.StatusCode).Msg("Spotify token exchange failed")
		}
		return nil, exchangeFailed(model.ProviderSpotify, err)
	}

	return &model.OAuthToken{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	}, nil
}

func (c *SpotifyClient) CurrentUser(ctx context.Context, accessToken string) (*model.UserProfile, error) {
	if err := requireToken(accessToken); err != nil {
		return nil, err
	}

	user, err := c.api(ctx, accessToken).CurrentUser(ctx)
	if err != nil {
		return nil, c.classify("current user", err)
	}

	return &model.UserProfile{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Raw:         user,
	}, nil
}

func (c *SpotifyClient) SearchTracks(ctx context.Context, accessToken, query string, limit int) (*model.SearchResult, error) {
	if err := requireToken(accessToken); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return &model.SearchResult{Tracks: []model.Track{}}, nil
	}

	result, err := c.api(ctx, accessToken).Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(clampLimit(limit)))
	if err != nil {
		return nil, c.classify("search", err)
	}

	tracks := []model.Track{}
	if result.Tracks != nil {
		tracks = normalizeSpotifyTracks(result.Tracks.Tracks)
	}

	return &model.SearchResult{Tracks: tracks, Raw: result}, nil
}

func (c *SpotifyClient) TopTracks(ctx context.Context, accessToken string, limit int) ([]model.Track, error) {
	if err := requireToken(accessToken); err != nil {
		return nil, err
	}

	page, err := c.api(ctx, accessToken).CurrentUsersTopTracks(ctx, spotify.Limit(clampLimit(limit)))
	if err != nil {
		return nil, c.classify("top tracks", err)
	}

	return normalizeSpotifyTracks(page.Tracks), nil
}

func (c *SpotifyClient) CreatePlaylist(ctx context.Context, accessToken, userID, name string, public bool) (*model.Playlist, error) {
	if err := requireToken(accessToken); err != nil {
		return nil, err
	}

	playlist, err := c.api(ctx, accessToken).CreatePlaylistForUser(ctx, userID, name, PlaylistDescription, public, false)
	if err != nil {
		return nil, c.classify("create playlist", err)
	}

	return &model.Playlist{
		ID:      string(playlist.ID),
		Name:    playlist.Name,
		URL:     playlist.ExternalURLs["spotify"],
		OwnerID: userID,
	}, nil
}

func (c *SpotifyClient) AddTracks(ctx context.Context, accessToken, playlistID string, refs []string) error {
	if err := requireToken(accessToken); err != nil {
		return err
	}

	ids := make([]spotify.ID, 0, len(refs))
	for _, ref := range refs {
		id := strings.TrimPrefix(ref, spotifyTrackURI)
		if id == "" {
			return &APIError{Provider: model.ProviderSpotify, Op: "add tracks", Message: fmt.Sprintf("invalid track reference %q", ref)}
		}
		ids = append(ids, spotify.ID(id))
	}

	if _, err := c.api(ctx, accessToken).AddTracksToPlaylist(ctx, spotify.ID(playlistID), ids...); err != nil {
		return c.classify("add tracks", err)
	}
	return nil
}

// api returns a Web API client authorized with the session's bearer token.
func (c *SpotifyClient) api(ctx context.Context, accessToken string) *spotify.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
	httpClient.Timeout = c.httpClient.Timeout

	return spotify.New(httpClient, spotify.WithBaseURL(c.apiBaseURL))
}

func (c *SpotifyClient) classify(op string, err error) error {
	if isTransport(err) {
		return unavailable(model.ProviderSpotify, op, err)
	}

	apiErr := &APIError{Provider: model.ProviderSpotify, Op: op, Message: err.Error()}
	var se spotify.Error
	var sePtr *spotify.Error
	switch {
	case errors.As(err, &se):
		apiErr.Status, apiErr.Message = se.Status, se.Message
	case errors.As(err, &sePtr):
		apiErr.Status, apiErr.Message = sePtr.Status, sePtr.Message
	}

	log.Error().Int("status", apiErr.Status).Str("op", op).Msg("Spotify API request failed")
	return apiErr
}

func normalizeSpotifyTracks(items []spotify.FullTrack) []model.Track {
	tracks := make([]model.Track, 0, len(items))
	for _, item := range items {
		tracks = append(tracks, normalizeSpotifyTrack(item))
	}
	return tracks
}

func normalizeSpotifyTrack(item spotify.FullTrack) model.Track {
	artists := make([]string, 0, len(item.Artists))
	for _, artist := range item.Artists {
		artists = append(artists, artist.Name)
	}

	var artwork string
	if len(item.Album.Images) > 0 {
		artwork = item.Album.Images[0].URL
	}

	return model.Track{
		ID:          string(item.ID),
		URI:         string(item.URI),
		Name:        item.Name,
		Artists:     artists,
		DurationMS:  int(item.Duration),
		AlbumArtURL: artwork,
	}
}
