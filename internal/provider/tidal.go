package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/virtualvinyl/vinyl-server-go/internal/model"
)

const (
	TidalAuthURL        = "https://login.tidal.com/authorize"
	TidalTokenURL       = "https://auth.tidal.com/v1/oauth2/token"
	TidalAPIBaseURL     = "https://api.tidal.com/v1"
	TidalPlaylistURL    = "https://listen.tidal.com/playlist/"
	tidalImageBaseURL   = "https://resources.tidal.com/images/"
	tidalPlaylistDesc   = "Created with Virtual Vinyl"
	tidalTrackURI       = "tidal:track:"
	maxErrorBodyLogSize = 512
)

var tidalScopes = []string{"r_usr", "w_usr", "r_sub", "w_sub"}

type TidalConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Timeout      time.Duration

	// Endpoint overrides, empty means the public TIDAL endpoints.
	AuthURL    string
	TokenURL   string
	APIBaseURL string
	HTTPClient *http.Client
}

type TidalClient struct {
	oauth      *oauth2.Config
	apiBaseURL string
	httpClient *http.Client
}

func NewTidalClient(cfg TidalConfig) *TidalClient {
	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = TidalAuthURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = TidalTokenURL
	}
	apiBaseURL := cfg.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = TidalAPIBaseURL
	}

	return &TidalClient{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       tidalScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiBaseURL: strings.TrimSuffix(apiBaseURL, "/"),
		httpClient: newHTTPClient(cfg.HTTPClient, cfg.Timeout),
	}
}

func (c *TidalClient) Name() model.Provider {
	return model.ProviderTidal
}

func (c *TidalClient) AuthURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

func (c *TidalClient) Exchange(ctx context.Context, code string) (*model.OAuthToken, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		log.Error().Err(err).Msg("TIDAL token exchange failed")
		return nil, exchangeFailed(model.ProviderTidal, err)
	}

	return &model.OAuthToken{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	}, nil
}

func (c *TidalClient) CurrentUser(ctx context.Context, accessToken string) (*model.UserProfile, error) {
	if err := requireToken(accessToken); err != nil {
		return nil, err
	}

	body, err := c.do(ctx, "current user", accessToken, http.MethodGet, "/users/me", nil)
	if err != nil {
		return nil, err
	}

	var user map[string]any
	if err := decodeJSON(body, &user); err != nil {
		return nil, &APIError{Provider: model.ProviderTidal, Op: "current user", Message: err.Error()}
	}

	id := jsonString(user["id"])
	if id == "" {
		return nil, &APIError{Provider: model.ProviderTidal, Op: "current user", Message: "response missing id"}
	}

	displayName := jsonString(user["username"])
	if displayName == "" {
		displayName = strings.TrimSpace(jsonString(user["firstName"]) + " " + jsonString(user["lastName"]))
	}

	return &model.UserProfile{
		ID:          id,
		DisplayName: displayName,
		Raw:         json.RawMessage(body),
	}, nil
}

type tidalTrack struct {
	ID       json.Number `json:"id"`
	Title    string      `json:"title"`
	Duration int         `json:"duration"`
	URL      string      `json:"url"`
	Artists  []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Cover string `json:"cover"`
	} `json:"album"`
}

func (c *TidalClient) SearchTracks(ctx context.Context, accessToken, query string, limit int) (*model.SearchResult, error) {
	if err := requireToken(accessToken); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return &model.SearchResult{Tracks: []model.Track{}}, nil
	}

	params := url.Values{
		"query": {query},
		"limit": {fmt.Sprint(clampLimit(limit))},
	}
	body, err := c.do(ctx, "search", accessToken, http.MethodGet, "/search/tracks?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var page struct {
		Items []tidalTrack `json:"items"`
	}
	if err := decodeJSON(body, &page); err != nil {
		return nil, &APIError{Provider: model.ProviderTidal, Op: "search", Message: err.Error()}
	}

	tracks := make([]model.Track, 0, len(page.Items))
	for _, item := range page.Items {
		tracks = append(tracks, normalizeTidalTrack(item))
	}

	return &model.SearchResult{Tracks: tracks, Raw: json.RawMessage(body)}, nil
}

func (c *TidalClient) CreatePlaylist(ctx context.Context, accessToken, userID, name string, public bool) (*model.Playlist, error) {
	if err := requireToken(accessToken); err != nil {
		return nil, err
	}

	visibility := "PRIVATE"
	if public {
		visibility = "PUBLIC"
	}
	payload := map[string]any{
		"title":       name,
		"description": tidalPlaylistDesc,
		"visibility":  visibility,
	}

	body, err := c.do(ctx, "create playlist", accessToken, http.MethodPost, "/users/"+url.PathEscape(userID)+"/playlists", payload)
	if err != nil {
		return nil, err
	}

	var created struct {
		UUID  string `json:"uuid"`
		Title string `json:"title"`
	}
	if err := decodeJSON(body, &created); err != nil || created.UUID == "" {
		return nil, &APIError{Provider: model.ProviderTidal, Op: "create playlist", Message: "response missing uuid"}
	}

	return &model.Playlist{
		ID:      created.UUID,
		Name:    name,
		URL:     TidalPlaylistURL + created.UUID,
		OwnerID: userID,
	}, nil
}

func (c *TidalClient) AddTracks(ctx context.Context, accessToken, playlistID string, refs []string) error {
	if err := requireToken(accessToken); err != nil {
		return err
	}

	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		id := strings.TrimPrefix(ref, tidalTrackURI)
		if id == "" {
			return &APIError{Provider: model.ProviderTidal, Op: "add tracks", Message: fmt.Sprintf("invalid track reference %q", ref)}
		}
		ids = append(ids, id)
	}

	payload := map[string]any{
		"trackIds": ids,
		"onDupes":  "SKIP",
	}
	_, err := c.do(ctx, "add tracks", accessToken, http.MethodPost, "/playlists/"+url.PathEscape(playlistID)+"/items", payload)
	return err
}

// do sends one authorized request and returns the body of a 2xx answer.
func (c *TidalClient) do(ctx context.Context, op, accessToken, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode TIDAL %s request: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiBaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create TIDAL %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, unavailable(model.ProviderTidal, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, unavailable(model.ProviderTidal, op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().
			Int("status", resp.StatusCode).
			Str("op", op).
			Str("body", truncate(string(body), maxErrorBodyLogSize)).
			Msg("TIDAL API request failed")
		return nil, &APIError{Provider: model.ProviderTidal, Op: op, Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	return body, nil
}

func normalizeTidalTrack(item tidalTrack) model.Track {
	artists := make([]string, 0, len(item.Artists))
	for _, artist := range item.Artists {
		artists = append(artists, artist.Name)
	}

	var artwork string
	if item.Album.Cover != "" {
		artwork = tidalImageBaseURL + strings.ReplaceAll(item.Album.Cover, "-", "/") + "/320x320.jpg"
	}

	id := item.ID.String()
	return model.Track{
		ID:          id,
		URI:         tidalTrackURI + id,
		Name:        item.Title,
		Artists:     artists,
		DurationMS:  item.Duration * 1000,
		AlbumArtURL: artwork,
	}
}

func decodeJSON(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(v)
}

func jsonString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
