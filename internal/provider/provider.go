// Package provider talks to the music-streaming services that own the
// catalog and the user's playlists.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/virtualvinyl/vinyl-server-go/internal/model"
)

// Client is the capability set every streaming provider offers.
type Client interface {
	Name() model.Provider
	// AuthURL builds the authorization redirect. It never touches the network.
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*model.OAuthToken, error)
	CurrentUser(ctx context.Context, accessToken string) (*model.UserProfile, error)
	SearchTracks(ctx context.Context, accessToken, query string, limit int) (*model.SearchResult, error)
	CreatePlaylist(ctx context.Context, accessToken, userID, name string, public bool) (*model.Playlist, error)
	AddTracks(ctx context.Context, accessToken, playlistID string, refs []string) error
}

// TopTracker is implemented by providers that expose the user's most played tracks.
type TopTracker interface {
	TopTracks(ctx context.Context, accessToken string, limit int) ([]model.Track, error)
}

const (
	PlaylistDescription = "Created with VirtualVinyl - A vinyl-inspired playlist"
	defaultTimeout      = 10 * time.Second
)

type Registry struct {
	clients map[model.Provider]Client
}

func NewRegistry(clients ...Client) *Registry {
	r := &Registry{clients: make(map[model.Provider]Client, len(clients))}
	for _, c := range clients {
		r.clients[c.Name()] = c
	}
	return r
}

func (r *Registry) Get(name model.Provider) (Client, error) {
	if !name.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	c, ok := r.clients[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotConfigured, name)
	}
	return c, nil
}

func (r *Registry) Providers() []model.Provider {
	names := make([]model.Provider, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func newHTTPClient(c *http.Client, timeout time.Duration) *http.Client {
	if c != nil {
		return c
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return 20
	case limit > 50:
		return 50
	}
	return limit
}

func requireToken(accessToken string) error {
	if accessToken == "" {
		return ErrNotAuthenticated
	}
	return nil
}
