package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/virtualvinyl/vinyl-server-go/internal/model"
	"github.com/virtualvinyl/vinyl-server-go/internal/repository"
)

// Mock provider client
type mockProviderClient struct {
	mock.Mock
	name model.Provider
}

func (m *mockProviderClient) Name() model.Provider {
	return m.name
}

func (m *mockProviderClient) AuthURL(state string) string {
	return "https://accounts.example.com/authorize?state=" + state
}

func (m *mockProviderClient) Exchange(ctx context.Context, code string) (*model.OAuthToken, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OAuthToken), args.Error(1)
}

func (m *mockProviderClient) CurrentUser(ctx context.Context, accessToken string) (*model.UserProfile, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserProfile), args.Error(1)
}

func (m *mockProviderClient) SearchTracks(ctx context.Context, accessToken, query string, limit int) (*model.SearchResult, error) {
	args := m.Called(ctx, accessToken, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SearchResult), args.Error(1)
}

func (m *mockProviderClient) CreatePlaylist(ctx context.Context, accessToken, userID, name string, public bool) (*model.Playlist, error) {
	args := m.Called(ctx, accessToken, userID, name, public)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Playlist), args.Error(1)
}

func (m *mockProviderClient) AddTracks(ctx context.Context, accessToken, playlistID string, refs []string) error {
	args := m.Called(ctx, accessToken, playlistID, refs)
	return args.Error(0)
}

// Mock provider client that also reports top tracks
type mockTopTracksClient struct {
	mockProviderClient
}

func (m *mockTopTracksClient) TopTracks(ctx context.Context, accessToken string, limit int) ([]model.Track, error) {
	args := m.Called(ctx, accessToken, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Track), args.Error(1)
}

// Mock playlist repository
type mockPlaylistRepo struct {
	mock.Mock
}

func (m *mockPlaylistRepo) Create(ctx context.Context, params model.CreatePlaylistRecordParams) (*model.PlaylistRecord, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PlaylistRecord), args.Error(1)
}

func (m *mockPlaylistRepo) FindByID(ctx context.Context, id string) (*model.PlaylistRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PlaylistRecord), args.Error(1)
}

func (m *mockPlaylistRepo) FindByProviderUser(ctx context.Context, provider model.Provider, providerUserID string, limit int) ([]model.PlaylistRecord, error) {
	args := m.Called(ctx, provider, providerUserID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PlaylistRecord), args.Error(1)
}

func (m *mockPlaylistRepo) CountByProviderUser(ctx context.Context, provider model.Provider, providerUserID string) (int, error) {
	args := m.Called(ctx, provider, providerUserID)
	return args.Int(0), args.Error(1)
}

func newTestSessionRepo() *repository.MemorySessionRepository {
	return repository.NewMemorySessionRepository(time.Hour)
}

func createPendingSession(t *testing.T, repo repository.SessionRepository, id, state string) {
	t.Helper()
	_, err := repo.Create(context.Background(), model.CreateSessionParams{
		ID:       id,
		Provider: model.ProviderSpotify,
		State:    state,
	})
	require.NoError(t, err)
}

func createAuthenticatedSession(t *testing.T, repo repository.SessionRepository, id string, tracks ...model.Track) {
	t.Helper()
	createPendingSession(t, repo, id, "state-"+id)
	_, err := repo.Update(context.Background(), id, func(s *model.Session) error {
		s.AttachToken(&model.OAuthToken{AccessToken: "access-" + id})
		s.Selection = tracks
		return nil
	})
	require.NoError(t, err)
}

func testTracks(n int) []model.Track {
	tracks := make([]model.Track, n)
	for i := range tracks {
		id := string(rune('a' + i))
		tracks[i] = model.Track{ID: id, URI: "spotify:track:" + id, Name: "Track " + id}
	}
	return tracks
}

func trackURIs(tracks []model.Track) []string {
	uris := make([]string, len(tracks))
	for i, t := range tracks {
		uris[i] = t.URI
	}
	return uris
}
