package service

import (
	"context"
	"strings"

	apperrors "github.com/virtualvinyl/vinyl-server-go/internal/errors"
	"github.com/virtualvinyl/vinyl-server-go/internal/model"
	"github.com/virtualvinyl/vinyl-server-go/internal/provider"
	"github.com/virtualvinyl/vinyl-server-go/internal/repository"
)

// CatalogService serves read-only provider data on behalf of a session.
type CatalogService struct {
	sessionRepo repository.SessionRepository
	providers   *provider.Registry
	searchLimit int
	topLimit    int
}

func NewCatalogService(
	sessionRepo repository.SessionRepository,
	providers *provider.Registry,
	searchLimit int,
	topLimit int,
) *CatalogService {
	return &CatalogService{
		sessionRepo: sessionRepo,
		providers:   providers,
		searchLimit: searchLimit,
		topLimit:    topLimit,
	}
}

func (s *CatalogService) Profile(ctx context.Context, sessionID string) (*model.UserProfile, error) {
	session, client, err := s.resolve(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	user, err := client.CurrentUser(ctx, session.AccessToken)
	if err != nil {
		return nil, providerError(err, readFailure(session.Provider))
	}
	return user, nil
}

// Search runs a track search. limit <= 0 uses the configured default.
func (s *CatalogService) Search(ctx context.Context, sessionID, query string, limit int) (*model.SearchResult, error) {
	session, client, err := s.resolve(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.MissingRequired("Query parameter required")
	}
	if limit <= 0 {
		limit = s.searchLimit
	}

	result, err := client.SearchTracks(ctx, session.AccessToken, query, limit)
	if err != nil {
		return nil, providerError(err, readFailure(session.Provider))
	}
	return result, nil
}

func (s *CatalogService) TopTracks(ctx context.Context, sessionID string) ([]model.Track, error) {
	session, client, err := s.resolve(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	tracker, ok := client.(provider.TopTracker)
	if !ok {
		return nil, apperrors.Unsupported("Top tracks are not available for this provider")
	}

	tracks, err := tracker.TopTracks(ctx, session.AccessToken, s.topLimit)
	if err != nil {
		return nil, providerError(err, readFailure(session.Provider))
	}
	return tracks, nil
}

func (s *CatalogService) resolve(ctx context.Context, sessionID string) (*model.Session, provider.Client, error) {
	session, err := loadAuthenticated(ctx, s.sessionRepo, sessionID)
	if err != nil {
		return nil, nil, err
	}
	client, err := s.providers.Get(session.Provider)
	if err != nil {
		return nil, nil, registryError(session.Provider, err)
	}
	return session, client, nil
}
