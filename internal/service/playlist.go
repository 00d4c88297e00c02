package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/virtualvinyl/vinyl-server-go/internal/errors"
	"github.com/virtualvinyl/vinyl-server-go/internal/model"
	"github.com/virtualvinyl/vinyl-server-go/internal/provider"
	"github.com/virtualvinyl/vinyl-server-go/internal/repository"
	"github.com/virtualvinyl/vinyl-server-go/internal/selection"
	"github.com/virtualvinyl/vinyl-server-go/internal/util"
)

const (
	DefaultPlaylistName    = "El vinilo de hoy"
	PlaylistCreatedMessage = "Virtual vinyl created successfully!"
)

type AssembleRequest struct {
	Name string
	// TrackRefs are provider track references. Nil means the session's
	// stored selection is used instead.
	TrackRefs []string
}

// PlaylistService turns a selection into a private provider playlist.
type PlaylistService struct {
	sessionRepo  repository.SessionRepository
	playlistRepo repository.PlaylistRepository
	providers    *provider.Registry
	policy       selection.Policy
	historyLimit int
}

// NewPlaylistService creates the service. playlistRepo may be nil, in which
// case no history is kept.
func NewPlaylistService(
	sessionRepo repository.SessionRepository,
	playlistRepo repository.PlaylistRepository,
	providers *provider.Registry,
	policy selection.Policy,
	historyLimit int,
) *PlaylistService {
	return &PlaylistService{
		sessionRepo:  sessionRepo,
		playlistRepo: playlistRepo,
		providers:    providers,
		policy:       policy,
		historyLimit: historyLimit,
	}
}

// Assemble creates the playlist and fills it. A failure while adding tracks
// leaves the empty playlist in place; nothing is rolled back.
func (s *PlaylistService) Assemble(ctx context.Context, sessionID string, req AssembleRequest) (*model.Playlist, error) {
	session, err := loadAuthenticated(ctx, s.sessionRepo, sessionID)
	if err != nil {
		return nil, err
	}

	refs := uniqueRefs(req.TrackRefs)
	if refs == nil {
		refs = selection.New(s.policy, session.Selection).Refs(session.Provider)
	}
	if err := s.policy.Check(len(refs)); err != nil {
		return nil, err
	}

	client, err := s.providers.Get(session.Provider)
	if err != nil {
		return nil, registryError(session.Provider, err)
	}

	user, err := client.CurrentUser(ctx, session.AccessToken)
	if err != nil {
		return nil, providerError(err, apperrors.PlaylistCreate)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = DefaultPlaylistName
	}

	playlist, err := client.CreatePlaylist(ctx, session.AccessToken, user.ID, name, false)
	if err != nil {
		return nil, providerError(err, apperrors.PlaylistCreate)
	}
	if playlist.Name == "" {
		playlist.Name = name
	}

	if err := client.AddTracks(ctx, session.AccessToken, playlist.ID, refs); err != nil {
		log.Warn().
			Err(err).
			Str("provider", string(session.Provider)).
			Str("playlistId", playlist.ID).
			Msg("playlist created but tracks could not be added")
		return nil, providerError(err, apperrors.TrackAdd)
	}

	if _, err := s.sessionRepo.Update(ctx, sessionID, func(sess *model.Session) error {
		sess.Selection = nil
		return nil
	}); err != nil {
		log.Warn().Err(err).Str("session", util.ShortHash(sessionID)).Msg("failed to clear selection")
	}

	s.record(ctx, session.Provider, user.ID, playlist, len(refs))

	log.Info().
		Str("provider", string(session.Provider)).
		Str("playlistId", playlist.ID).
		Int("tracks", len(refs)).
		Msg("playlist assembled")

	return playlist, nil
}

// History lists playlists assembled by the session's provider account,
// newest first.
func (s *PlaylistService) History(ctx context.Context, sessionID string) ([]model.PlaylistRecord, error) {
	session, err := loadAuthenticated(ctx, s.sessionRepo, sessionID)
	if err != nil {
		return nil, err
	}
	if s.playlistRepo == nil {
		return []model.PlaylistRecord{}, nil
	}

	client, err := s.providers.Get(session.Provider)
	if err != nil {
		return nil, registryError(session.Provider, err)
	}
	user, err := client.CurrentUser(ctx, session.AccessToken)
	if err != nil {
		return nil, providerError(err, readFailure(session.Provider))
	}

	records, err := s.playlistRepo.FindByProviderUser(ctx, session.Provider, user.ID, s.historyLimit)
	if err != nil {
		return nil, apperrors.Internal("Failed to load playlist history").WithCause(err)
	}
	if records == nil {
		records = []model.PlaylistRecord{}
	}
	return records, nil
}

func (s *PlaylistService) record(ctx context.Context, name model.Provider, userID string, playlist *model.Playlist, trackCount int) {
	if s.playlistRepo == nil {
		return
	}
	if _, err := s.playlistRepo.Create(ctx, model.CreatePlaylistRecordParams{
		Provider:           name,
		ProviderUserID:     userID,
		ProviderPlaylistID: playlist.ID,
		Name:               playlist.Name,
		URL:                playlist.URL,
		TrackCount:         trackCount,
	}); err != nil {
		log.Error().Err(err).Str("playlistId", playlist.ID).Msg("failed to record playlist history")
	}
}

// uniqueRefs drops repeated references, keeping first-seen order.
func uniqueRefs(refs []string) []string {
	if refs == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(refs))
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}
	return out
}
