package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/virtualvinyl/vinyl-server-go/internal/config"
	apperrors "github.com/virtualvinyl/vinyl-server-go/internal/errors"
	"github.com/virtualvinyl/vinyl-server-go/internal/model"
	"github.com/virtualvinyl/vinyl-server-go/internal/provider"
	"github.com/virtualvinyl/vinyl-server-go/internal/repository"
	"github.com/virtualvinyl/vinyl-server-go/internal/util"
)

type LoginResult struct {
	SessionID string
	AuthURL   string
	Provider  model.Provider
}

// AuthService drives a session from anonymous through pending to
// authenticated. There is no way back to pending; logout deletes the session.
type AuthService struct {
	sessionRepo  repository.SessionRepository
	providers    *provider.Registry
	replayPolicy config.ReplayPolicy
}

func NewAuthService(
	sessionRepo repository.SessionRepository,
	providers *provider.Registry,
	replayPolicy config.ReplayPolicy,
) *AuthService {
	if replayPolicy == "" {
		replayPolicy = config.ReplayStrict
	}
	return &AuthService{
		sessionRepo:  sessionRepo,
		providers:    providers,
		replayPolicy: replayPolicy,
	}
}

// BeginLogin issues a fresh session id and state nonce and returns the
// provider authorization URL that embeds the nonce.
func (s *AuthService) BeginLogin(ctx context.Context, name model.Provider) (*LoginResult, error) {
	if name == "" {
		name = model.ProviderSpotify
	}
	client, err := s.providers.Get(name)
	if err != nil {
		return nil, registryError(name, err)
	}

	sessionID, err := util.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}
	state, err := util.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("generate state: %w", err)
	}

	if _, err := s.sessionRepo.Create(ctx, model.CreateSessionParams{
		ID:       sessionID,
		Provider: name,
		State:    state,
	}); err != nil {
		return nil, apperrors.Store(err)
	}

	log.Debug().
		Str("session", util.ShortHash(sessionID)).
		Str("provider", string(name)).
		Msg("login started")

	return &LoginResult{
		SessionID: sessionID,
		AuthURL:   client.AuthURL(state),
		Provider:  name,
	}, nil
}

// CompleteLogin handles the provider redirect. On any failure the session is
// left exactly as it was.
func (s *AuthService) CompleteLogin(ctx context.Context, sessionID, code, state string) (*model.Session, error) {
	var session *model.Session
	if sessionID != "" {
		found, err := s.sessionRepo.FindByID(ctx, sessionID)
		if err != nil {
			return nil, apperrors.Store(err)
		}
		session = found
	}

	if s.replayPolicy == config.ReplayShortCircuit && session.IsAuthenticated() {
		return session, nil
	}

	if code == "" || session == nil || session.State == "" || !util.ConstantTimeEqual(state, session.State) {
		return nil, apperrors.InvalidCallback()
	}

	client, err := s.providers.Get(session.Provider)
	if err != nil {
		return nil, registryError(session.Provider, err)
	}

	token, err := client.Exchange(ctx, code)
	if err != nil {
		log.Warn().
			Err(err).
			Str("session", util.ShortHash(sessionID)).
			Str("provider", string(session.Provider)).
			Msg("token exchange failed")
		return nil, providerError(err, apperrors.AuthExchange)
	}

	updated, err := s.sessionRepo.Update(ctx, sessionID, func(sess *model.Session) error {
		sess.AttachToken(token)
		return nil
	})
	if err != nil {
		return nil, apperrors.Store(err)
	}
	if updated == nil {
		// Logged out while the exchange was in flight.
		return nil, apperrors.InvalidCallback()
	}

	log.Info().
		Str("session", util.ShortHash(sessionID)).
		Str("provider", string(updated.Provider)).
		Msg("session authenticated")

	return updated, nil
}

// Logout deletes the session. It never fails from the caller's point of view.
func (s *AuthService) Logout(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
		log.Warn().Err(err).Str("session", util.ShortHash(sessionID)).Msg("failed to delete session on logout")
	}
}

// Status reports whether the session holds an access token. Store errors
// read as unauthenticated.
func (s *AuthService) Status(ctx context.Context, sessionID string) bool {
	if sessionID == "" {
		return false
	}
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		log.Warn().Err(err).Msg("auth status lookup failed")
		return false
	}
	return session.IsAuthenticated()
}
