package service

import (
	"context"

	apperrors "github.com/virtualvinyl/vinyl-server-go/internal/errors"
	"github.com/virtualvinyl/vinyl-server-go/internal/model"
	"github.com/virtualvinyl/vinyl-server-go/internal/repository"
	"github.com/virtualvinyl/vinyl-server-go/internal/selection"
)

type SelectionView struct {
	Tracks []model.Track `json:"tracks"`
	Count  int           `json:"count"`
	Min    int           `json:"min"`
	Max    int           `json:"max"`
}

// SessionService owns the server-side track selection of each session.
type SessionService struct {
	sessionRepo repository.SessionRepository
	policy      selection.Policy
}

func NewSessionService(sessionRepo repository.SessionRepository, policy selection.Policy) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		policy:      policy,
	}
}

func (s *SessionService) Selection(ctx context.Context, sessionID string) (*SelectionView, error) {
	session, err := loadAuthenticated(ctx, s.sessionRepo, sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(selection.New(s.policy, session.Selection)), nil
}

// Toggle removes the track when selected, otherwise adds it if there is room.
// selected reports whether the track is in the selection afterwards.
func (s *SessionService) Toggle(ctx context.Context, sessionID string, track model.Track) (view *SelectionView, selected bool, err error) {
	var sel *selection.Selection
	if _, err := s.mutateAuthenticated(ctx, sessionID, func(sess *model.Session) error {
		if track.ID == "" {
			return apperrors.InvalidInput("track", "id is required")
		}
		sel = selection.New(s.policy, sess.Selection)
		sel.Toggle(track)
		sess.Selection = sel.Tracks()
		return nil
	}); err != nil {
		return nil, false, err
	}

	return s.view(sel), sel.Contains(track.ID), nil
}

func (s *SessionService) Clear(ctx context.Context, sessionID string) (*SelectionView, error) {
	if _, err := s.mutateAuthenticated(ctx, sessionID, func(sess *model.Session) error {
		sess.Selection = nil
		return nil
	}); err != nil {
		return nil, err
	}
	return s.view(selection.New(s.policy, nil)), nil
}

func (s *SessionService) mutateAuthenticated(ctx context.Context, sessionID string, fn repository.SessionMutator) (*model.Session, error) {
	if sessionID == "" {
		return nil, apperrors.NotAuthenticated()
	}
	updated, err := s.sessionRepo.Update(ctx, sessionID, func(sess *model.Session) error {
		if !sess.IsAuthenticated() {
			return apperrors.NotAuthenticated()
		}
		return fn(sess)
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.Store(err)
	}
	if updated == nil {
		return nil, apperrors.NotAuthenticated()
	}
	return updated, nil
}

func (s *SessionService) view(sel *selection.Selection) *SelectionView {
	return &SelectionView{
		Tracks: sel.Tracks(),
		Count:  sel.Len(),
		Min:    s.policy.Min,
		Max:    s.policy.Max,
	}
}

// loadAuthenticated returns the session behind sessionID or NotAuthenticated
// when it is unknown, expired or still pending.
func loadAuthenticated(ctx context.Context, repo repository.SessionRepository, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, apperrors.NotAuthenticated()
	}
	session, err := repo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	if !session.IsAuthenticated() {
		return nil, apperrors.NotAuthenticated()
	}
	return session, nil
}
