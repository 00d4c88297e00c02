package model

import (
	"slices"
	"time"
)

type Session struct {
	ID           string     `json:"id"`
	Provider     Provider   `json:"provider"`
	State        string     `json:"state"`
	AccessToken  string     `json:"access_token,omitempty"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	TokenExpiry  *time.Time `json:"token_expiry,omitempty"`
	Selection    []Track    `json:"selection,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (s *Session) IsAuthenticated() bool {
	return s != nil && s.AccessToken != ""
}

func (s *Session) IsPending() bool {
	return s != nil && s.AccessToken == "" && s.State != ""
}

func (s *Session) Status() SessionState {
	switch {
	case s.IsAuthenticated():
		return SessionStateAuthenticated
	case s.IsPending():
		return SessionStatePending
	default:
		return SessionStateAnonymous
	}
}

// AttachToken moves the session to the authenticated state. State is kept.
func (s *Session) AttachToken(token *OAuthToken) {
	s.AccessToken = token.AccessToken
	s.RefreshToken = token.RefreshToken
	if token.Expiry.IsZero() {
		s.TokenExpiry = nil
	} else {
		expiry := token.Expiry
		s.TokenExpiry = &expiry
	}
}

// Clone returns a copy that shares no mutable state with s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Selection = slices.Clone(s.Selection)
	if s.TokenExpiry != nil {
		expiry := *s.TokenExpiry
		c.TokenExpiry = &expiry
	}
	return &c
}

type CreateSessionParams struct {
	ID       string
	Provider Provider
	State    string
}
