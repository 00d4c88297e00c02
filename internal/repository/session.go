package repository

import (
	"context"
	"errors"

	"github.com/virtualvinyl/vinyl-server-go/internal/model"
)

var (
	ErrSessionExists = errors.New("session already exists")
	ErrConflict      = errors.New("session modified concurrently")
)

// SessionMutator edits a private copy of a session. Returning an error
// discards the edit.
type SessionMutator func(s *model.Session) error

// SessionRepository stores sessions by opaque id. Lookups of unknown or
// expired ids return (nil, nil). Mutations of one id are serialized;
// different ids never block each other.
type SessionRepository interface {
	Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error)
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// Update applies fn atomically and returns the stored result, or
	// (nil, nil) when the session does not exist.
	Update(ctx context.Context, id string, fn SessionMutator) (*model.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) (int64, error)
}
