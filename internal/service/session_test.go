package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/virtualvinyl/vinyl-server-go/internal/errors"
	"github.com/virtualvinyl/vinyl-server-go/internal/model"
	"github.com/virtualvinyl/vinyl-server-go/internal/selection"
)

func TestSessionService_Toggle(t *testing.T) {
	ctx := context.Background()
	tracks := testTracks(13)

	t.Run("adds then removes", func(t *testing.T) {
		repo := newTestSessionRepo()
		svc := NewSessionService(repo, selection.DefaultPolicy())
		createAuthenticatedSession(t, repo, "s1")

		view, selected, err := svc.Toggle(ctx, "s1", tracks[0])
		require.NoError(t, err)
		assert.True(t, selected)
		assert.Equal(t, 1, view.Count)

		view, selected, err = svc.Toggle(ctx, "s1", tracks[0])
		require.NoError(t, err)
		assert.False(t, selected)
		assert.Equal(t, 0, view.Count)
		assert.NotNil(t, view.Tracks)
	})

	t.Run("persists selection order", func(t *testing.T) {
		repo := newTestSessionRepo()
		svc := NewSessionService(repo, selection.DefaultPolicy())
		createAuthenticatedSession(t, repo, "s1")

		for _, track := range tracks[:3] {
			_, _, err := svc.Toggle(ctx, "s1", track)
			require.NoError(t, err)
		}
		_, _, err := svc.Toggle(ctx, "s1", tracks[1])
		require.NoError(t, err)

		view, err := svc.Selection(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, []model.Track{tracks[0], tracks[2]}, view.Tracks)
		assert.Equal(t, 8, view.Min)
		assert.Equal(t, 12, view.Max)
	})

	t.Run("stops at the maximum", func(t *testing.T) {
		repo := newTestSessionRepo()
		svc := NewSessionService(repo, selection.DefaultPolicy())
		createAuthenticatedSession(t, repo, "s1", tracks[:12]...)

		view, selected, err := svc.Toggle(ctx, "s1", tracks[12])
		require.NoError(t, err)
		assert.False(t, selected)
		assert.Equal(t, 12, view.Count)
	})

	t.Run("concurrent toggles are not lost", func(t *testing.T) {
		repo := newTestSessionRepo()
		svc := NewSessionService(repo, selection.Policy{Min: 1, Max: 20})
		createAuthenticatedSession(t, repo, "s1")

		var wg sync.WaitGroup
		for _, track := range tracks {
			wg.Add(1)
			go func(track model.Track) {
				defer wg.Done()
				_, _, err := svc.Toggle(ctx, "s1", track)
				assert.NoError(t, err)
			}(track)
		}
		wg.Wait()

		view, err := svc.Selection(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, len(tracks), view.Count)
	})

	t.Run("rejects track without id", func(t *testing.T) {
		repo := newTestSessionRepo()
		svc := NewSessionService(repo, selection.DefaultPolicy())
		createAuthenticatedSession(t, repo, "s1")

		_, _, err := svc.Toggle(ctx, "s1", model.Track{Name: "No id"})
		assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
	})

	t.Run("requires authentication", func(t *testing.T) {
		repo := newTestSessionRepo()
		svc := NewSessionService(repo, selection.DefaultPolicy())
		createPendingSession(t, repo, "pending", "abc")

		for _, id := range []string{"", "unknown", "pending"} {
			_, _, err := svc.Toggle(ctx, id, tracks[0])
			assert.Equal(t, apperrors.ErrCodeNotAuthenticated, apperrors.GetCode(err), "session %q", id)

			_, _, err = svc.Toggle(ctx, id, model.Track{})
			assert.Equal(t, apperrors.ErrCodeNotAuthenticated, apperrors.GetCode(err), "empty track, session %q", id)
		}

		session, err := repo.FindByID(ctx, "pending")
		require.NoError(t, err)
		assert.Empty(t, session.Selection)
	})
}

func TestSessionService_Clear(t *testing.T) {
	ctx := context.Background()
	repo := newTestSessionRepo()
	svc := NewSessionService(repo, selection.DefaultPolicy())
	createAuthenticatedSession(t, repo, "s1", testTracks(5)...)

	view, err := svc.Clear(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, view.Count)
	assert.Empty(t, view.Tracks)

	session, err := repo.FindByID(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, session.Selection)
	assert.True(t, session.IsAuthenticated())

	_, err = svc.Clear(ctx, "unknown")
	assert.Equal(t, apperrors.ErrCodeNotAuthenticated, apperrors.GetCode(err))
}
