package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/virtualvinyl/vinyl-server-go/internal/database"
	"github.com/virtualvinyl/vinyl-server-go/internal/model"
)

type PlaylistRepository interface {
	Create(ctx context.Context, params model.CreatePlaylistRecordParams) (*model.PlaylistRecord, error)
	FindByID(ctx context.Context, id string) (*model.PlaylistRecord, error)
	FindByProviderUser(ctx context.Context, provider model.Provider, providerUserID string, limit int) ([]model.PlaylistRecord, error)
	CountByProviderUser(ctx context.Context, provider model.Provider, providerUserID string) (int, error)
}

type playlistRepo struct {
	db database.DBTX
}

func NewPlaylistRepository(db database.DBTX) PlaylistRepository {
	return &playlistRepo{db: db}
}

func (r *playlistRepo) Create(ctx context.Context, params model.CreatePlaylistRecordParams) (*model.PlaylistRecord, error) {
	var record model.PlaylistRecord
	err := r.db.GetContext(ctx, &record, `
		INSERT INTO playlists (id, provider, provider_user_id, provider_playlist_id, name, url, track_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING *
	`, uuid.NewString(), params.Provider, params.ProviderUserID, params.ProviderPlaylistID,
		params.Name, params.URL, params.TrackCount, time.Now())
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *playlistRepo) FindByID(ctx context.Context, id string) (*model.PlaylistRecord, error) {
	var record model.PlaylistRecord
	err := r.db.GetContext(ctx, &record, `SELECT * FROM playlists WHERE id = $1`, id)
	return HandleNotFound(&record, err)
}

func (r *playlistRepo) FindByProviderUser(ctx context.Context, provider model.Provider, providerUserID string, limit int) ([]model.PlaylistRecord, error) {
	records := []model.PlaylistRecord{}
	err := r.db.SelectContext(ctx, &records, `
		SELECT * FROM playlists
		WHERE provider = $1 AND provider_user_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, provider, providerUserID, limit)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *playlistRepo) CountByProviderUser(ctx context.Context, provider model.Provider, providerUserID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM playlists WHERE provider = $1 AND provider_user_id = $2
	`, provider, providerUserID)
	return count, err
}
