package model

import "time"

type Playlist struct {
	ID      string `json:"playlist_id"`
	Name    string `json:"name"`
	URL     string `json:"playlist_url"`
	OwnerID string `json:"owner_id"`
}

// PlaylistRecord is the history row written after a successful assembly.
type PlaylistRecord struct {
	ID                 string    `db:"id" json:"id"`
	Provider           Provider  `db:"provider" json:"provider"`
	ProviderUserID     string    `db:"provider_user_id" json:"providerUserId"`
	ProviderPlaylistID string    `db:"provider_playlist_id" json:"playlistId"`
	Name               string    `db:"name" json:"name"`
	URL                string    `db:"url" json:"url"`
	TrackCount         int       `db:"track_count" json:"trackCount"`
	CreatedAt          time.Time `db:"created_at" json:"createdAt"`
}

type CreatePlaylistRecordParams struct {
	Provider           Provider
	ProviderUserID     string
	ProviderPlaylistID string
	Name               string
	URL                string
	TrackCount         int
}
