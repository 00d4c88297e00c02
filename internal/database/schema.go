package database

const Schema = `
CREATE TABLE IF NOT EXISTS playlists (
	id                   UUID PRIMARY KEY,
	provider             TEXT NOT NULL,
	provider_user_id     TEXT NOT NULL,
	provider_playlist_id TEXT NOT NULL,
	name                 TEXT NOT NULL,
	url                  TEXT NOT NULL DEFAULT '',
	track_count          INTEGER NOT NULL,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS playlists_provider_user_idx
	ON playlists (provider, provider_user_id, created_at DESC);
`
