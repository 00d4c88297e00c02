package model

type Track struct {
	ID          string   `json:"id"`
	URI         string   `json:"uri"`
	Name        string   `json:"name"`
	Artists     []string `json:"artists"`
	DurationMS  int      `json:"duration_ms,omitempty"`
	AlbumArtURL string   `json:"album_art_url,omitempty"`
}

// Ref is the identifier the provider expects when adding the track to a playlist.
func (t Track) Ref(provider Provider) string {
	if provider == ProviderSpotify && t.URI != "" {
		return t.URI
	}
	return t.ID
}

// SearchResult carries normalized tracks alongside the provider payload.
type SearchResult struct {
	Tracks []Track
	Raw    any
}
