package model

type Provider string

const (
	ProviderSpotify Provider = "spotify"
	ProviderTidal   Provider = "tidal"
)

func (p Provider) Valid() bool {
	switch p {
	case ProviderSpotify, ProviderTidal:
		return true
	}
	return false
}

// SessionState is derived from the session fields, never stored.
type SessionState string

const (
	SessionStateAnonymous     SessionState = "anonymous"
	SessionStatePending       SessionState = "pending"
	SessionStateAuthenticated SessionState = "authenticated"
)
