package model

import "time"

// OAuthToken is the credential set returned by a provider token exchange.
type OAuthToken struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// UserProfile is the provider account behind an authenticated session.
// Raw holds the provider payload so it can be passed through unchanged.
type UserProfile struct {
	ID          string
	DisplayName string
	Raw         any
}
