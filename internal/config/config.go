package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/virtualvinyl/vinyl-server-go/internal/util"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// ReplayPolicy controls how /callback treats a session that is already authenticated.
type ReplayPolicy string

const (
	// ReplayStrict re-validates state and re-runs the exchange on every callback.
	ReplayStrict ReplayPolicy = "strict"
	// ReplayShortCircuit reports success for an authenticated session before any other check.
	ReplayShortCircuit ReplayPolicy = "short-circuit"
)

const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

type Config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`

	SpotifyClientID     string `env:"SPOTIFY_CLIENT_ID,required"`
	SpotifyClientSecret string `env:"SPOTIFY_CLIENT_SECRET,required"`
	SpotifyRedirectURI  string `env:"REDIRECT_URI" envDefault:"http://localhost:8080/callback"`

	TidalClientID     string `env:"TIDAL_CLIENT_ID"`
	TidalClientSecret string `env:"TIDAL_CLIENT_SECRET"`
	TidalRedirectURI  string `env:"TIDAL_REDIRECT_URI" envDefault:"http://localhost:8080/callback"`

	AppRedirectURL string `env:"APP_REDIRECT_URL" envDefault:"http://localhost:3000"`
	CookieSecure   bool   `env:"COOKIE_SECURE" envDefault:"false"`
	StaticDir      string `env:"STATIC_DIR"`

	SessionBackend    string `env:"SESSION_BACKEND" envDefault:"memory"`
	RedisURL          string `env:"REDIS_URL"`
	DatabaseURL       string `env:"DATABASE_URL"`
	SessionTTLSeconds int    `env:"SESSION_TTL_SECONDS" envDefault:"86400"`

	ProviderTimeoutSeconds int          `env:"PROVIDER_TIMEOUT_SECONDS" envDefault:"10"`
	SelectionMinTracks     int          `env:"SELECTION_MIN_TRACKS" envDefault:"8"`
	SelectionMaxTracks     int          `env:"SELECTION_MAX_TRACKS" envDefault:"12"`
	SearchLimit            int          `env:"SEARCH_LIMIT" envDefault:"20"`
	CallbackReplayPolicy   ReplayPolicy `env:"CALLBACK_REPLAY_POLICY" envDefault:"strict"`
	RateLimitPerMin        int          `env:"RATE_LIMIT_PER_MIN" envDefault:"120"`
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.ProviderTimeoutSeconds) * time.Second
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) TidalEnabled() bool {
	return c.TidalClientID != ""
}

func (c *Config) Validate() error {
	if !util.IsValidEnum(c.LogLevel, logLevels) {
		return fmt.Errorf("LOG_LEVEL must be one of %s", strings.Join(logLevels, ", "))
	}
	if c.SelectionMinTracks < 1 {
		return fmt.Errorf("SELECTION_MIN_TRACKS must be at least 1")
	}
	if c.SelectionMaxTracks < c.SelectionMinTracks {
		return fmt.Errorf("SELECTION_MAX_TRACKS (%d) must not be below SELECTION_MIN_TRACKS (%d)",
			c.SelectionMaxTracks, c.SelectionMinTracks)
	}
	if c.SearchLimit < 1 || c.SearchLimit > MaxSearchLimit {
		return fmt.Errorf("SEARCH_LIMIT must be between 1 and %d", MaxSearchLimit)
	}
	if c.ProviderTimeoutSeconds < 1 {
		return fmt.Errorf("PROVIDER_TIMEOUT_SECONDS must be positive")
	}
	if c.SessionTTLSeconds < 60 {
		return fmt.Errorf("SESSION_TTL_SECONDS must be at least 60")
	}

	switch c.CallbackReplayPolicy {
	case ReplayStrict, ReplayShortCircuit:
	default:
		return fmt.Errorf("CALLBACK_REPLAY_POLICY must be %q or %q", ReplayStrict, ReplayShortCircuit)
	}

	switch c.SessionBackend {
	case SessionBackendMemory:
	case SessionBackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when SESSION_BACKEND=redis")
		}
	default:
		return fmt.Errorf("SESSION_BACKEND must be %q or %q", SessionBackendMemory, SessionBackendRedis)
	}

	if c.CookieSecure && strings.HasPrefix(c.SpotifyRedirectURI, "http://") {
		log.Warn().Msg("COOKIE_SECURE is set but REDIRECT_URI is not https: the session cookie will not survive the callback")
	}
	if c.RedisURL != "" && strings.HasPrefix(c.RedisURL, "redis://") && c.CookieSecure {
		log.Warn().Msg("REDIS_URL uses redis:// (not TLS): access tokens travel unencrypted")
	}

	return nil
}

// Load reads an optional .env file and then parses the environment.
// Variables already present in the environment take precedence.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
