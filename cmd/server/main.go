package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/virtualvinyl/vinyl-server-go/internal/config"
	"github.com/virtualvinyl/vinyl-server-go/internal/database"
	"github.com/virtualvinyl/vinyl-server-go/internal/handler"
	"github.com/virtualvinyl/vinyl-server-go/internal/jobs"
	"github.com/virtualvinyl/vinyl-server-go/internal/middleware"
	"github.com/virtualvinyl/vinyl-server-go/internal/provider"
	"github.com/virtualvinyl/vinyl-server-go/internal/redis"
	"github.com/virtualvinyl/vinyl-server-go/internal/repository"
	"github.com/virtualvinyl/vinyl-server-go/internal/selection"
	"github.com/virtualvinyl/vinyl-server-go/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	setupLogOutput(cfg.LogFile)
	setLogLevel(cfg.LogLevel)

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(cfg.RedisURL, config.PingTimeout)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("redis connected")
	}

	var playlistRepo repository.PlaylistRepository
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), config.PingTimeout)
		db, err := database.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
		cancel()
		log.Info().Msg("database connected")

		playlistRepo = repository.NewPlaylistRepository(db.DB)
	}

	var sessionRepo repository.SessionRepository
	switch cfg.SessionBackend {
	case config.SessionBackendRedis:
		sessionRepo = repository.NewRedisSessionRepository(redisClient.Client, cfg.SessionTTL())
	default:
		sessionRepo = repository.NewMemorySessionRepository(cfg.SessionTTL())
	}
	log.Info().Str("backend", cfg.SessionBackend).Msg("session store ready")

	var limiter middleware.Limiter = middleware.NewRateLimiter()
	if redisClient != nil {
		limiter = middleware.NewRedisRateLimiter(redisClient.Client)
	}

	clients := []provider.Client{
		provider.NewSpotifyClient(provider.SpotifyConfig{
			ClientID:     cfg.SpotifyClientID,
			ClientSecret: cfg.SpotifyClientSecret,
			RedirectURI:  cfg.SpotifyRedirectURI,
			Timeout:      cfg.ProviderTimeout(),
		}),
	}
	if cfg.TidalEnabled() {
		clients = append(clients, provider.NewTidalClient(provider.TidalConfig{
			ClientID:     cfg.TidalClientID,
			ClientSecret: cfg.TidalClientSecret,
			RedirectURI:  cfg.TidalRedirectURI,
			Timeout:      cfg.ProviderTimeout(),
		}))
	}
	registry := provider.NewRegistry(clients...)

	policy := selection.Policy{Min: cfg.SelectionMinTracks, Max: cfg.SelectionMaxTracks}

	authService := service.NewAuthService(sessionRepo, registry, cfg.CallbackReplayPolicy)
	catalogService := service.NewCatalogService(sessionRepo, registry, cfg.SearchLimit, config.TopTracksLimit)
	sessionService := service.NewSessionService(sessionRepo, policy)
	playlistService := service.NewPlaylistService(sessionRepo, playlistRepo, registry, policy, config.HistoryPageSize)

	sessionMiddleware := middleware.NewSessionMiddleware()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(limiter, cfg.RateLimitPerMin)
	loginRateLimiter := middleware.NewLoginRateLimiter(0)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(cfg.CookieSecure)

	authHandler := handler.NewAuthHandler(authService, cfg.SessionTTL(), cfg.CookieSecure, cfg.AppRedirectURL)
	apiHandler := handler.NewAPIHandler(authService, catalogService, sessionService, playlistService, cfg.CookieSecure)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)
	r.Use(sessionMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"providers": registry.Providers(),
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(loginRateLimiter.Handler)
		r.Get("/login", authHandler.Login)
		r.Get("/callback", authHandler.Callback)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(securityHeadersMiddleware.Handler)
		r.Use(rateLimitMiddleware.Handler)
		r.Mount("/", apiHandler.Routes())
	})

	if cfg.StaticDir != "" {
		spa := securityHeadersMiddleware.Handler(handler.NewSPAHandler(cfg.StaticDir))
		r.NotFound(spa.ServeHTTP)
	} else {
		r.NotFound(handler.NotFound)
	}

	cleanupJob := jobs.NewCleanupJob(sessionRepo, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerRequestTimeout + 5*time.Second,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", cfg.Addr()).
			Interface("providers", registry.Providers()).
			Int("selection_min", policy.Min).
			Int("selection_max", policy.Max).
			Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// setupLogOutput tees JSON logs into a rotated file next to the console output.
func setupLogOutput(path string) {
	if path == "" {
		return
	}
	var file io.Writer = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    config.LogFileMaxSizeMB,
		MaxBackups: config.LogFileMaxBackups,
		MaxAge:     config.LogFileMaxAgeDays,
		Compress:   true,
	}
	log.Logger = log.Output(zerolog.MultiLevelWriter(zerolog.ConsoleWriter{Out: os.Stderr}, file))
	log.Info().Str("file", path).Msg("logging to file")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
