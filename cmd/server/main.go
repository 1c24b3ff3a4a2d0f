package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Rrens/fai-advisor/internal/api"
	"github.com/Rrens/fai-advisor/internal/auth"
	"github.com/Rrens/fai-advisor/internal/auth/local"
	"github.com/Rrens/fai-advisor/internal/auth/supabase"
	"github.com/Rrens/fai-advisor/internal/chat"
	"github.com/Rrens/fai-advisor/internal/config"
	"github.com/Rrens/fai-advisor/internal/i18n"
	"github.com/Rrens/fai-advisor/internal/logger"
	"github.com/Rrens/fai-advisor/internal/mailer"
	"github.com/Rrens/fai-advisor/internal/metrics"
	"github.com/Rrens/fai-advisor/internal/ratelimit"
	"github.com/Rrens/fai-advisor/internal/repository"
	"github.com/Rrens/fai-advisor/internal/repository/postgres"
	"github.com/Rrens/fai-advisor/internal/repository/redis"
	"github.com/Rrens/fai-advisor/internal/security"
	"github.com/Rrens/fai-advisor/internal/web"
	"github.com/Rrens/fai-advisor/internal/websession"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file - try multiple locations
	envPaths := []string{".env", "../.env", "../../.env"}
	envLoaded := false
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			fmt.Printf("Loaded .env from: %s\n", p)
			envLoaded = true
			break
		}
	}
	if !envLoaded {
		fmt.Println("Warning: .env file not found in any standard location")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	logCloser, err := logger.Setup(cfg.Logging, os.Getenv("ENV") == "production")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}
	defer logCloser.Close()

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("store", cfg.Store.Driver).
		Str("auth", cfg.Auth.Driver).
		Msg("Starting Faculty of AI advisor")

	ctx := context.Background()

	// Initialize database, shared by the postgres chat store and local auth
	var db *postgres.DB
	if cfg.Store.Driver == "postgres" || cfg.Auth.Driver == "local" {
		db, err = postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()
	}

	store, err := repository.Open(ctx, cfg, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open chat store")
	}
	defer store.Close()

	// Initialize Redis
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
	}

	mail := mailer.New(cfg.Mail)

	authClient := newAuthClient(cfg, db, mail)

	sessionStore, err := newSessionStore(cfg, redisClient)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create session store")
	}
	sessions := websession.NewManager(sessionStore, cfg.Session)

	var limiter ratelimit.Limiter
	if redisClient != nil {
		limiter = redis.NewRateLimiter(redisClient, cfg.Security.RateLimit.RequestsPerMinute, cfg.Security.RateLimit.Burst)
	} else {
		limiter = ratelimit.NewLocal(cfg.Security.RateLimit.RequestsPerMinute, cfg.Security.RateLimit.Burst)
	}

	opts := chat.Options{
		Repository:       store.Chats,
		Generator:        chat.NewKeywordGenerator(cfg.Chat.MinDelay, cfg.Chat.MaxDelay),
		MaxMessageLength: cfg.Chat.MaxMessageLength,
	}
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		opts.Recorder = m
	}
	registry := chat.NewRegistry(cfg.Session.IdleTTL, opts)

	pages, err := web.New(web.Options{
		Auth:      authClient,
		Sessions:  sessions,
		Registry:  registry,
		Mailer:    mail,
		PublicURL: cfg.Server.PublicURL,
		ContactTo: cfg.Mail.ContactTo,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load page templates")
	}
	defer pages.Close()

	// Initialize router
	router := api.NewRouter(api.Deps{
		Config:   cfg,
		Auth:     authClient,
		Sessions: sessions,
		Registry: registry,
		Loader:   i18n.NewLoader(i18n.Source(cfg.I18n.Dir), cfg.I18n.DefaultLanguage, cfg.I18n.CacheTTL),
		Limiter:  limiter,
		Metrics:  m,
		Store:    store,
		Web:      pages,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func newAuthClient(cfg *config.Config, db *postgres.DB, mail mailer.Sender) auth.Client {
	if cfg.Auth.Driver == "local" {
		if cfg.Auth.JWTSecret == "" {
			log.Fatal().Msg("auth.jwt_secret is required for local auth")
		}
		tokens := security.NewJWTManager(
			cfg.Auth.JWTSecret,
			cfg.Auth.AccessTokenTTL,
			cfg.Auth.RefreshTokenTTL,
			cfg.Auth.RecoveryTokenTTL,
		)
		return local.New(postgres.NewUserRepository(db.Pool), tokens, mail)
	}

	if !cfg.Supabase.Configured() {
		log.Warn().Msg("Supabase URL or anon key missing, sign in is unavailable")
	}
	return supabase.New(cfg.Supabase)
}

// newSessionStore keeps browser sessions in Redis when it is enabled.
// Stored tokens are sealed when a session secret is configured.
func newSessionStore(cfg *config.Config, redisClient *redis.Client) (websession.Store, error) {
	if cfg.Session.Driver != "redis" || redisClient == nil {
		return websession.NewMemoryStore(cfg.Session.TTL), nil
	}

	var sealer *security.Sealer
	if cfg.Session.Secret != "" {
		var err error
		sealer, err = security.NewSealer(cfg.Session.Secret)
		if err != nil {
			return nil, err
		}
	} else {
		log.Warn().Msg("session.secret is empty, browser sessions are stored unsealed")
	}
	return redis.NewSessionStore(redisClient, cfg.Session.TTL, sealer), nil
}
